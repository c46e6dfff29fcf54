package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outbound notification types. These are the only wire surface the
// planning engine produces; each payload carries enough to reconstruct
// the triggering fact without re-querying the store.
const (
	ShortageDetected  = "material.shortage_detected"
	CapacityOverload  = "capacity.overload"
	OrderScheduled    = "schedule.order_scheduled"
	ScheduleCommitted = "schedule.committed"
	KPIVarianceAlert  = "kpi.variance_alert"
	BOMExploded       = "bom.exploded"
	ScenarioCreated   = "scenario.created"
	ScenarioCompared  = "scenario.compared"
)

// Notification 出站通知：租户 + 聚合ID + 类型化负载
type Notification struct {
	Type        string      `json:"type"`
	ClientID    string      `json:"client_id"`
	AggregateID string      `json:"aggregate_id"`
	Payload     interface{} `json:"payload"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// New 构造通知，时间戳取当前时刻
func New(eventType, clientID, aggregateID string, payload interface{}) Notification {
	return Notification{
		Type:        eventType,
		ClientID:    clientID,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}
}

// ShortagePayload 缺料通知负载
type ShortagePayload struct {
	RunID         string          `json:"run_id"`
	OrderID       string          `json:"order_id"`
	ComponentCode string          `json:"component_code"`
	RequiredQty   decimal.Decimal `json:"required_qty"`
	AvailableQty  decimal.Decimal `json:"available_qty"`
	ShortageQty   decimal.Decimal `json:"shortage_qty"`
}

// OverloadPayload 产能过载通知负载
type OverloadPayload struct {
	LineID         string          `json:"line_id"`
	LineCode       string          `json:"line_code"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	UtilizationPct decimal.Decimal `json:"utilization_pct"`
	ShortfallHours decimal.Decimal `json:"shortfall_hours"`
}

// OrderScheduledPayload 订单排产通知负载
type OrderScheduledPayload struct {
	ScheduleID    string          `json:"schedule_id"`
	OrderID       string          `json:"order_id"`
	LineID        string          `json:"line_id"`
	ScheduledDate time.Time       `json:"scheduled_date"`
	ScheduledQty  decimal.Decimal `json:"scheduled_qty"`
}

// ScheduleCommittedPayload 计划提交通知负载
type ScheduleCommittedPayload struct {
	ScheduleID  string    `json:"schedule_id"`
	Name        string    `json:"name"`
	CommittedBy string    `json:"committed_by"`
	CommittedAt time.Time `json:"committed_at"`
	KPICount    int       `json:"kpi_count"`
}

// VarianceAlertPayload KPI差异告警负载
type VarianceAlertPayload struct {
	ScheduleID     string          `json:"schedule_id"`
	KPIKey         string          `json:"kpi_key"`
	CommittedValue decimal.Decimal `json:"committed_value"`
	ActualValue    decimal.Decimal `json:"actual_value"`
	Variance       decimal.Decimal `json:"variance"`
	VariancePct    decimal.Decimal `json:"variance_pct"`
	Severity       string          `json:"severity"`
}

// BOMExplodedPayload BOM展开通知负载
type BOMExplodedPayload struct {
	ParentItemCode  string          `json:"parent_item_code"`
	Quantity        decimal.Decimal `json:"quantity"`
	TotalComponents int             `json:"total_components"`
}

// ScenarioPayload 场景创建/对比通知负载
type ScenarioPayload struct {
	ScenarioIDs []string `json:"scenario_ids"`
	Type        string   `json:"type,omitempty"`
	Name        string   `json:"name,omitempty"`
}
