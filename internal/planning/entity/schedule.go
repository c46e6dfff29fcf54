package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 排产计划状态
const (
	ScheduleStatusDraft     = "DRAFT"
	ScheduleStatusCommitted = "COMMITTED"
	ScheduleStatusActive    = "ACTIVE"
	ScheduleStatusCompleted = "COMPLETED"
	ScheduleStatusCancelled = "CANCELLED"
)

// Schedule 排产计划头
type Schedule struct {
	ID          string           `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID    string           `json:"client_id" gorm:"size:32;not null;index"`
	Name        string           `json:"name" gorm:"size:128;not null"`
	PeriodStart time.Time        `json:"period_start" gorm:"type:date;not null"`
	PeriodEnd   time.Time        `json:"period_end" gorm:"type:date;not null"`
	Status      string           `json:"status" gorm:"size:20;not null;default:DRAFT;index"`
	CommittedBy string           `json:"committed_by" gorm:"size:64"`
	CommittedAt *time.Time       `json:"committed_at"`
	Details     []ScheduleDetail `json:"details,omitempty" gorm:"foreignKey:ScheduleID"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Schedule) TableName() string {
	return "plan_schedules"
}

var scheduleTransitions = map[string][]string{
	ScheduleStatusDraft:     {ScheduleStatusCommitted, ScheduleStatusCancelled},
	ScheduleStatusCommitted: {ScheduleStatusActive, ScheduleStatusCancelled},
	ScheduleStatusActive:    {ScheduleStatusCompleted},
}

// CanTransition 计划状态迁移校验
func (s Schedule) CanTransition(to string) bool {
	for _, st := range scheduleTransitions[s.Status] {
		if st == to {
			return true
		}
	}
	return false
}

// ScheduleDetail 排产明细：订单 × 产线 × 日期
type ScheduleDetail struct {
	ID            string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ScheduleID    string          `json:"schedule_id" gorm:"type:uuid;not null;index"`
	OrderID       string          `json:"order_id" gorm:"type:uuid;not null;index"`
	LineID        string          `json:"line_id" gorm:"type:uuid;not null;index"`
	ScheduledDate time.Time       `json:"scheduled_date" gorm:"type:date;not null"`
	ScheduledQty  decimal.Decimal `json:"scheduled_qty" gorm:"type:decimal(12,2);not null"`
	CompletedQty  decimal.Decimal `json:"completed_qty" gorm:"type:decimal(12,2);default:0"`
	Sequence      int             `json:"sequence" gorm:"default:1"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (ScheduleDetail) TableName() string {
	return "plan_schedule_details"
}
