package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/apperr"
	"github.com/stitchworks/capline/internal/planning/entity"
	"github.com/stitchworks/capline/internal/planning/event"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 排序键
const (
	SortByDue      = "due"      // 交期优先
	SortByPriority = "priority" // 优先级降序，同级按交期
)

// lookbackDays 订单最早可排天数：只在 [交期−7天, 期末] 窗口内找产能。
// 窗口外即使有空闲产能也不排，避免过早投产。
const lookbackDays = 7

// UnscheduledOrder 未能排入的订单及原因
type UnscheduledOrder struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// GenerateResult 自动排程结果
type GenerateResult struct {
	Schedule    *entity.Schedule   `json:"schedule"`
	Unscheduled []UnscheduledOrder `json:"unscheduled"`
}

// CreateScheduleInput 手工建排程输入
type CreateScheduleInput struct {
	Name        string                      `json:"name" binding:"required"`
	PeriodStart time.Time                   `json:"period_start" binding:"required"`
	PeriodEnd   time.Time                   `json:"period_end" binding:"required"`
	Details     []CreateScheduleDetailInput `json:"details" binding:"required"`
}

// CreateScheduleDetailInput 手工排程明细行
type CreateScheduleDetailInput struct {
	OrderID       string          `json:"order_id" binding:"required"`
	LineID        string          `json:"line_id" binding:"required"`
	ScheduledDate time.Time       `json:"scheduled_date" binding:"required"`
	ScheduledQty  decimal.Decimal `json:"scheduled_qty" binding:"required"`
	Sequence      int             `json:"sequence"`
}

// ScheduleService 排产：贪心生成 + 生命周期管理
type ScheduleService struct {
	calendarRepo CalendarReader
	lineRepo     LineReader
	standardRepo StandardReader
	orderRepo    OrderStore
	scheduleRepo ScheduleStore
	dispatcher   event.Collector
	cfg          Config
	logger       *zap.Logger
}

func NewScheduleService(calendarRepo CalendarReader, lineRepo LineReader, standardRepo StandardReader, orderRepo OrderStore, scheduleRepo ScheduleStore, dispatcher event.Collector, cfg Config, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		calendarRepo: calendarRepo,
		lineRepo:     lineRepo,
		standardRepo: standardRepo,
		orderRepo:    orderRepo,
		scheduleRepo: scheduleRepo,
		dispatcher:   dispatcher,
		cfg:          cfg,
		logger:       logger,
	}
}

// Generate 贪心排程：订单按交期或优先级排序后依次塞进第一条
// 剩余产能足够的产线，日期取窗口内最早有空档的工作日。
// 生成DRAFT排程，已排订单置为SCHEDULED，排不下的原样返回。
func (s *ScheduleService) Generate(ctx context.Context, clientID, name string, start, end time.Time, orderIDs, lineIDs []string, sortKey string) (*GenerateResult, error) {
	if name == "" {
		return nil, apperr.E(apperr.Validation, "schedule name is required")
	}
	if end.Before(start) {
		return nil, apperr.E(apperr.Validation, "period end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	orders, err := s.candidateOrders(ctx, clientID, orderIDs)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperr.E(apperr.NotFound, "no schedulable orders")
	}
	sortOrders(orders, sortKey)

	lines, err := s.lineRepo.ListActive(ctx, clientID, lineIDs)
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, apperr.E(apperr.NotFound, "no active lines")
	}

	workingDays, err := s.workingDays(ctx, clientID, start, end)
	if err != nil {
		return nil, err
	}

	samByStyle, err := s.samByStyle(ctx, clientID, orders)
	if err != nil {
		return nil, err
	}

	// 每线总剩余产能与每线每日剩余产能，平铺按8小时/工作日计
	remaining := make(map[string]decimal.Decimal, len(lines))
	dayRemaining := make(map[string]map[string]decimal.Decimal, len(lines))
	dayCapacity := make(map[string]decimal.Decimal, len(lines))
	for _, l := range lines {
		eff := l.EfficiencyFactor
		if eff.IsZero() {
			eff = s.cfg.DefaultEfficiency
		}
		perDay := defHours.
			Mul(eff).
			Mul(one.Sub(l.AbsenteeismFactor)).
			Mul(decimal.NewFromInt(int64(l.MaxOperators)))
		dayCapacity[l.ID] = perDay
		remaining[l.ID] = perDay.Mul(decimal.NewFromInt(int64(len(workingDays))))
		dayRemaining[l.ID] = make(map[string]decimal.Decimal, len(workingDays))
		for _, d := range workingDays {
			dayRemaining[l.ID][dayKey(d)] = perDay
		}
	}

	schedule := &entity.Schedule{
		ClientID:    clientID,
		Name:        name,
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      entity.ScheduleStatusDraft,
	}
	sequence := make(map[string]int) // lineID+day → 已排单数
	var unscheduled []UnscheduledOrder
	var scheduledOrderIDs []string

	for _, o := range orders {
		sam := samByStyle[o.Style]
		if o.SAMOverride != nil && o.SAMOverride.IsPositive() {
			sam = *o.SAMOverride
		}
		if sam.IsZero() {
			unscheduled = append(unscheduled, UnscheduledOrder{
				OrderID: o.ID, OrderNumber: o.OrderNumber,
				Reason: "no production standard for style " + o.Style,
			})
			continue
		}
		orderHours := o.Quantity.Mul(sam).Div(sixty)

		placed := false
		for _, l := range lines {
			if remaining[l.ID].LessThan(orderHours) {
				continue
			}
			day, ok := s.pickDay(workingDays, dayRemaining[l.ID], o.RequiredDate, end)
			if !ok {
				continue
			}
			key := dayKey(day)
			seqKey := l.ID + "/" + key
			sequence[seqKey]++
			schedule.Details = append(schedule.Details, entity.ScheduleDetail{
				OrderID:       o.ID,
				LineID:        l.ID,
				ScheduledDate: day,
				ScheduledQty:  o.Quantity,
				Sequence:      sequence[seqKey],
			})
			remaining[l.ID] = remaining[l.ID].Sub(orderHours)
			dayRemaining[l.ID][key] = dayRemaining[l.ID][key].Sub(orderHours)
			scheduledOrderIDs = append(scheduledOrderIDs, o.ID)
			placed = true
			break
		}
		if !placed {
			unscheduled = append(unscheduled, UnscheduledOrder{
				OrderID: o.ID, OrderNumber: o.OrderNumber,
				Reason: "insufficient capacity in scheduling window",
			})
		}
	}

	if len(schedule.Details) == 0 {
		return &GenerateResult{Unscheduled: unscheduled}, nil
	}

	if err := s.scheduleRepo.CreateWithOrders(ctx, schedule, scheduledOrderIDs, entity.OrderStatusScheduled); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	for _, d := range schedule.Details {
		s.dispatcher.Collect(ctx, event.New(event.OrderScheduled, clientID, schedule.ID, event.OrderScheduledPayload{
			ScheduleID:    schedule.ID,
			OrderID:       d.OrderID,
			LineID:        d.LineID,
			ScheduledDate: d.ScheduledDate,
			ScheduledQty:  d.ScheduledQty,
		}))
	}
	if s.logger != nil {
		s.logger.Info("schedule generated",
			zap.String("schedule_id", schedule.ID),
			zap.Int("scheduled", len(schedule.Details)),
			zap.Int("unscheduled", len(unscheduled)))
	}
	return &GenerateResult{Schedule: schedule, Unscheduled: unscheduled}, nil
}

// Create 手工建排程：显式头+明细，逐行收集已排产通知
func (s *ScheduleService) Create(ctx context.Context, clientID string, input *CreateScheduleInput) (*entity.Schedule, error) {
	if input.PeriodEnd.Before(input.PeriodStart) {
		return nil, apperr.E(apperr.Validation, "period end before start")
	}
	if len(input.Details) == 0 {
		return nil, apperr.E(apperr.Validation, "schedule needs at least one detail row")
	}

	schedule := &entity.Schedule{
		ClientID:    clientID,
		Name:        input.Name,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		Status:      entity.ScheduleStatusDraft,
	}
	for i, d := range input.Details {
		if d.ScheduledQty.LessThanOrEqual(decimal.Zero) {
			return nil, apperr.E(apperr.Validation, "scheduled quantity must be positive")
		}
		seq := d.Sequence
		if seq == 0 {
			seq = i + 1
		}
		schedule.Details = append(schedule.Details, entity.ScheduleDetail{
			OrderID:       d.OrderID,
			LineID:        d.LineID,
			ScheduledDate: d.ScheduledDate,
			ScheduledQty:  d.ScheduledQty,
			Sequence:      seq,
		})
	}

	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	for _, d := range schedule.Details {
		s.dispatcher.Collect(ctx, event.New(event.OrderScheduled, clientID, schedule.ID, event.OrderScheduledPayload{
			ScheduleID:    schedule.ID,
			OrderID:       d.OrderID,
			LineID:        d.LineID,
			ScheduledDate: d.ScheduledDate,
			ScheduledQty:  d.ScheduledQty,
		}))
	}
	return schedule, nil
}

// Commit 提交排程：DRAFT→COMMITTED 用条件更新抢状态，
// 并发提交只有一方成功；KPI目标承诺随状态迁移同一事务锁定。
func (s *ScheduleService) Commit(ctx context.Context, clientID, id, committedBy string, kpiTargets map[string]decimal.Decimal) (*entity.Schedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, clientID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.NotFound, "schedule %s not found", id)
		}
		return nil, err
	}

	now := time.Now()
	commitments := commitmentRows(clientID, id, schedule, kpiTargets)
	won, err := s.scheduleRepo.CommitWithKPIs(ctx, clientID, id, entity.ScheduleStatusDraft, map[string]interface{}{
		"status":       entity.ScheduleStatusCommitted,
		"committed_by": committedBy,
		"committed_at": now,
	}, commitments)
	if err != nil {
		return nil, fmt.Errorf("commit schedule: %w", err)
	}
	if !won {
		return nil, s.transitionError(ctx, clientID, id, entity.ScheduleStatusCommitted)
	}

	schedule, err = s.scheduleRepo.GetByID(ctx, clientID, id)
	if err != nil {
		return nil, fmt.Errorf("reload schedule: %w", err)
	}

	s.dispatcher.Collect(ctx, event.New(event.ScheduleCommitted, clientID, id, event.ScheduleCommittedPayload{
		ScheduleID:  id,
		Name:        schedule.Name,
		CommittedBy: committedBy,
		CommittedAt: now,
		KPICount:    len(kpiTargets),
	}))
	return schedule, nil
}

// Activate COMMITTED→ACTIVE
func (s *ScheduleService) Activate(ctx context.Context, clientID, id string) (*entity.Schedule, error) {
	return s.transition(ctx, clientID, id, entity.ScheduleStatusCommitted, entity.ScheduleStatusActive)
}

// Complete ACTIVE→COMPLETED
func (s *ScheduleService) Complete(ctx context.Context, clientID, id string) (*entity.Schedule, error) {
	return s.transition(ctx, clientID, id, entity.ScheduleStatusActive, entity.ScheduleStatusCompleted)
}

// Cancel DRAFT/COMMITTED→CANCELLED
func (s *ScheduleService) Cancel(ctx context.Context, clientID, id string) (*entity.Schedule, error) {
	for _, from := range []string{entity.ScheduleStatusDraft, entity.ScheduleStatusCommitted} {
		won, err := s.scheduleRepo.UpdateStatusCAS(ctx, clientID, id, from, map[string]interface{}{
			"status": entity.ScheduleStatusCancelled,
		})
		if err != nil {
			return nil, fmt.Errorf("cancel schedule: %w", err)
		}
		if won {
			return s.scheduleRepo.GetByID(ctx, clientID, id)
		}
	}
	return nil, s.transitionError(ctx, clientID, id, entity.ScheduleStatusCancelled)
}

func (s *ScheduleService) Get(ctx context.Context, clientID, id string) (*entity.Schedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, clientID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.NotFound, "schedule %s not found", id)
		}
		return nil, err
	}
	return schedule, nil
}

func (s *ScheduleService) List(ctx context.Context, clientID, status string, page, pageSize int) ([]entity.Schedule, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.scheduleRepo.List(ctx, clientID, status, page, pageSize)
}

func (s *ScheduleService) transition(ctx context.Context, clientID, id, from, to string) (*entity.Schedule, error) {
	won, err := s.scheduleRepo.UpdateStatusCAS(ctx, clientID, id, from, map[string]interface{}{
		"status": to,
	})
	if err != nil {
		return nil, fmt.Errorf("update schedule status: %w", err)
	}
	if !won {
		return nil, s.transitionError(ctx, clientID, id, to)
	}
	return s.scheduleRepo.GetByID(ctx, clientID, id)
}

// transitionError 区分不存在、状态不允许与并发改动
func (s *ScheduleService) transitionError(ctx context.Context, clientID, id, to string) error {
	schedule, err := s.scheduleRepo.GetByID(ctx, clientID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.E(apperr.NotFound, "schedule %s not found", id)
		}
		return err
	}
	if !schedule.CanTransition(to) {
		return apperr.E(apperr.InvalidTransition, "schedule %s cannot move from %s to %s", id, schedule.Status, to)
	}
	return apperr.E(apperr.InvalidTransition, "schedule %s changed concurrently, retry the transition to %s", id, to)
}

func (s *ScheduleService) candidateOrders(ctx context.Context, clientID string, orderIDs []string) ([]entity.Order, error) {
	if len(orderIDs) == 0 {
		return s.orderRepo.ListByStatus(ctx, clientID, []string{entity.OrderStatusDraft, entity.OrderStatusConfirmed})
	}
	orders, err := s.orderRepo.ListByIDs(ctx, clientID, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	eligible := orders[:0]
	for _, o := range orders {
		if o.CanTransition(entity.OrderStatusScheduled) {
			eligible = append(eligible, o)
		}
	}
	return eligible, nil
}

// workingDays 期间内工作日序列；无日历数据时按周一至周五
func (s *ScheduleService) workingDays(ctx context.Context, clientID string, start, end time.Time) ([]time.Time, error) {
	entries, err := s.calendarRepo.ListBetween(ctx, clientID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list calendar: %w", err)
	}

	var days []time.Time
	if len(entries) > 0 {
		for _, e := range entries {
			if e.IsWorkingDay {
				days = append(days, e.Date)
			}
		}
		return days, nil
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d)
		}
	}
	return days, nil
}

// pickDay 在 [交期−7天, 期末] 内找最早仍有空余产能的工作日
func (s *ScheduleService) pickDay(workingDays []time.Time, dayRemaining map[string]decimal.Decimal, requiredDate, periodEnd time.Time) (time.Time, bool) {
	windowStart := requiredDate.AddDate(0, 0, -lookbackDays)
	for _, d := range workingDays {
		if d.Before(windowStart) || d.After(periodEnd) {
			continue
		}
		if dayRemaining[dayKey(d)].IsPositive() {
			return d, true
		}
	}
	return time.Time{}, false
}

func (s *ScheduleService) samByStyle(ctx context.Context, clientID string, orders []entity.Order) (map[string]decimal.Decimal, error) {
	styles := make([]string, 0, len(orders))
	seen := make(map[string]bool, len(orders))
	for _, o := range orders {
		if !seen[o.Style] {
			seen[o.Style] = true
			styles = append(styles, o.Style)
		}
	}
	standards, err := s.standardRepo.ListByStyles(ctx, clientID, styles)
	if err != nil {
		return nil, fmt.Errorf("list standards: %w", err)
	}
	return styleSAMs(standards), nil
}

func sortOrders(orders []entity.Order, sortKey string) {
	switch sortKey {
	case SortByPriority:
		sort.SliceStable(orders, func(i, j int) bool {
			ri, rj := entity.PriorityRank(orders[i].Priority), entity.PriorityRank(orders[j].Priority)
			if ri != rj {
				return ri > rj
			}
			return orders[i].RequiredDate.Before(orders[j].RequiredDate)
		})
	default:
		sort.SliceStable(orders, func(i, j int) bool {
			return orders[i].RequiredDate.Before(orders[j].RequiredDate)
		})
	}
}

func dayKey(d time.Time) string {
	return d.Format("2006-01-02")
}
