package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stitchworks/capline/internal/planning/entity"
	"github.com/stitchworks/capline/internal/planning/event"
	"gorm.io/gorm"
)

// In-memory fakes for the repository interfaces. Tests run the engine
// against these instead of a live store.

type fakeDispatcher struct {
	mu        sync.Mutex
	collected []event.Notification
	flushed   []event.Notification
	discarded int
}

func (d *fakeDispatcher) Collect(_ context.Context, n event.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.collected = append(d.collected, n)
}

func (d *fakeDispatcher) FlushOnCommit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushed = append(d.flushed, d.collected...)
	d.collected = nil
}

func (d *fakeDispatcher) DiscardOnRollback() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.collected = nil
	d.discarded++
}

func (d *fakeDispatcher) byType(eventType string) []event.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []event.Notification
	for _, n := range d.collected {
		if n.Type == eventType {
			out = append(out, n)
		}
	}
	return out
}

type fakeCalendarRepo struct {
	entries []entity.CalendarEntry
}

func (r *fakeCalendarRepo) ListBetween(_ context.Context, clientID string, start, end time.Time) ([]entity.CalendarEntry, error) {
	var out []entity.CalendarEntry
	for _, e := range r.entries {
		if e.ClientID == clientID && !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type fakeLineRepo struct {
	lines []entity.ProductionLine
}

func (r *fakeLineRepo) ListActive(_ context.Context, clientID string, lineIDs []string) ([]entity.ProductionLine, error) {
	wanted := make(map[string]bool, len(lineIDs))
	for _, id := range lineIDs {
		wanted[id] = true
	}
	var out []entity.ProductionLine
	for _, l := range r.lines {
		if l.ClientID != clientID || !l.Active {
			continue
		}
		if len(lineIDs) > 0 && !wanted[l.ID] {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type fakeStandardRepo struct {
	standards []entity.ProductionStandard
}

func (r *fakeStandardRepo) ListByStyles(_ context.Context, clientID string, styles []string) ([]entity.ProductionStandard, error) {
	wanted := make(map[string]bool, len(styles))
	for _, s := range styles {
		wanted[s] = true
	}
	var out []entity.ProductionStandard
	for _, s := range r.standards {
		if s.ClientID == clientID && wanted[s.Style] {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeBOMRepo struct {
	headers []entity.BOMHeader
}

func (r *fakeBOMRepo) ActiveHeaderByItem(_ context.Context, clientID, parentItemCode string) (*entity.BOMHeader, error) {
	for i := range r.headers {
		h := &r.headers[i]
		if h.ClientID == clientID && h.ParentItemCode == parentItemCode && h.Active {
			return h, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBOMRepo) ActiveHeaderByStyle(_ context.Context, clientID, style string) (*entity.BOMHeader, error) {
	for i := range r.headers {
		h := &r.headers[i]
		if h.ClientID == clientID && h.Style == style && h.Active {
			return h, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeStockRepo struct {
	snapshots []entity.StockSnapshot
}

func (r *fakeStockRepo) LatestByItems(_ context.Context, clientID string, itemCodes []string) (map[string]entity.StockSnapshot, error) {
	wanted := make(map[string]bool, len(itemCodes))
	for _, c := range itemCodes {
		wanted[c] = true
	}
	latest := make(map[string]entity.StockSnapshot)
	for _, s := range r.snapshots {
		if s.ClientID != clientID || !wanted[s.ItemCode] {
			continue
		}
		if cur, ok := latest[s.ItemCode]; !ok || s.SnapshotDate.After(cur.SnapshotDate) {
			latest[s.ItemCode] = s
		}
	}
	return latest, nil
}

type fakeOrderRepo struct {
	orders []entity.Order
}

func (r *fakeOrderRepo) GetByID(_ context.Context, clientID, id string) (*entity.Order, error) {
	for i := range r.orders {
		if r.orders[i].ClientID == clientID && r.orders[i].ID == id {
			return &r.orders[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) ListByIDs(_ context.Context, clientID string, ids []string) ([]entity.Order, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []entity.Order
	for _, o := range r.orders {
		if o.ClientID != clientID {
			continue
		}
		if len(ids) > 0 && !wanted[o.ID] {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequiredDate.Before(out[j].RequiredDate) })
	return out, nil
}

func (r *fakeOrderRepo) ListByStatus(_ context.Context, clientID string, statuses []string) ([]entity.Order, error) {
	wanted := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	var out []entity.Order
	for _, o := range r.orders {
		if o.ClientID == clientID && wanted[o.Status] {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequiredDate.Before(out[j].RequiredDate) })
	return out, nil
}

func (r *fakeOrderRepo) ListCompletedBetween(_ context.Context, clientID string, start, end time.Time) ([]entity.Order, error) {
	var out []entity.Order
	for _, o := range r.orders {
		if o.ClientID != clientID || o.Status != entity.OrderStatusCompleted || o.CompletedAt == nil {
			continue
		}
		if !o.CompletedAt.Before(start) && !o.CompletedAt.After(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeCheckRepo struct {
	runs    []entity.CheckRun
	checks  []entity.ComponentCheck
	saveErr error
}

func (r *fakeCheckRepo) SaveRun(_ context.Context, run *entity.CheckRun, checks []entity.ComponentCheck) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	run.ID = uuid.New().String()
	r.runs = append(r.runs, *run)
	for i := range checks {
		checks[i].ID = uuid.New().String()
		checks[i].RunID = run.ID
	}
	r.checks = append(r.checks, checks...)
	return nil
}

func (r *fakeCheckRepo) GetRun(_ context.Context, clientID, id string) (*entity.CheckRun, error) {
	for i := range r.runs {
		if r.runs[i].ClientID == clientID && r.runs[i].ID == id {
			return &r.runs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCheckRepo) ListRuns(_ context.Context, clientID string, page, pageSize int) ([]entity.CheckRun, int64, error) {
	var out []entity.CheckRun
	for _, run := range r.runs {
		if run.ClientID == clientID {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	total := int64(len(out))
	low := (page - 1) * pageSize
	if low > len(out) {
		return nil, total, nil
	}
	high := low + pageSize
	if high > len(out) {
		high = len(out)
	}
	return out[low:high], total, nil
}

func (r *fakeCheckRepo) ListChecksByRun(_ context.Context, clientID, runID string) ([]entity.ComponentCheck, error) {
	var out []entity.ComponentCheck
	for _, c := range r.checks {
		if c.ClientID == clientID && c.RunID == runID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCheckRepo) ListShortagesSince(_ context.Context, clientID string, since time.Time) ([]entity.ComponentCheck, error) {
	var out []entity.ComponentCheck
	for _, c := range r.checks {
		if c.ClientID == clientID && c.Status == entity.CheckStatusShortage && !c.CheckedAt.Before(since) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckedAt.Before(out[j].CheckedAt) })
	return out, nil
}

type fakeCapacityRepo struct {
	rows []entity.CapacityAnalysis
}

func (r *fakeCapacityRepo) BatchCreate(_ context.Context, rows []entity.CapacityAnalysis) error {
	for i := range rows {
		rows[i].ID = uuid.New().String()
	}
	r.rows = append(r.rows, rows...)
	return nil
}

func (r *fakeCapacityRepo) ListByPeriod(_ context.Context, clientID string, start, end time.Time) ([]entity.CapacityAnalysis, error) {
	var out []entity.CapacityAnalysis
	for _, row := range r.rows {
		if row.ClientID == clientID && !row.PeriodStart.Before(start) && !row.PeriodEnd.After(end) {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeScheduleRepo struct {
	mu        sync.Mutex
	schedules []entity.Schedule
	orders    *fakeOrderRepo
	kpi       *fakeKPIRepo
}

func (r *fakeScheduleRepo) Create(_ context.Context, schedule *entity.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	schedule.ID = uuid.New().String()
	for i := range schedule.Details {
		schedule.Details[i].ID = uuid.New().String()
		schedule.Details[i].ScheduleID = schedule.ID
	}
	r.schedules = append(r.schedules, *schedule)
	return nil
}

func (r *fakeScheduleRepo) GetByID(_ context.Context, clientID, id string) (*entity.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.schedules {
		if r.schedules[i].ClientID == clientID && r.schedules[i].ID == id {
			copied := r.schedules[i]
			copied.Details = append([]entity.ScheduleDetail(nil), r.schedules[i].Details...)
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeScheduleRepo) List(_ context.Context, clientID, status string, page, pageSize int) ([]entity.Schedule, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Schedule
	for _, s := range r.schedules {
		if s.ClientID != clientID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		out = append(out, s)
	}
	total := int64(len(out))
	low := (page - 1) * pageSize
	if low > len(out) {
		return nil, total, nil
	}
	high := low + pageSize
	if high > len(out) {
		high = len(out)
	}
	return out[low:high], total, nil
}

func (r *fakeScheduleRepo) CreateWithOrders(ctx context.Context, schedule *entity.Schedule, orderIDs []string, orderStatus string) error {
	if err := r.Create(ctx, schedule); err != nil {
		return err
	}
	if r.orders == nil || len(orderIDs) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}
	for i := range r.orders.orders {
		o := &r.orders.orders[i]
		if o.ClientID == schedule.ClientID && wanted[o.ID] {
			o.Status = orderStatus
		}
	}
	return nil
}

func (r *fakeScheduleRepo) CommitWithKPIs(ctx context.Context, clientID, id, fromStatus string, updates map[string]interface{}, commitments []entity.KPICommitment) (bool, error) {
	won, err := r.UpdateStatusCAS(ctx, clientID, id, fromStatus, updates)
	if err != nil || !won {
		return won, err
	}
	if r.kpi != nil && len(commitments) > 0 {
		if err := r.kpi.BatchCreateCommitments(ctx, commitments); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *fakeScheduleRepo) UpdateStatusCAS(_ context.Context, clientID, id, fromStatus string, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.schedules {
		s := &r.schedules[i]
		if s.ClientID != clientID || s.ID != id || s.Status != fromStatus {
			continue
		}
		if v, ok := updates["status"].(string); ok {
			s.Status = v
		}
		if v, ok := updates["committed_by"].(string); ok {
			s.CommittedBy = v
		}
		if v, ok := updates["committed_at"].(time.Time); ok {
			s.CommittedAt = &v
		}
		return true, nil
	}
	return false, nil
}

func (r *fakeScheduleRepo) DetailsByPeriodLines(_ context.Context, clientID string, lineIDs []string, start, end time.Time) ([]entity.ScheduleDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(lineIDs))
	for _, id := range lineIDs {
		wanted[id] = true
	}
	var out []entity.ScheduleDetail
	for _, s := range r.schedules {
		if s.ClientID != clientID {
			continue
		}
		if s.Status != entity.ScheduleStatusCommitted && s.Status != entity.ScheduleStatusActive {
			continue
		}
		for _, d := range s.Details {
			if len(lineIDs) > 0 && !wanted[d.LineID] {
				continue
			}
			if !d.ScheduledDate.Before(start) && !d.ScheduledDate.After(end) {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

type fakeScenarioRepo struct {
	scenarios []entity.Scenario
}

func (r *fakeScenarioRepo) Create(_ context.Context, scenario *entity.Scenario) error {
	scenario.ID = uuid.New().String()
	r.scenarios = append(r.scenarios, *scenario)
	return nil
}

func (r *fakeScenarioRepo) GetByID(_ context.Context, clientID, id string) (*entity.Scenario, error) {
	for i := range r.scenarios {
		if r.scenarios[i].ClientID == clientID && r.scenarios[i].ID == id {
			copied := r.scenarios[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeScenarioRepo) List(_ context.Context, clientID, scenarioType string, page, pageSize int) ([]entity.Scenario, int64, error) {
	var out []entity.Scenario
	for _, s := range r.scenarios {
		if s.ClientID != clientID {
			continue
		}
		if scenarioType != "" && s.Type != scenarioType {
			continue
		}
		out = append(out, s)
	}
	total := int64(len(out))
	low := (page - 1) * pageSize
	if low > len(out) {
		return nil, total, nil
	}
	high := low + pageSize
	if high > len(out) {
		high = len(out)
	}
	return out[low:high], total, nil
}

func (r *fakeScenarioRepo) Update(_ context.Context, scenario *entity.Scenario) error {
	for i := range r.scenarios {
		if r.scenarios[i].ID == scenario.ID {
			r.scenarios[i] = *scenario
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeKPIRepo struct {
	commitments []entity.KPICommitment
	records     []entity.ProductionRecord
}

func (r *fakeKPIRepo) BatchCreateCommitments(_ context.Context, commitments []entity.KPICommitment) error {
	for i := range commitments {
		commitments[i].ID = uuid.New().String()
	}
	r.commitments = append(r.commitments, commitments...)
	return nil
}

func (r *fakeKPIRepo) ListBySchedule(_ context.Context, clientID, scheduleID string) ([]entity.KPICommitment, error) {
	var out []entity.KPICommitment
	for _, c := range r.commitments {
		if c.ClientID == clientID && c.ScheduleID == scheduleID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KPIKey < out[j].KPIKey })
	return out, nil
}

func (r *fakeKPIRepo) UpdateCommitment(_ context.Context, commitment *entity.KPICommitment) error {
	for i := range r.commitments {
		if r.commitments[i].ID == commitment.ID {
			r.commitments[i] = *commitment
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeKPIRepo) ListByPeriods(_ context.Context, clientID, kpiKey string, limit int) ([]entity.KPICommitment, error) {
	var out []entity.KPICommitment
	for _, c := range r.commitments {
		if c.ClientID == clientID && c.KPIKey == kpiKey {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.After(out[j].PeriodStart) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeKPIRepo) ListProductionRecords(_ context.Context, clientID string, lineIDs []string, start, end time.Time) ([]entity.ProductionRecord, error) {
	wanted := make(map[string]bool, len(lineIDs))
	for _, id := range lineIDs {
		wanted[id] = true
	}
	var out []entity.ProductionRecord
	for _, rec := range r.records {
		if rec.ClientID != clientID {
			continue
		}
		if len(lineIDs) > 0 && !wanted[rec.LineID] {
			continue
		}
		if !rec.RecordDate.Before(start) && !rec.RecordDate.After(end) {
			out = append(out, rec)
		}
	}
	return out, nil
}
