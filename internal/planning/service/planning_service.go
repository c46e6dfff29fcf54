package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/entity"
)

// ScheduleProgress 生效排程完成进度
type ScheduleProgress struct {
	ScheduleID    string          `json:"schedule_id"`
	Name          string          `json:"name"`
	Status        string          `json:"status"`
	ScheduledQty  decimal.Decimal `json:"scheduled_qty"`
	CompletedQty  decimal.Decimal `json:"completed_qty"`
	CompletionPct decimal.Decimal `json:"completion_pct"`
}

// Dashboard 计划看板聚合视图
type Dashboard struct {
	PeriodStart     time.Time                 `json:"period_start"`
	PeriodEnd       time.Time                 `json:"period_end"`
	LatestCheck     *entity.CheckRun          `json:"latest_check"`
	Capacity        *AnalysisResult           `json:"capacity"`
	Bottlenecks     []entity.CapacityAnalysis `json:"bottlenecks"`
	ActiveSchedules []ScheduleProgress        `json:"active_schedules"`
	ScenarioCount   int64                     `json:"scenario_count"`
	KPICommitments  []entity.KPICommitment    `json:"kpi_commitments"`
}

// PlanningService 编排门面：只做组合，不含自有算法
type PlanningService struct {
	capacity     *CapacityService
	schedule     *ScheduleService
	kpi          *KPIService
	scenarioRepo ScenarioStore
	checkRepo    CheckStore
}

func NewPlanningService(capacity *CapacityService, schedule *ScheduleService, kpi *KPIService, scenarioRepo ScenarioStore, checkRepo CheckStore) *PlanningService {
	return &PlanningService{
		capacity:     capacity,
		schedule:     schedule,
		kpi:          kpi,
		scenarioRepo: scenarioRepo,
		checkRepo:    checkRepo,
	}
}

// Dashboard 汇总：最近一次齐套检查、期间产能与瓶颈、
// 生效排程进度、场景数、KPI承诺状态
func (s *PlanningService) Dashboard(ctx context.Context, clientID string, start, end time.Time) (*Dashboard, error) {
	d := &Dashboard{PeriodStart: start, PeriodEnd: end}

	runs, _, err := s.checkRepo.ListRuns(ctx, clientID, 1, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		d.LatestCheck = &runs[0]
	}

	capacity, err := s.capacity.run(ctx, clientID, start, end, nil, "", nil)
	if err != nil {
		return nil, err
	}
	d.Capacity = capacity
	for _, row := range capacity.Lines {
		if row.IsBottleneck {
			d.Bottlenecks = append(d.Bottlenecks, row)
		}
	}

	active, _, err := s.schedule.List(ctx, clientID, entity.ScheduleStatusActive, 1, 20)
	if err != nil {
		return nil, err
	}
	for _, sched := range active {
		full, err := s.schedule.Get(ctx, clientID, sched.ID)
		if err != nil {
			return nil, err
		}
		progress := ScheduleProgress{
			ScheduleID: full.ID,
			Name:       full.Name,
			Status:     full.Status,
		}
		for _, detail := range full.Details {
			progress.ScheduledQty = progress.ScheduledQty.Add(detail.ScheduledQty)
			progress.CompletedQty = progress.CompletedQty.Add(detail.CompletedQty)
		}
		if progress.ScheduledQty.IsPositive() {
			progress.CompletionPct = progress.CompletedQty.
				Div(progress.ScheduledQty).Mul(hundred).Round(2)
		}
		d.ActiveSchedules = append(d.ActiveSchedules, progress)

		commitments, err := s.kpi.History(ctx, clientID, full.ID)
		if err != nil {
			return nil, err
		}
		d.KPICommitments = append(d.KPICommitments, commitments...)
	}

	_, scenarioTotal, err := s.scenarioRepo.List(ctx, clientID, "", 1, 1)
	if err != nil {
		return nil, err
	}
	d.ScenarioCount = scenarioTotal

	return d, nil
}
