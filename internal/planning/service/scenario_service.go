package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/apperr"
	"github.com/stitchworks/capline/internal/planning/entity"
	"github.com/stitchworks/capline/internal/planning/event"
	"gorm.io/gorm"
)

// CreateScenarioInput 建场景输入；Params 缺省时落该类型默认参数
type CreateScenarioInput struct {
	Name           string          `json:"name" binding:"required"`
	Type           string          `json:"type" binding:"required"`
	BaseScheduleID *string         `json:"base_schedule_id"`
	Params         json.RawMessage `json:"params"`
}

// ScenarioImpact 单场景对基线的影响汇总
type ScenarioImpact struct {
	ScenarioID            string          `json:"scenario_id"`
	Name                  string          `json:"name"`
	Type                  string          `json:"type"`
	PeriodStart           time.Time       `json:"period_start"`
	PeriodEnd             time.Time       `json:"period_end"`
	BaselineCapacityHours decimal.Decimal `json:"baseline_capacity_hours"`
	AdjustedCapacityHours decimal.Decimal `json:"adjusted_capacity_hours"`
	CapacityDeltaHours    decimal.Decimal `json:"capacity_delta_hours"`
	UtilizationBeforePct  decimal.Decimal `json:"utilization_before_pct"`
	UtilizationAfterPct   decimal.Decimal `json:"utilization_after_pct"`
	CostImpact            decimal.Decimal `json:"cost_impact"`
	BottlenecksBefore     int             `json:"bottlenecks_before"`
	BottlenecksAfter      int             `json:"bottlenecks_after"`
	BottlenecksResolved   int             `json:"bottlenecks_resolved"`
}

// ScenarioService 假设分析：对基线产能施加参数化增量后重算对比。
// 纯读投影，绝不改写已提交排程。
type ScenarioService struct {
	scenarioRepo ScenarioStore
	scheduleRepo ScheduleStore
	capacity     *CapacityService
	dispatcher   event.Collector
}

func NewScenarioService(scenarioRepo ScenarioStore, scheduleRepo ScheduleStore, capacity *CapacityService, dispatcher event.Collector) *ScenarioService {
	return &ScenarioService{
		scenarioRepo: scenarioRepo,
		scheduleRepo: scheduleRepo,
		capacity:     capacity,
		dispatcher:   dispatcher,
	}
}

// Create 校验类型与参数形状后落库
func (s *ScenarioService) Create(ctx context.Context, clientID string, input *CreateScenarioInput) (*entity.Scenario, error) {
	if !entity.ValidScenarioType(input.Type) {
		return nil, apperr.E(apperr.Validation, "unknown scenario type %s", input.Type)
	}

	paramsJSON := string(input.Params)
	if paramsJSON == "" || paramsJSON == "null" {
		adj, err := defaultScenarioParams(input.Type)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(adj)
		if err != nil {
			return nil, fmt.Errorf("encode default params: %w", err)
		}
		paramsJSON = string(encoded)
	} else if _, err := decodeScenarioParams(input.Type, paramsJSON); err != nil {
		return nil, err
	}

	if input.BaseScheduleID != nil {
		if _, err := s.scheduleRepo.GetByID(ctx, clientID, *input.BaseScheduleID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.E(apperr.NotFound, "base schedule %s not found", *input.BaseScheduleID)
			}
			return nil, err
		}
	}

	scenario := &entity.Scenario{
		ClientID:       clientID,
		Name:           input.Name,
		Type:           input.Type,
		BaseScheduleID: input.BaseScheduleID,
		ParamsJSON:     paramsJSON,
		Active:         true,
	}
	if err := s.scenarioRepo.Create(ctx, scenario); err != nil {
		return nil, fmt.Errorf("create scenario: %w", err)
	}

	s.dispatcher.Collect(ctx, event.New(event.ScenarioCreated, clientID, scenario.ID, event.ScenarioPayload{
		ScenarioIDs: []string{scenario.ID},
		Type:        scenario.Type,
		Name:        scenario.Name,
	}))
	return scenario, nil
}

// Run 基线与加载场景增量后的产能各算一遍（均不落分析行），
// 差值即影响；结果快照回写场景行
func (s *ScenarioService) Run(ctx context.Context, clientID, scenarioID string, start, end time.Time) (*ScenarioImpact, error) {
	scenario, err := s.scenarioRepo.GetByID(ctx, clientID, scenarioID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.NotFound, "scenario %s not found", scenarioID)
		}
		return nil, err
	}

	impact, err := s.evaluate(ctx, clientID, scenario, start, end)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(impact)
	if err != nil {
		return nil, fmt.Errorf("encode scenario result: %w", err)
	}
	scenario.ResultJSON = string(encoded)
	if err := s.scenarioRepo.Update(ctx, scenario); err != nil {
		return nil, fmt.Errorf("store scenario result: %w", err)
	}
	return impact, nil
}

// Compare 同期间逐场景评估并排对比
func (s *ScenarioService) Compare(ctx context.Context, clientID string, scenarioIDs []string, start, end time.Time) ([]ScenarioImpact, error) {
	if len(scenarioIDs) < 2 {
		return nil, apperr.E(apperr.Validation, "comparison needs at least two scenarios")
	}

	impacts := make([]ScenarioImpact, 0, len(scenarioIDs))
	for _, id := range scenarioIDs {
		scenario, err := s.scenarioRepo.GetByID(ctx, clientID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.E(apperr.NotFound, "scenario %s not found", id)
			}
			return nil, err
		}
		impact, err := s.evaluate(ctx, clientID, scenario, start, end)
		if err != nil {
			return nil, err
		}
		impacts = append(impacts, *impact)
	}

	s.dispatcher.Collect(ctx, event.New(event.ScenarioCompared, clientID, scenarioIDs[0], event.ScenarioPayload{
		ScenarioIDs: scenarioIDs,
	}))
	return impacts, nil
}

func (s *ScenarioService) Get(ctx context.Context, clientID, id string) (*entity.Scenario, error) {
	scenario, err := s.scenarioRepo.GetByID(ctx, clientID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.NotFound, "scenario %s not found", id)
		}
		return nil, err
	}
	return scenario, nil
}

func (s *ScenarioService) List(ctx context.Context, clientID, scenarioType string, page, pageSize int) ([]entity.Scenario, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.scenarioRepo.List(ctx, clientID, scenarioType, page, pageSize)
}

// DefaultParams 该类型的默认参数JSON，给前端做表单预填
func (s *ScenarioService) DefaultParams(scenarioType string) (json.RawMessage, error) {
	adj, err := defaultScenarioParams(scenarioType)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(adj)
	if err != nil {
		return nil, fmt.Errorf("encode default params: %w", err)
	}
	return encoded, nil
}

func (s *ScenarioService) evaluate(ctx context.Context, clientID string, scenario *entity.Scenario, start, end time.Time) (*ScenarioImpact, error) {
	adj, err := decodeScenarioParams(scenario.Type, scenario.ParamsJSON)
	if err != nil {
		return nil, err
	}

	scheduleID := ""
	if scenario.BaseScheduleID != nil {
		scheduleID = *scenario.BaseScheduleID
	}

	baseline, err := s.capacity.run(ctx, clientID, start, end, nil, scheduleID, nil)
	if err != nil {
		return nil, err
	}
	adjusted, err := s.capacity.run(ctx, clientID, start, end, nil, scheduleID, adj)
	if err != nil {
		return nil, err
	}

	resolved := baseline.BottleneckCount - adjusted.BottleneckCount
	if resolved < 0 {
		resolved = 0
	}
	return &ScenarioImpact{
		ScenarioID:            scenario.ID,
		Name:                  scenario.Name,
		Type:                  scenario.Type,
		PeriodStart:           start,
		PeriodEnd:             end,
		BaselineCapacityHours: baseline.TotalCapacityHours,
		AdjustedCapacityHours: adjusted.TotalCapacityHours,
		CapacityDeltaHours:    adjusted.TotalCapacityHours.Sub(baseline.TotalCapacityHours),
		UtilizationBeforePct:  baseline.OverallUtilizationPct,
		UtilizationAfterPct:   adjusted.OverallUtilizationPct,
		CostImpact:            adj.CostImpact(),
		BottlenecksBefore:     baseline.BottleneckCount,
		BottlenecksAfter:      adjusted.BottleneckCount,
		BottlenecksResolved:   resolved,
	}, nil
}
