package service

import (
	"github.com/shopspring/decimal"
	"github.com/stitchworks/capline/internal/planning/event"
	"github.com/stitchworks/capline/internal/planning/repository"
	"go.uber.org/zap"
)

// Config 计划引擎可调参数
type Config struct {
	BottleneckThresholdPct decimal.Decimal // 瓶颈判定阈值，默认95
	VarianceThresholdPct   decimal.Decimal // KPI差异告警阈值，默认10
	DefaultEfficiency      decimal.Decimal // 产线效率缺省值，效率未配置时生效
}

func DefaultConfig() Config {
	return Config{
		BottleneckThresholdPct: decimal.NewFromInt(95),
		VarianceThresholdPct:   decimal.NewFromInt(10),
		DefaultEfficiency:      decimal.NewFromFloat(0.85),
	}
}

// Services 计划引擎服务集合
type Services struct {
	BOM      *BOMService
	Material *MaterialCheckService
	Capacity *CapacityService
	Schedule *ScheduleService
	Scenario *ScenarioService
	KPI      *KPIService
	Planning *PlanningService
}

func NewServices(repos *repository.Repositories, dispatcher event.Collector, cfg Config, logger *zap.Logger) *Services {
	bom := NewBOMService(repos.BOM, dispatcher)
	material := NewMaterialCheckService(bom, repos.Order, repos.Stock, repos.Check, dispatcher, logger)
	capacity := NewCapacityService(repos.Calendar, repos.Line, repos.Standard, repos.Order, repos.Schedule, repos.Capacity, dispatcher, cfg)
	kpi := NewKPIService(repos.KPI, repos.Schedule, repos.Order, dispatcher, cfg)
	schedule := NewScheduleService(repos.Calendar, repos.Line, repos.Standard, repos.Order, repos.Schedule, dispatcher, cfg, logger)
	scenario := NewScenarioService(repos.Scenario, repos.Schedule, capacity, dispatcher)
	planning := NewPlanningService(capacity, schedule, kpi, repos.Scenario, repos.Check)

	return &Services{
		BOM:      bom,
		Material: material,
		Capacity: capacity,
		Schedule: schedule,
		Scenario: scenario,
		KPI:      kpi,
		Planning: planning,
	}
}
