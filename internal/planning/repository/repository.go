package repository

import "gorm.io/gorm"

// Repositories 计划引擎仓库集合
type Repositories struct {
	Calendar *CalendarRepository
	Line     *LineRepository
	Standard *StandardRepository
	BOM      *BOMRepository
	Stock    *StockRepository
	Order    *OrderRepository
	Check    *CheckRepository
	Capacity *CapacityRepository
	Schedule *ScheduleRepository
	Scenario *ScenarioRepository
	KPI      *KPIRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Calendar: NewCalendarRepository(db),
		Line:     NewLineRepository(db),
		Standard: NewStandardRepository(db),
		BOM:      NewBOMRepository(db),
		Stock:    NewStockRepository(db),
		Order:    NewOrderRepository(db),
		Check:    NewCheckRepository(db),
		Capacity: NewCapacityRepository(db),
		Schedule: NewScheduleRepository(db),
		Scenario: NewScenarioRepository(db),
		KPI:      NewKPIRepository(db),
	}
}
