package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CapacityAnalysis 单条产线产能分析结果（12步计算的输入与输出）
type CapacityAnalysis struct {
	ID                string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID          string          `json:"client_id" gorm:"size:32;not null;index"`
	LineID            string          `json:"line_id" gorm:"type:uuid;not null;index"`
	LineCode          string          `json:"line_code" gorm:"size:50"`
	PeriodStart       time.Time       `json:"period_start" gorm:"type:date;not null"`
	PeriodEnd         time.Time       `json:"period_end" gorm:"type:date;not null"`
	AnalysisDate      time.Time       `json:"analysis_date" gorm:"not null;index"`
	WorkingDays       int             `json:"working_days" gorm:"default:0"`
	ShiftsPerDay      decimal.Decimal `json:"shifts_per_day" gorm:"type:decimal(5,2);default:1"`
	HoursPerShift     decimal.Decimal `json:"hours_per_shift" gorm:"type:decimal(5,2);default:8"`
	GrossHours        decimal.Decimal `json:"gross_hours" gorm:"type:decimal(12,4);default:0"`
	Operators         int             `json:"operators" gorm:"default:0"`
	EfficiencyFactor  decimal.Decimal `json:"efficiency_factor" gorm:"type:decimal(5,4);default:0.85"`
	AbsenteeismFactor decimal.Decimal `json:"absenteeism_factor" gorm:"type:decimal(5,4);default:0.05"`
	NetHours          decimal.Decimal `json:"net_hours" gorm:"type:decimal(12,4);default:0"`
	CapacityHours     decimal.Decimal `json:"capacity_hours" gorm:"type:decimal(12,4);default:0"`
	DemandHours       decimal.Decimal `json:"demand_hours" gorm:"type:decimal(12,4);default:0"`
	DemandUnits       decimal.Decimal `json:"demand_units" gorm:"type:decimal(12,2);default:0"`
	UtilizationPct    decimal.Decimal `json:"utilization_pct" gorm:"type:decimal(7,2);default:0"`
	IsBottleneck      bool            `json:"is_bottleneck" gorm:"default:false"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (CapacityAnalysis) TableName() string {
	return "plan_capacity_analyses"
}
