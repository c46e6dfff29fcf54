package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 标准KPI键
const (
	KPIEfficiency  = "efficiency"
	KPIPerformance = "performance"
	KPIQualityRate = "quality_rate"
	KPIOnTimeRate  = "on_time_delivery"
	KPIUtilization = "utilization"
	KPIOEE         = "oee"
	KPIOutput      = "total_output"
)

// KPI差异分级
const (
	VarianceOnTarget = "on_target"
	VarianceWarning  = "warning"
	VarianceCritical = "critical"
)

// KPICommitment 排产计划承诺的KPI目标及后续回填的实际值
type KPICommitment struct {
	ID             string           `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID       string           `json:"client_id" gorm:"size:32;not null;index"`
	ScheduleID     string           `json:"schedule_id" gorm:"type:uuid;not null;index"`
	KPIKey         string           `json:"kpi_key" gorm:"size:32;not null"`
	CommittedValue decimal.Decimal  `json:"committed_value" gorm:"type:decimal(14,4);not null"`
	ActualValue    *decimal.Decimal `json:"actual_value" gorm:"type:decimal(14,4)"`
	Variance       *decimal.Decimal `json:"variance" gorm:"type:decimal(14,4)"`
	VariancePct    *decimal.Decimal `json:"variance_pct" gorm:"type:decimal(9,2)"`
	PeriodStart    time.Time        `json:"period_start" gorm:"type:date;not null"`
	PeriodEnd      time.Time        `json:"period_end" gorm:"type:date;not null"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (KPICommitment) TableName() string {
	return "plan_kpi_commitments"
}

// ProductionRecord 产线日实绩，KPI实际值的数据来源
type ProductionRecord struct {
	ID              string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID        string          `json:"client_id" gorm:"size:32;not null;index"`
	LineID          string          `json:"line_id" gorm:"type:uuid;not null;index"`
	RecordDate      time.Time       `json:"record_date" gorm:"type:date;not null;index"`
	UnitsProduced   decimal.Decimal `json:"units_produced" gorm:"type:decimal(12,2);default:0"`
	DefectUnits     decimal.Decimal `json:"defect_units" gorm:"type:decimal(12,2);default:0"`
	ScrapUnits      decimal.Decimal `json:"scrap_units" gorm:"type:decimal(12,2);default:0"`
	RunMinutes      decimal.Decimal `json:"run_minutes" gorm:"type:decimal(12,2);default:0"`
	DowntimeMinutes decimal.Decimal `json:"downtime_minutes" gorm:"type:decimal(12,2);default:0"`
	SetupMinutes    decimal.Decimal `json:"setup_minutes" gorm:"type:decimal(12,2);default:0"`
	EfficiencyPct   decimal.Decimal `json:"efficiency_pct" gorm:"type:decimal(7,2);default:0"`
	PerformancePct  decimal.Decimal `json:"performance_pct" gorm:"type:decimal(7,2);default:0"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (ProductionRecord) TableName() string {
	return "plan_production_records"
}
