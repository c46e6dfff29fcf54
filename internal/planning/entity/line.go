package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionLine 生产线主数据
type ProductionLine struct {
	ID                string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID          string          `json:"client_id" gorm:"size:32;not null;uniqueIndex:uq_line_client_code"`
	Code              string          `json:"code" gorm:"size:50;not null;uniqueIndex:uq_line_client_code"`
	Name              string          `json:"name" gorm:"size:128;not null"`
	Department        string          `json:"department" gorm:"size:64"`
	UnitsPerHour      decimal.Decimal `json:"units_per_hour" gorm:"type:decimal(10,2);default:0"` // 名义产能
	MaxOperators      int             `json:"max_operators" gorm:"default:0"`
	EfficiencyFactor  decimal.Decimal `json:"efficiency_factor" gorm:"type:decimal(5,4);default:0.85"`  // 0-1
	AbsenteeismFactor decimal.Decimal `json:"absenteeism_factor" gorm:"type:decimal(5,4);default:0.05"` // 0-1
	Active            bool            `json:"active" gorm:"default:true"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (ProductionLine) TableName() string {
	return "plan_production_lines"
}
