package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionStandard 工序标准工时（SAM），按 (租户, 款式, 工序) 唯一
type ProductionStandard struct {
	ID         string           `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID   string           `json:"client_id" gorm:"size:32;not null;uniqueIndex:uq_standard_client_style_op"`
	Style      string           `json:"style" gorm:"size:64;not null;uniqueIndex:uq_standard_client_style_op"`
	Operation  string           `json:"operation" gorm:"size:64;not null;uniqueIndex:uq_standard_client_style_op"`
	SAM        decimal.Decimal  `json:"sam" gorm:"type:decimal(10,4);not null"` // 标准分钟
	SetupSAM   *decimal.Decimal `json:"setup_sam" gorm:"type:decimal(10,4)"`
	MachineSAM *decimal.Decimal `json:"machine_sam" gorm:"type:decimal(10,4)"`
	ManualSAM  *decimal.Decimal `json:"manual_sam" gorm:"type:decimal(10,4)"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (ProductionStandard) TableName() string {
	return "plan_production_standards"
}

// TotalSAM 款式总SAM = 各工序SAM之和
func TotalSAM(standards []ProductionStandard) decimal.Decimal {
	total := decimal.Zero
	for _, s := range standards {
		total = total.Add(s.SAM)
	}
	return total
}
