package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMHeader 物料清单头：父件 + 款式关联，激活的版本唯一生效
type BOMHeader struct {
	ID             string      `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID       string      `json:"client_id" gorm:"size:32;not null;index"`
	ParentItemCode string      `json:"parent_item_code" gorm:"size:64;not null;index"`
	Style          string      `json:"style" gorm:"size:64;index"`
	Revision       string      `json:"revision" gorm:"size:16;default:A"`
	Active         bool        `json:"active" gorm:"default:true"`
	Details        []BOMDetail `json:"details,omitempty" gorm:"foreignKey:BOMHeaderID"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (BOMHeader) TableName() string {
	return "plan_bom_headers"
}

// BOMDetail 物料清单行项
type BOMDetail struct {
	ID            string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BOMHeaderID   string          `json:"bom_header_id" gorm:"type:uuid;not null;index"`
	ComponentCode string          `json:"component_code" gorm:"size:64;not null"`
	QuantityPer   decimal.Decimal `json:"quantity_per" gorm:"type:decimal(12,4);not null"` // 单件用量
	WastePct      decimal.Decimal `json:"waste_pct" gorm:"type:decimal(6,3);default:0"`    // 损耗率 %
	Unit          string          `json:"unit" gorm:"size:16;default:pcs"`
	Category      string          `json:"category" gorm:"size:32"` // FABRIC/TRIM/PACKING...
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (BOMDetail) TableName() string {
	return "plan_bom_details"
}

// NetQuantity 净需求 = 毛需求 × (1 + 损耗率/100)
func (d BOMDetail) NetQuantity(gross decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(d.WastePct.Div(decimal.NewFromInt(100)))
	return gross.Mul(factor)
}
