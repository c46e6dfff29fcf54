package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockSnapshot 库存快照：按日期逐条累积，取同物料最新一条为当前库存
type StockSnapshot struct {
	ID           string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID     string          `json:"client_id" gorm:"size:32;not null;index:idx_stock_client_item"`
	ItemCode     string          `json:"item_code" gorm:"size:64;not null;index:idx_stock_client_item"`
	SnapshotDate time.Time       `json:"snapshot_date" gorm:"type:date;not null;index"`
	OnHandQty    decimal.Decimal `json:"on_hand_qty" gorm:"type:decimal(14,4);default:0"`
	AllocatedQty decimal.Decimal `json:"allocated_qty" gorm:"type:decimal(14,4);default:0"`
	OnOrderQty   decimal.Decimal `json:"on_order_qty" gorm:"type:decimal(14,4);default:0"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (StockSnapshot) TableName() string {
	return "plan_stock_snapshots"
}

// Available 可用量 = 在手 − 已分配 + 在途
func (s StockSnapshot) Available() decimal.Decimal {
	return s.OnHandQty.Sub(s.AllocatedQty).Add(s.OnOrderQty)
}
