package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 物料齐套检查结果状态
const (
	CheckStatusOK       = "OK"
	CheckStatusPartial  = "PARTIAL"
	CheckStatusShortage = "SHORTAGE"
)

// CheckRun 齐套检查运行记录
type CheckRun struct {
	ID                string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID          string     `json:"client_id" gorm:"size:32;not null;index"`
	RunCode           string     `json:"run_code" gorm:"size:50;not null;uniqueIndex"`
	OrdersChecked     int        `json:"orders_checked" gorm:"default:0"`
	ComponentsChecked int        `json:"components_checked" gorm:"default:0"`
	ShortageCount     int        `json:"shortage_count" gorm:"default:0"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (CheckRun) TableName() string {
	return "plan_check_runs"
}

// ComponentCheck 单次检查中每个 (订单, 组件) 的结果行，只追加不改写
type ComponentCheck struct {
	ID            string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID      string          `json:"client_id" gorm:"size:32;not null;index"`
	RunID         string          `json:"run_id" gorm:"type:uuid;not null;index"`
	OrderID       string          `json:"order_id" gorm:"type:uuid;not null;index"`
	ComponentCode string          `json:"component_code" gorm:"size:64;not null"`
	RequiredQty   decimal.Decimal `json:"required_qty" gorm:"type:decimal(14,4);default:0"`
	AvailableQty  decimal.Decimal `json:"available_qty" gorm:"type:decimal(14,4);default:0"`
	ShortageQty   decimal.Decimal `json:"shortage_qty" gorm:"type:decimal(14,4);default:0"`
	Status        string          `json:"status" gorm:"size:10;not null"`
	CheckedAt     time.Time       `json:"checked_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (ComponentCheck) TableName() string {
	return "plan_component_checks"
}
