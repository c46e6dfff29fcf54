package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 订单状态
const (
	OrderStatusDraft      = "DRAFT"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusScheduled  = "SCHEDULED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

// 订单优先级
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Order 客户订单
type Order struct {
	ID           string           `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClientID     string           `json:"client_id" gorm:"size:32;not null;uniqueIndex:uq_order_client_number"`
	OrderNumber  string           `json:"order_number" gorm:"size:50;not null;uniqueIndex:uq_order_client_number"`
	Style        string           `json:"style" gorm:"size:64;not null;index"`
	Quantity     decimal.Decimal  `json:"quantity" gorm:"type:decimal(12,2);not null"`
	RequiredDate time.Time        `json:"required_date" gorm:"type:date;not null"`
	Priority     string           `json:"priority" gorm:"size:10;not null;default:NORMAL"`
	Status       string           `json:"status" gorm:"size:20;not null;default:DRAFT;index"`
	SAMOverride  *decimal.Decimal `json:"sam_override" gorm:"type:decimal(10,4)"` // 覆盖款式SAM
	CompletedAt  *time.Time       `json:"completed_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (Order) TableName() string {
	return "plan_orders"
}

var orderTransitions = map[string][]string{
	OrderStatusDraft:      {OrderStatusConfirmed, OrderStatusScheduled, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusScheduled, OrderStatusCancelled},
	OrderStatusScheduled:  {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransition 订单状态迁移校验
func (o Order) CanTransition(to string) bool {
	for _, s := range orderTransitions[o.Status] {
		if s == to {
			return true
		}
	}
	return false
}

// PriorityRank 优先级排序权重，越大越优先
func PriorityRank(priority string) int {
	switch priority {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}
