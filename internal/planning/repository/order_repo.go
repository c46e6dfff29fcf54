package repository

import (
	"context"
	"time"

	"github.com/stitchworks/capline/internal/planning/entity"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) GetByID(ctx context.Context, clientID, id string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND id = ?", clientID, id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByIDs 按ID集取订单；ids 为空时取租户全部订单
func (r *OrderRepository) ListByIDs(ctx context.Context, clientID string, ids []string) ([]entity.Order, error) {
	q := r.db.WithContext(ctx).Where("client_id = ?", clientID)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	var orders []entity.Order
	err := q.Order("required_date").Find(&orders).Error
	return orders, err
}

// ListByStatus 按状态集取订单
func (r *OrderRepository) ListByStatus(ctx context.Context, clientID string, statuses []string) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND status IN ?", clientID, statuses).
		Order("required_date").
		Find(&orders).Error
	return orders, err
}

// ListCompletedBetween 取期间内完结的订单，准交率计算用
func (r *OrderRepository) ListCompletedBetween(ctx context.Context, clientID string, start, end time.Time) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND status = ? AND completed_at >= ? AND completed_at <= ?",
			clientID, entity.OrderStatusCompleted, start, end).
		Find(&orders).Error
	return orders, err
}
