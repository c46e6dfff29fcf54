package repository

import (
	"context"
	"time"

	"github.com/stitchworks/capline/internal/planning/entity"
	"gorm.io/gorm"
)

type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create 连明细一起落库
func (r *ScheduleRepository) Create(ctx context.Context, schedule *entity.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

// CreateWithOrders 建排程并把已排订单置为目标状态，同一事务内完成
func (r *ScheduleRepository) CreateWithOrders(ctx context.Context, schedule *entity.Schedule, orderIDs []string, orderStatus string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(schedule).Error; err != nil {
			return err
		}
		if len(orderIDs) == 0 {
			return nil
		}
		return tx.Model(&entity.Order{}).
			Where("client_id = ? AND id IN ?", schedule.ClientID, orderIDs).
			Update("status", orderStatus).Error
	})
}

func (r *ScheduleRepository) GetByID(ctx context.Context, clientID, id string) (*entity.Schedule, error) {
	var schedule entity.Schedule
	err := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("scheduled_date, sequence")
		}).
		Where("client_id = ? AND id = ?", clientID, id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// List 分页取排程，按创建时间倒序
func (r *ScheduleRepository) List(ctx context.Context, clientID, status string, page, pageSize int) ([]entity.Schedule, int64, error) {
	var schedules []entity.Schedule
	var total int64

	q := r.db.WithContext(ctx).Model(&entity.Schedule{}).Where("client_id = ?", clientID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&schedules).Error
	return schedules, total, err
}

// UpdateStatusCAS 按当前状态条件更新，返回是否真正生效。
// 并发提交同一排程时只有一个调用方能赢得状态迁移。
func (r *ScheduleRepository) UpdateStatusCAS(ctx context.Context, clientID, id, fromStatus string, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Schedule{}).
		Where("client_id = ? AND id = ? AND status = ?", clientID, id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CommitWithKPIs 排程提交：条件状态更新与KPI承诺行写入同一事务，
// 抢不到状态迁移时整个事务不留痕迹
func (r *ScheduleRepository) CommitWithKPIs(ctx context.Context, clientID, id, fromStatus string, updates map[string]interface{}, commitments []entity.KPICommitment) (bool, error) {
	won := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Schedule{}).
			Where("client_id = ? AND id = ? AND status = ?", clientID, id, fromStatus).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		won = true
		if len(commitments) == 0 {
			return nil
		}
		return tx.Create(&commitments).Error
	})
	return won, err
}

// DetailsByPeriodLines 取已提交/生效排程在期间内占用产线的明细，负荷计算用。
// 租户过滤走排程头，明细行不带租户列。
func (r *ScheduleRepository) DetailsByPeriodLines(ctx context.Context, clientID string, lineIDs []string, start, end time.Time) ([]entity.ScheduleDetail, error) {
	q := r.db.WithContext(ctx).
		Model(&entity.ScheduleDetail{}).
		Select("plan_schedule_details.*").
		Joins("JOIN plan_schedules ON plan_schedules.id = plan_schedule_details.schedule_id").
		Where("plan_schedules.client_id = ?", clientID).
		Where("plan_schedules.status IN ?", []string{entity.ScheduleStatusCommitted, entity.ScheduleStatusActive}).
		Where("plan_schedule_details.scheduled_date >= ? AND plan_schedule_details.scheduled_date <= ?", start, end)
	if len(lineIDs) > 0 {
		q = q.Where("plan_schedule_details.line_id IN ?", lineIDs)
	}
	var details []entity.ScheduleDetail
	err := q.Find(&details).Error
	return details, err
}
