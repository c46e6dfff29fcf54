package repository

import (
	"context"
	"time"

	"github.com/stitchworks/capline/internal/planning/entity"
	"gorm.io/gorm"
)

type CheckRepository struct {
	db *gorm.DB
}

func NewCheckRepository(db *gorm.DB) *CheckRepository {
	return &CheckRepository{db: db}
}

// SaveRun 一次检查的运行记录与全部结果行同一事务落库；
// 行级结果仅追加，不更新
func (r *CheckRepository) SaveRun(ctx context.Context, run *entity.CheckRun, checks []entity.ComponentCheck) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		for i := range checks {
			checks[i].RunID = run.ID
		}
		if len(checks) == 0 {
			return nil
		}
		return tx.CreateInBatches(checks, 200).Error
	})
}

func (r *CheckRepository) GetRun(ctx context.Context, clientID, id string) (*entity.CheckRun, error) {
	var run entity.CheckRun
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND id = ?", clientID, id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns 分页取检查轮次，按开始时间倒序
func (r *CheckRepository) ListRuns(ctx context.Context, clientID string, page, pageSize int) ([]entity.CheckRun, int64, error) {
	var runs []entity.CheckRun
	var total int64

	q := r.db.WithContext(ctx).Model(&entity.CheckRun{}).Where("client_id = ?", clientID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("started_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&runs).Error
	return runs, total, err
}

func (r *CheckRepository) ListChecksByRun(ctx context.Context, clientID, runID string) ([]entity.ComponentCheck, error) {
	var checks []entity.ComponentCheck
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND run_id = ?", clientID, runID).
		Order("order_id, component_code").
		Find(&checks).Error
	return checks, err
}

// ListShortagesSince 取某时点以来的缺料记录，趋势分析用
func (r *CheckRepository) ListShortagesSince(ctx context.Context, clientID string, since time.Time) ([]entity.ComponentCheck, error) {
	var checks []entity.ComponentCheck
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND status = ? AND checked_at >= ?",
			clientID, entity.CheckStatusShortage, since).
		Order("checked_at").
		Find(&checks).Error
	return checks, err
}
