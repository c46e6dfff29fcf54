package repository

import (
	"context"
	"time"

	"github.com/stitchworks/capline/internal/planning/entity"
	"gorm.io/gorm"
)

type CapacityRepository struct {
	db *gorm.DB
}

func NewCapacityRepository(db *gorm.DB) *CapacityRepository {
	return &CapacityRepository{db: db}
}

// BatchCreate 保存一次分析的全部行结果
func (r *CapacityRepository) BatchCreate(ctx context.Context, rows []entity.CapacityAnalysis) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 100).Error
}

// ListByPeriod 取期间内的分析结果，按分析时间倒序保留最近一次
func (r *CapacityRepository) ListByPeriod(ctx context.Context, clientID string, start, end time.Time) ([]entity.CapacityAnalysis, error) {
	var rows []entity.CapacityAnalysis
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND period_start >= ? AND period_end <= ?", clientID, start, end).
		Order("analysis_date DESC, line_code").
		Find(&rows).Error
	return rows, err
}
