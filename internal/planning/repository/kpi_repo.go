package repository

import (
	"context"
	"time"

	"github.com/stitchworks/capline/internal/planning/entity"
	"gorm.io/gorm"
)

type KPIRepository struct {
	db *gorm.DB
}

func NewKPIRepository(db *gorm.DB) *KPIRepository {
	return &KPIRepository{db: db}
}

// BatchCreateCommitments 排程提交时一次写入全部指标承诺
func (r *KPIRepository) BatchCreateCommitments(ctx context.Context, commitments []entity.KPICommitment) error {
	if len(commitments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&commitments).Error
}

func (r *KPIRepository) ListBySchedule(ctx context.Context, clientID, scheduleID string) ([]entity.KPICommitment, error) {
	var commitments []entity.KPICommitment
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND schedule_id = ?", clientID, scheduleID).
		Order("kpi_key").
		Find(&commitments).Error
	return commitments, err
}

func (r *KPIRepository) UpdateCommitment(ctx context.Context, commitment *entity.KPICommitment) error {
	return r.db.WithContext(ctx).Save(commitment).Error
}

// ListByPeriods 取多个期间的承诺记录，历史趋势用
func (r *KPIRepository) ListByPeriods(ctx context.Context, clientID, kpiKey string, limit int) ([]entity.KPICommitment, error) {
	var commitments []entity.KPICommitment
	q := r.db.WithContext(ctx).
		Where("client_id = ? AND kpi_key = ?", clientID, kpiKey).
		Order("period_start DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&commitments).Error
	return commitments, err
}

// ListProductionRecords 取期间内产线实绩
func (r *KPIRepository) ListProductionRecords(ctx context.Context, clientID string, lineIDs []string, start, end time.Time) ([]entity.ProductionRecord, error) {
	q := r.db.WithContext(ctx).
		Where("client_id = ? AND record_date >= ? AND record_date <= ?", clientID, start, end)
	if len(lineIDs) > 0 {
		q = q.Where("line_id IN ?", lineIDs)
	}
	var records []entity.ProductionRecord
	err := q.Order("record_date").Find(&records).Error
	return records, err
}
