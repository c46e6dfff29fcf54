package repository

import (
	"context"

	"github.com/stitchworks/capline/internal/planning/entity"
	"gorm.io/gorm"
)

type LineRepository struct {
	db *gorm.DB
}

func NewLineRepository(db *gorm.DB) *LineRepository {
	return &LineRepository{db: db}
}

// ListActive 取启用产线，lineIDs 为空时取全部
func (r *LineRepository) ListActive(ctx context.Context, clientID string, lineIDs []string) ([]entity.ProductionLine, error) {
	q := r.db.WithContext(ctx).
		Where("client_id = ? AND active = true", clientID)
	if len(lineIDs) > 0 {
		q = q.Where("id IN ?", lineIDs)
	}
	var lines []entity.ProductionLine
	err := q.Order("code").Find(&lines).Error
	return lines, err
}
