package repository

import (
	"context"

	"github.com/stitchworks/capline/internal/planning/entity"
	"gorm.io/gorm"
)

type StandardRepository struct {
	db *gorm.DB
}

func NewStandardRepository(db *gorm.DB) *StandardRepository {
	return &StandardRepository{db: db}
}

// ListByStyles 批量取多个款式的标准工时
func (r *StandardRepository) ListByStyles(ctx context.Context, clientID string, styles []string) ([]entity.ProductionStandard, error) {
	if len(styles) == 0 {
		return nil, nil
	}
	var standards []entity.ProductionStandard
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND style IN ?", clientID, styles).
		Find(&standards).Error
	return standards, err
}
