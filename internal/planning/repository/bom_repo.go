package repository

import (
	"context"

	"github.com/stitchworks/capline/internal/planning/entity"
	"gorm.io/gorm"
)

type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

// ActiveHeaderByItem 取父件当前激活BOM（含行项），找不到返回 gorm.ErrRecordNotFound
func (r *BOMRepository) ActiveHeaderByItem(ctx context.Context, clientID, parentItemCode string) (*entity.BOMHeader, error) {
	var header entity.BOMHeader
	err := r.db.WithContext(ctx).
		Preload("Details").
		Where("client_id = ? AND parent_item_code = ? AND active = true", clientID, parentItemCode).
		Order("created_at DESC").
		First(&header).Error
	if err != nil {
		return nil, err
	}
	return &header, nil
}

// ActiveHeaderByStyle 按款式取激活BOM（含行项）
func (r *BOMRepository) ActiveHeaderByStyle(ctx context.Context, clientID, style string) (*entity.BOMHeader, error) {
	var header entity.BOMHeader
	err := r.db.WithContext(ctx).
		Preload("Details").
		Where("client_id = ? AND style = ? AND active = true", clientID, style).
		Order("created_at DESC").
		First(&header).Error
	if err != nil {
		return nil, err
	}
	return &header, nil
}

func (r *BOMRepository) Create(ctx context.Context, header *entity.BOMHeader) error {
	return r.db.WithContext(ctx).Create(header).Error
}
