package repository

import (
	"context"

	"github.com/stitchworks/capline/internal/planning/entity"
	"gorm.io/gorm"
)

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

// LatestByItems 取每个物料最大日期的快照
func (r *StockRepository) LatestByItems(ctx context.Context, clientID string, itemCodes []string) (map[string]entity.StockSnapshot, error) {
	result := make(map[string]entity.StockSnapshot)
	if len(itemCodes) == 0 {
		return result, nil
	}
	var snapshots []entity.StockSnapshot
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (item_code) *
			FROM plan_stock_snapshots
			WHERE client_id = ? AND item_code IN ?
			ORDER BY item_code, snapshot_date DESC, created_at DESC`,
			clientID, itemCodes).
		Scan(&snapshots).Error
	if err != nil {
		return nil, err
	}
	for _, s := range snapshots {
		result[s.ItemCode] = s
	}
	return result, nil
}

func (r *StockRepository) Create(ctx context.Context, snapshot *entity.StockSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}
