package repository

import (
	"context"

	"github.com/stitchworks/capline/internal/planning/entity"
	"gorm.io/gorm"
)

type ScenarioRepository struct {
	db *gorm.DB
}

func NewScenarioRepository(db *gorm.DB) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

func (r *ScenarioRepository) Create(ctx context.Context, scenario *entity.Scenario) error {
	return r.db.WithContext(ctx).Create(scenario).Error
}

func (r *ScenarioRepository) GetByID(ctx context.Context, clientID, id string) (*entity.Scenario, error) {
	var scenario entity.Scenario
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND id = ?", clientID, id).
		First(&scenario).Error
	if err != nil {
		return nil, err
	}
	return &scenario, nil
}

// List 按类型过滤取场景，倒序
func (r *ScenarioRepository) List(ctx context.Context, clientID, scenarioType string, page, pageSize int) ([]entity.Scenario, int64, error) {
	var scenarios []entity.Scenario
	var total int64

	q := r.db.WithContext(ctx).Model(&entity.Scenario{}).Where("client_id = ?", clientID)
	if scenarioType != "" {
		q = q.Where("type = ?", scenarioType)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&scenarios).Error
	return scenarios, total, err
}

func (r *ScenarioRepository) Update(ctx context.Context, scenario *entity.Scenario) error {
	return r.db.WithContext(ctx).Save(scenario).Error
}
