package repository

import (
	"context"
	"time"

	"github.com/stitchworks/capline/internal/planning/entity"
	"gorm.io/gorm"
)

type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// ListBetween 取期间内日历，按日期升序
func (r *CalendarRepository) ListBetween(ctx context.Context, clientID string, start, end time.Time) ([]entity.CalendarEntry, error) {
	var entries []entity.CalendarEntry
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND date >= ? AND date <= ?", clientID, start, end).
		Order("date").
		Find(&entries).Error
	return entries, err
}

func (r *CalendarRepository) Upsert(ctx context.Context, e *entity.CalendarEntry) error {
	return r.db.WithContext(ctx).Save(e).Error
}
