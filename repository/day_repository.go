package repository

import (
	"context"
	"errors"
	"fmt"

	"mashrabu/model"

	"gorm.io/gorm"
)

// DayRepository defines day data operations.
type DayRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Day, error)
	ListByEdition(ctx context.Context, editionID int64) ([]*model.DayWithCount, error)
	UpdateTitles(ctx context.Context, id int64, title, titleAr string) error
}

type gormDayRepository struct {
	db *gorm.DB
}

// NewDayRepository creates a GORM-backed DayRepository.
func NewDayRepository(db *gorm.DB) DayRepository {
	return &gormDayRepository{db: db}
}

// GetByID retrieves one day.
func (r *gormDayRepository) GetByID(ctx context.Context, id int64) (*model.Day, error) {
	day := &model.Day{}
	err := r.db.WithContext(ctx).First(day, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day %d: %w", id, err)
	}
	return day, nil
}

// ListByEdition returns an edition's days in programme order, each with its
// track count.
func (r *gormDayRepository) ListByEdition(ctx context.Context, editionID int64) ([]*model.DayWithCount, error) {
	var days []*model.Day
	err := r.db.WithContext(ctx).
		Where("edition_id = ?", editionID).
		Order("number ASC").
		Find(&days).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list days for edition %d: %w", editionID, err)
	}

	out := make([]*model.DayWithCount, 0, len(days))
	for _, day := range days {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&model.Track{}).
			Where("day_id = ?", day.ID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count tracks for day %d: %w", day.ID, err)
		}
		out = append(out, &model.DayWithCount{Day: *day, TrackCount: count})
	}
	return out, nil
}

// UpdateTitles updates a day's display titles.
func (r *gormDayRepository) UpdateTitles(ctx context.Context, id int64, title, titleAr string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Day{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "title_ar": titleAr})
	if res.Error != nil {
		return fmt.Errorf("failed to update day %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
