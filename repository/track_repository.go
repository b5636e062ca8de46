package repository

import (
	"context"
	"errors"
	"fmt"

	"mashrabu/model"

	"gorm.io/gorm"
)

// TrackRepository defines track data operations.
type TrackRepository interface {
	Create(ctx context.Context, track *model.Track) error
	GetByID(ctx context.Context, id int64) (*model.Track, error)
	ListByDay(ctx context.Context, dayID int64) ([]*model.Track, error)
	CountByDay(ctx context.Context, dayID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type gormTrackRepository struct {
	db *gorm.DB
}

// NewTrackRepository creates a GORM-backed TrackRepository.
func NewTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// Create inserts a new track record.
func (r *gormTrackRepository) Create(ctx context.Context, track *model.Track) error {
	if err := r.db.WithContext(ctx).Create(track).Error; err != nil {
		return fmt.Errorf("failed to create track: %w", err)
	}
	return nil
}

// GetByID retrieves one track.
func (r *gormTrackRepository) GetByID(ctx context.Context, id int64) (*model.Track, error) {
	track := &model.Track{}
	err := r.db.WithContext(ctx).First(track, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track %d: %w", id, err)
	}
	return track, nil
}

// ListByDay returns a day's tracks in curation order.
func (r *gormTrackRepository) ListByDay(ctx context.Context, dayID int64) ([]*model.Track, error) {
	tracks := make([]*model.Track, 0)
	err := r.db.WithContext(ctx).
		Where("day_id = ?", dayID).
		Order("position ASC").
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks for day %d: %w", dayID, err)
	}
	return tracks, nil
}

// CountByDay counts a day's tracks.
func (r *gormTrackRepository) CountByDay(ctx context.Context, dayID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Track{}).
		Where("day_id = ?", dayID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks for day %d: %w", dayID, err)
	}
	return count, nil
}

// Delete removes a track record.
func (r *gormTrackRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Track{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete track %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
