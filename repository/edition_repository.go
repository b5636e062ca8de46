package repository

import (
	"context"
	"errors"
	"fmt"

	"mashrabu/model"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// EditionRepository defines edition data operations.
type EditionRepository interface {
	ListActive(ctx context.Context) ([]*model.Edition, error)
	ListAll(ctx context.Context) ([]*model.Edition, error)
	GetByYear(ctx context.Context, year int) (*model.Edition, error)
	CreateWithDays(ctx context.Context, edition *model.Edition, days []*model.Day) error
	DeleteCascade(ctx context.Context, editionID int64) error
}

type gormEditionRepository struct {
	db *gorm.DB
}

// NewEditionRepository creates a GORM-backed EditionRepository.
func NewEditionRepository(db *gorm.DB) EditionRepository {
	return &gormEditionRepository{db: db}
}

// ListActive returns active editions, newest year first.
func (r *gormEditionRepository) ListActive(ctx context.Context) ([]*model.Edition, error) {
	var editions []*model.Edition
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("year DESC").
		Find(&editions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active editions: %w", err)
	}
	return editions, nil
}

// ListAll returns every edition, newest year first.
func (r *gormEditionRepository) ListAll(ctx context.Context) ([]*model.Edition, error) {
	var editions []*model.Edition
	err := r.db.WithContext(ctx).Order("year DESC").Find(&editions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list editions: %w", err)
	}
	return editions, nil
}

// GetByYear looks an edition up by its year.
func (r *gormEditionRepository) GetByYear(ctx context.Context, year int) (*model.Edition, error) {
	edition := &model.Edition{}
	err := r.db.WithContext(ctx).Where("year = ?", year).First(edition).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get edition for year %d: %w", year, err)
	}
	return edition, nil
}

// CreateWithDays inserts the edition and its generated days in one
// transaction, so a half-created edition never becomes visible.
func (r *gormEditionRepository) CreateWithDays(ctx context.Context, edition *model.Edition, days []*model.Day) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(edition).Error; err != nil {
			return fmt.Errorf("failed to create edition: %w", err)
		}
		for _, day := range days {
			day.EditionID = edition.ID
		}
		if len(days) > 0 {
			if err := tx.Create(&days).Error; err != nil {
				return fmt.Errorf("failed to create days: %w", err)
			}
		}
		return nil
	})
}

// DeleteCascade removes an edition together with its days and their tracks.
func (r *gormEditionRepository) DeleteCascade(ctx context.Context, editionID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dayIDs []int64
		if err := tx.Model(&model.Day{}).
			Where("edition_id = ?", editionID).
			Pluck("id", &dayIDs).Error; err != nil {
			return fmt.Errorf("failed to collect day ids: %w", err)
		}
		if len(dayIDs) > 0 {
			if err := tx.Where("day_id IN ?", dayIDs).Delete(&model.Track{}).Error; err != nil {
				return fmt.Errorf("failed to delete tracks: %w", err)
			}
			if err := tx.Where("edition_id = ?", editionID).Delete(&model.Day{}).Error; err != nil {
				return fmt.Errorf("failed to delete days: %w", err)
			}
		}
		if err := tx.Delete(&model.Edition{}, editionID).Error; err != nil {
			return fmt.Errorf("failed to delete edition: %w", err)
		}
		return nil
	})
}
