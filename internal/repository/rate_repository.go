package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"parking-service/internal/model"
)

type RateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) *RateRepository {
	return &RateRepository{db: db}
}

// Latest returns the newest rate revision, or nil when none was ever saved.
func (r *RateRepository) Latest(ctx context.Context) (*model.RateSettings, error) {
	var settings model.RateSettings
	err := r.db.WithContext(ctx).Order("created_at DESC").First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *RateRepository) Create(ctx context.Context, settings *model.RateSettings) error {
	return r.db.WithContext(ctx).Create(settings).Error
}
