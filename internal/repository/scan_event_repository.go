package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"parking-service/internal/model"
)

const createBatchSize = 500

type ScanEventRepository struct {
	db *gorm.DB
}

func NewScanEventRepository(db *gorm.DB) *ScanEventRepository {
	return &ScanEventRepository{db: db}
}

func (r *ScanEventRepository) Create(ctx context.Context, event *model.ScanEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// CreateBatch stores events in one transaction, preserving slice order as
// arrival order.
func (r *ScanEventRepository) CreateBatch(ctx context.Context, events []model.ScanEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&events, createBatchSize).Error
	})
}

// ListAll returns every stored event in arrival order.
func (r *ScanEventRepository) ListAll(ctx context.Context) ([]model.ScanEvent, error) {
	var events []model.ScanEvent
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// ExistingSourceKeys returns which of keys are already stored.
func (r *ScanEventRepository) ExistingSourceKeys(ctx context.Context, keys []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(keys) == 0 {
		return existing, nil
	}

	for start := 0; start < len(keys); start += createBatchSize {
		end := start + createBatchSize
		if end > len(keys) {
			end = len(keys)
		}

		var found []string
		if err := r.db.WithContext(ctx).
			Model(&model.ScanEvent{}).
			Where("source_key IN ?", keys[start:end]).
			Pluck("source_key", &found).Error; err != nil {
			return nil, err
		}
		for _, k := range found {
			existing[k] = struct{}{}
		}
	}
	return existing, nil
}

func (r *ScanEventRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ScanEvent{}).Count(&count).Error
	return count, err
}

// DeleteOlderThan removes events received before cutoff and reports how
// many rows went.
func (r *ScanEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.ScanEvent{})
	return result.RowsAffected, result.Error
}
