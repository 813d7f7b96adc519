package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// LiveClassRepository persists scheduled live sessions.
type LiveClassRepository interface {
	Create(ctx context.Context, liveClass *models.LiveClass) error
	ListByBatches(ctx context.Context, batchIDs []uint) ([]models.LiveClass, error)
}

type liveClassRepository struct {
	db *gorm.DB
}

// NewLiveClassRepository instantiates the repository.
func NewLiveClassRepository(db *gorm.DB) LiveClassRepository {
	return &liveClassRepository{db: db}
}

func (r *liveClassRepository) Create(ctx context.Context, liveClass *models.LiveClass) error {
	return r.db.WithContext(ctx).Create(liveClass).Error
}

func (r *liveClassRepository) ListByBatches(ctx context.Context, batchIDs []uint) ([]models.LiveClass, error) {
	var classes []models.LiveClass
	if len(batchIDs) == 0 {
		return classes, nil
	}
	if err := r.db.WithContext(ctx).
		Where("batch_id IN ?", batchIDs).
		Order("scheduled_time ASC").
		Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}
