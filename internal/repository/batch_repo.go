package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// BatchRepository persists batches.
type BatchRepository interface {
	Create(ctx context.Context, batch *models.Batch) error
	GetByID(ctx context.Context, id uint) (models.Batch, error)
	List(ctx context.Context, courseID *uint) ([]models.Batch, error)
	Update(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id uint) error
}

type batchRepository struct {
	db *gorm.DB
}

// NewBatchRepository instantiates the repository.
func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) Create(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Omit("Course").Create(batch).Error
}

func (r *batchRepository) GetByID(ctx context.Context, id uint) (models.Batch, error) {
	var batch models.Batch
	if err := r.db.WithContext(ctx).Preload("Course").First(&batch, id).Error; err != nil {
		return models.Batch{}, err
	}
	return batch, nil
}

func (r *batchRepository) List(ctx context.Context, courseID *uint) ([]models.Batch, error) {
	query := r.db.WithContext(ctx).Preload("Course")
	if courseID != nil {
		query = query.Where("course_id = ?", *courseID)
	}

	var batches []models.Batch
	if err := query.Order("id ASC").Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *batchRepository) Update(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Omit("Course").Save(batch).Error
}

func (r *batchRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Batch{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return deleteBatches(tx, []uint{id})
	})
}
