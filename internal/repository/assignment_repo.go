package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	ModuleIDs []uint
	BatchIDs  []uint
	CreatedBy *uint
}

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error)
	Delete(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}
	return assignment, nil
}

// List returns nothing when a slice filter is set but empty.
func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if (filter.ModuleIDs != nil && len(filter.ModuleIDs) == 0) || (filter.BatchIDs != nil && len(filter.BatchIDs) == 0) {
		return assignments, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Assignment{})
	if len(filter.ModuleIDs) > 0 {
		query = query.Where("module_id IN ?", filter.ModuleIDs)
	}
	if len(filter.BatchIDs) > 0 {
		query = query.Where("batch_id IN ?", filter.BatchIDs)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}

	if err := query.Order("due_date ASC").Order("id ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Assignment{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return deleteAssignments(tx, []uint{id})
	})
}
