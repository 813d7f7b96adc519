package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// LessonCompletionRepository persists lesson completion records.
type LessonCompletionRepository interface {
	Upsert(ctx context.Context, completion *models.LessonCompletion) error
	Get(ctx context.Context, studentID, lessonID uint) (models.LessonCompletion, error)
	CompletedLessonIDs(ctx context.Context, studentID uint, lessonIDs []uint) ([]uint, error)
}

type lessonCompletionRepository struct {
	db *gorm.DB
}

// NewLessonCompletionRepository instantiates the repository.
func NewLessonCompletionRepository(db *gorm.DB) LessonCompletionRepository {
	return &lessonCompletionRepository{db: db}
}

func (r *lessonCompletionRepository) Upsert(ctx context.Context, completion *models.LessonCompletion) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_completed", "completed_at", "updated_at"}),
	}).Create(completion).Error
}

func (r *lessonCompletionRepository) Get(ctx context.Context, studentID, lessonID uint) (models.LessonCompletion, error) {
	var completion models.LessonCompletion
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND lesson_id = ?", studentID, lessonID).
		First(&completion).Error; err != nil {
		return models.LessonCompletion{}, err
	}
	return completion, nil
}

func (r *lessonCompletionRepository) CompletedLessonIDs(ctx context.Context, studentID uint, lessonIDs []uint) ([]uint, error) {
	var ids []uint
	if len(lessonIDs) == 0 {
		return ids, nil
	}
	if err := r.db.WithContext(ctx).Model(&models.LessonCompletion{}).
		Where("student_id = ? AND is_completed = ? AND lesson_id IN ?", studentID, true, lessonIDs).
		Pluck("lesson_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
