package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// LessonFeedbackRepository persists lesson ratings.
type LessonFeedbackRepository interface {
	Create(ctx context.Context, feedback *models.LessonFeedback) error
}

type lessonFeedbackRepository struct {
	db *gorm.DB
}

// NewLessonFeedbackRepository instantiates the repository.
func NewLessonFeedbackRepository(db *gorm.DB) LessonFeedbackRepository {
	return &lessonFeedbackRepository{db: db}
}

func (r *lessonFeedbackRepository) Create(ctx context.Context, feedback *models.LessonFeedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}
