package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// AnswerTotal aggregates a student's answers against a question set.
type AnswerTotal struct {
	StudentID  uint
	TotalMarks int
	Answered   int64
}

// AnswerRepository persists student answers and quiz completions.
type AnswerRepository interface {
	Create(ctx context.Context, answer *models.StudentAnswer) error
	Exists(ctx context.Context, studentID, questionID uint) (bool, error)
	TotalForStudent(ctx context.Context, studentID uint, questionIDs []uint) (AnswerTotal, error)
	TotalsForStudents(ctx context.Context, studentIDs, questionIDs []uint) (map[uint]AnswerTotal, error)
	CreateCompletion(ctx context.Context, completion *models.QuizCompletion) error
	CompletedQuizIDs(ctx context.Context, studentID uint, quizIDs []uint) ([]uint, error)
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository instantiates the repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Create(ctx context.Context, answer *models.StudentAnswer) error {
	return r.db.WithContext(ctx).Create(answer).Error
}

func (r *answerRepository) Exists(ctx context.Context, studentID, questionID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StudentAnswer{}).
		Where("student_id = ? AND question_id = ?", studentID, questionID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *answerRepository) TotalForStudent(ctx context.Context, studentID uint, questionIDs []uint) (AnswerTotal, error) {
	total := AnswerTotal{StudentID: studentID}
	if len(questionIDs) == 0 {
		return total, nil
	}

	var row struct {
		Total    int
		Answered int64
	}
	if err := r.db.WithContext(ctx).Model(&models.StudentAnswer{}).
		Select("COALESCE(SUM(marks_obtained), 0) AS total, COUNT(*) AS answered").
		Where("student_id = ? AND question_id IN ?", studentID, questionIDs).
		Scan(&row).Error; err != nil {
		return AnswerTotal{}, err
	}

	total.TotalMarks = row.Total
	total.Answered = row.Answered
	return total, nil
}

func (r *answerRepository) TotalsForStudents(ctx context.Context, studentIDs, questionIDs []uint) (map[uint]AnswerTotal, error) {
	totals := make(map[uint]AnswerTotal, len(studentIDs))
	for _, id := range studentIDs {
		totals[id] = AnswerTotal{StudentID: id}
	}
	if len(studentIDs) == 0 || len(questionIDs) == 0 {
		return totals, nil
	}

	var rows []struct {
		StudentID uint
		Total     int
		Answered  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.StudentAnswer{}).
		Select("student_id, COALESCE(SUM(marks_obtained), 0) AS total, COUNT(*) AS answered").
		Where("student_id IN ? AND question_id IN ?", studentIDs, questionIDs).
		Group("student_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		totals[row.StudentID] = AnswerTotal{StudentID: row.StudentID, TotalMarks: row.Total, Answered: row.Answered}
	}
	return totals, nil
}

func (r *answerRepository) CreateCompletion(ctx context.Context, completion *models.QuizCompletion) error {
	return r.db.WithContext(ctx).Create(completion).Error
}

func (r *answerRepository) CompletedQuizIDs(ctx context.Context, studentID uint, quizIDs []uint) ([]uint, error) {
	var ids []uint
	if len(quizIDs) == 0 {
		return ids, nil
	}
	if err := r.db.WithContext(ctx).Model(&models.QuizCompletion{}).
		Where("student_id = ? AND quiz_id IN ?", studentID, quizIDs).
		Pluck("quiz_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
