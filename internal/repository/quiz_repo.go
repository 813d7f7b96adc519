package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// QuizRepository persists quizzes and their questions.
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	ListByModules(ctx context.Context, moduleIDs []uint) ([]models.Quiz, error)
	ListWithQuestionsByModules(ctx context.Context, moduleIDs []uint) ([]models.Quiz, error)
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestion(ctx context.Context, id uint) (models.Question, error)
	GetQuestionInQuiz(ctx context.Context, quizID, questionID uint) (models.Question, error)
	ListQuestions(ctx context.Context, quizID uint) ([]models.Question, error)
	QuestionIDs(ctx context.Context, quizID uint) ([]uint, error)
	UpdateQuestion(ctx context.Context, question *models.Question, at time.Time) error
	DeleteQuestion(ctx context.Context, quizID, questionID uint, at time.Time) error
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository instantiates the repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Omit("Questions").Create(quiz).Error
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (r *quizRepository) ListByModules(ctx context.Context, moduleIDs []uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if len(moduleIDs) == 0 {
		return quizzes, nil
	}
	if err := r.db.WithContext(ctx).
		Where("module_id IN ?", moduleIDs).
		Order("id ASC").
		Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

// ListWithQuestionsByModules skips quizzes that have no questions yet.
func (r *quizRepository) ListWithQuestionsByModules(ctx context.Context, moduleIDs []uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if len(moduleIDs) == 0 {
		return quizzes, nil
	}
	if err := r.db.WithContext(ctx).
		Where("module_id IN ?", moduleIDs).
		Where("EXISTS (SELECT 1 FROM questions WHERE questions.quiz_id = quizzes.id)").
		Order("id ASC").
		Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *quizRepository) GetQuestion(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return models.Question{}, err
	}
	return question, nil
}

func (r *quizRepository) GetQuestionInQuiz(ctx context.Context, quizID, questionID uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).
		Where("id = ? AND quiz_id = ?", questionID, quizID).
		First(&question).Error; err != nil {
		return models.Question{}, err
	}
	return question, nil
}

func (r *quizRepository) ListQuestions(ctx context.Context, quizID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *quizRepository) QuestionIDs(ctx context.Context, quizID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("quiz_id = ?", quizID).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateQuestion saves the question and regrades every recorded answer against the new key.
func (r *quizRepository) UpdateQuestion(ctx context.Context, question *models.Question, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(question).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.StudentAnswer{}).
			Where("question_id = ?", question.ID).
			Updates(map[string]interface{}{
				"is_correct":     gorm.Expr("(selected_option = ?)", question.CorrectOption),
				"marks_obtained": gorm.Expr("CASE WHEN selected_option = ? THEN ? ELSE 0 END", question.CorrectOption, question.Marks),
			}).Error; err != nil {
			return err
		}
		return syncQuizCompletions(tx, question.QuizID, at)
	})
}

// DeleteQuestion removes the question with its answers. Existing completions are kept with
// refreshed totals, and students whose answers now cover the remaining questions gain one.
func (r *quizRepository) DeleteQuestion(ctx context.Context, quizID, questionID uint, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Question{}).
			Where("id = ? AND quiz_id = ?", questionID, quizID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := deleteQuestions(tx, []uint{questionID}); err != nil {
			return err
		}
		return syncQuizCompletions(tx, quizID, at)
	})
}

func syncQuizCompletions(tx *gorm.DB, quizID uint, at time.Time) error {
	var questionIDs []uint
	if err := tx.Model(&models.Question{}).Where("quiz_id = ?", quizID).Pluck("id", &questionIDs).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.QuizCompletion{}).Where("quiz_id = ?", quizID).Update("total_marks", 0).Error; err != nil {
		return err
	}
	if len(questionIDs) == 0 {
		return nil
	}

	var rows []struct {
		StudentID uint
		Total     int
		Answered  int64
	}
	if err := tx.Model(&models.StudentAnswer{}).
		Select("student_id, COALESCE(SUM(marks_obtained), 0) AS total, COUNT(*) AS answered").
		Where("question_id IN ?", questionIDs).
		Group("student_id").
		Scan(&rows).Error; err != nil {
		return err
	}

	for _, row := range rows {
		if row.Answered >= int64(len(questionIDs)) {
			completion := models.QuizCompletion{StudentID: row.StudentID, QuizID: quizID, TotalMarks: row.Total, CompletedAt: at}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "student_id"}, {Name: "quiz_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"total_marks"}),
			}).Create(&completion).Error; err != nil {
				return err
			}
			continue
		}
		if err := tx.Model(&models.QuizCompletion{}).
			Where("quiz_id = ? AND student_id = ?", quizID, row.StudentID).
			Update("total_marks", row.Total).Error; err != nil {
			return err
		}
	}
	return nil
}
