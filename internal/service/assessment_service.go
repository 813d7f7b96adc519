package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/observability"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
)

// AssessmentService manages quizzes, questions, answers and scoring.
type AssessmentService interface {
	CreateQuiz(ctx context.Context, payload dto.QuizCreateRequest) (dto.QuizResponse, error)
	ListQuizzesForStaff(ctx context.Context, moduleID uint) ([]dto.QuizResponse, error)
	ListQuizzesForStudent(ctx context.Context, studentID, moduleID uint) ([]dto.StudentQuizResponse, error)
	CreateQuestion(ctx context.Context, quizID uint, payload dto.QuestionRequest) (dto.StaffQuestionResponse, error)
	UpdateQuestion(ctx context.Context, quizID, questionID uint, payload dto.QuestionRequest) (dto.StaffQuestionResponse, error)
	DeleteQuestion(ctx context.Context, quizID, questionID uint) error
	ListQuestionsForStaff(ctx context.Context, quizID uint) ([]dto.StaffQuestionResponse, error)
	ListQuestionsForStudent(ctx context.Context, studentID, quizID uint) ([]dto.StudentQuestionResponse, error)
	SubmitAnswer(ctx context.Context, studentID, questionID uint, payload dto.AnswerRequest) (dto.AnswerResponse, error)
	TotalMarks(ctx context.Context, studentID, quizID uint) (dto.QuizMarksResponse, error)
	MarksByBatch(ctx context.Context, batchID, quizID uint) ([]dto.StudentMarksResponse, error)
}

// AssessmentRepositories groups the stores used for assessment.
type AssessmentRepositories struct {
	Modules     repository.ModuleRepository
	Lessons     repository.LessonRepository
	Batches     repository.BatchRepository
	Enrollments repository.EnrollmentRepository
	Quizzes     repository.QuizRepository
	Answers     repository.AnswerRepository
}

type assessmentService struct {
	repos       AssessmentRepositories
	progression ProgressionService
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAssessmentService builds the assessment engine.
func NewAssessmentService(repos AssessmentRepositories, progression ProgressionService, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		repos:       repos,
		progression: progression,
		validator:   validate,
		logger:      logger.With().Str("component", "assessment_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/cohort-lms-api/internal/service/assessment"),
		now:         time.Now,
	}
}

func (s *assessmentService) CreateQuiz(ctx context.Context, payload dto.QuizCreateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizResponse{}, err
	}

	if _, err := s.repos.Modules.GetInCourse(ctx, payload.CourseID, payload.ModuleID); err != nil {
		if isNotFound(err) {
			return dto.QuizResponse{}, ErrModuleNotFound
		}
		return dto.QuizResponse{}, err
	}
	if payload.LessonID != nil {
		if _, err := s.repos.Lessons.GetInModule(ctx, payload.CourseID, payload.ModuleID, *payload.LessonID); err != nil {
			if isNotFound(err) {
				return dto.QuizResponse{}, ErrLessonNotFound
			}
			return dto.QuizResponse{}, err
		}
	}

	quiz := models.Quiz{
		CourseID:    payload.CourseID,
		ModuleID:    payload.ModuleID,
		LessonID:    payload.LessonID,
		Title:       strings.TrimSpace(payload.Title),
		Description: strings.TrimSpace(payload.Description),
	}
	if err := s.repos.Quizzes.Create(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}

	s.progression.InvalidateCourse(ctx, quiz.CourseID)
	s.logger.Info().Uint("quiz_id", quiz.ID).Uint("module_id", quiz.ModuleID).Msg("quiz created")
	return dto.NewQuizResponse(quiz), nil
}

func (s *assessmentService) ListQuizzesForStaff(ctx context.Context, moduleID uint) ([]dto.QuizResponse, error) {
	if _, err := s.repos.Modules.GetByID(ctx, moduleID); err != nil {
		if isNotFound(err) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}

	quizzes, err := s.repos.Quizzes.ListByModules(ctx, []uint{moduleID})
	if err != nil {
		return nil, err
	}
	return dto.NewQuizResponseSlice(quizzes), nil
}

// ListQuizzesForStudent lists the quizzes of an unlocked module that have questions. Accessible
// reports whether the lesson requirements for taking the quiz are met.
func (s *assessmentService) ListQuizzesForStudent(ctx context.Context, studentID, moduleID uint) ([]dto.StudentQuizResponse, error) {
	if _, err := s.progression.RequireModuleUnlocked(ctx, studentID, moduleID); err != nil {
		return nil, err
	}

	quizzes, err := s.repos.Quizzes.ListWithQuestionsByModules(ctx, []uint{moduleID})
	if err != nil {
		return nil, err
	}
	quizIDs := make([]uint, 0, len(quizzes))
	for _, quiz := range quizzes {
		quizIDs = append(quizIDs, quiz.ID)
	}
	completedIDs, err := s.repos.Answers.CompletedQuizIDs(ctx, studentID, quizIDs)
	if err != nil {
		return nil, err
	}
	completed := make(map[uint]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = struct{}{}
	}

	responses := make([]dto.StudentQuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		accessErr := s.progression.CanAccessQuiz(ctx, studentID, quiz)
		if accessErr != nil && !errors.Is(accessErr, ErrLessonIncomplete) {
			return nil, accessErr
		}
		_, done := completed[quiz.ID]
		responses = append(responses, dto.StudentQuizResponse{
			QuizResponse: dto.NewQuizResponse(quiz),
			Accessible:   accessErr == nil,
			Completed:    done,
		})
	}
	return responses, nil
}

func (s *assessmentService) CreateQuestion(ctx context.Context, quizID uint, payload dto.QuestionRequest) (dto.StaffQuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StaffQuestionResponse{}, err
	}
	quiz, err := s.quiz(ctx, quizID)
	if err != nil {
		return dto.StaffQuestionResponse{}, err
	}

	question := models.Question{QuizID: quizID}
	applyQuestion(&question, payload)
	if err := s.repos.Quizzes.CreateQuestion(ctx, &question); err != nil {
		return dto.StaffQuestionResponse{}, err
	}

	// a quiz starts gating its module once it has a question
	s.progression.InvalidateCourse(ctx, quiz.CourseID)

	s.logger.Info().Uint("quiz_id", quizID).Uint("question_id", question.ID).Msg("question created")
	return dto.NewStaffQuestionResponse(question), nil
}

func (s *assessmentService) UpdateQuestion(ctx context.Context, quizID, questionID uint, payload dto.QuestionRequest) (dto.StaffQuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StaffQuestionResponse{}, err
	}

	question, err := s.repos.Quizzes.GetQuestionInQuiz(ctx, quizID, questionID)
	if err != nil {
		if isNotFound(err) {
			return dto.StaffQuestionResponse{}, ErrQuestionNotFound
		}
		return dto.StaffQuestionResponse{}, err
	}

	applyQuestion(&question, payload)
	if err := s.repos.Quizzes.UpdateQuestion(ctx, &question, s.now().UTC()); err != nil {
		return dto.StaffQuestionResponse{}, err
	}

	s.logger.Info().Uint("quiz_id", quizID).Uint("question_id", questionID).Msg("question updated and answers regraded")
	return dto.NewStaffQuestionResponse(question), nil
}

func (s *assessmentService) DeleteQuestion(ctx context.Context, quizID, questionID uint) error {
	quiz, err := s.quiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.repos.Quizzes.DeleteQuestion(ctx, quizID, questionID, s.now().UTC()); err != nil {
		if isNotFound(err) {
			return ErrQuestionNotFound
		}
		return err
	}

	s.progression.InvalidateCourse(ctx, quiz.CourseID)
	s.logger.Info().Uint("quiz_id", quizID).Uint("question_id", questionID).Msg("question deleted")
	return nil
}

func (s *assessmentService) ListQuestionsForStaff(ctx context.Context, quizID uint) ([]dto.StaffQuestionResponse, error) {
	if _, err := s.quiz(ctx, quizID); err != nil {
		return nil, err
	}
	questions, err := s.repos.Quizzes.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return dto.NewStaffQuestionResponseSlice(questions), nil
}

// ListQuestionsForStudent returns the quiz without its answer key once the student may take it.
func (s *assessmentService) ListQuestionsForStudent(ctx context.Context, studentID, quizID uint) ([]dto.StudentQuestionResponse, error) {
	quiz, err := s.quiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.progression.CanAccessQuiz(ctx, studentID, quiz); err != nil {
		return nil, err
	}

	questions, err := s.repos.Quizzes.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return dto.NewStudentQuestionResponseSlice(questions), nil
}

// SubmitAnswer grades and records a single answer. Answering the last open question of a quiz
// marks the quiz as submitted for the student.
func (s *assessmentService) SubmitAnswer(ctx context.Context, studentID, questionID uint, payload dto.AnswerRequest) (dto.AnswerResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnswerResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "assessment.submit_answer", trace.WithAttributes(
		attribute.Int64("assessment.student_id", int64(studentID)),
		attribute.Int64("assessment.question_id", int64(questionID)),
	))
	defer span.End()

	question, err := s.repos.Quizzes.GetQuestion(ctx, questionID)
	if err != nil {
		if isNotFound(err) {
			return dto.AnswerResponse{}, ErrQuestionNotFound
		}
		span.RecordError(err)
		return dto.AnswerResponse{}, err
	}
	quiz, err := s.quiz(ctx, question.QuizID)
	if err != nil {
		return dto.AnswerResponse{}, err
	}
	if err := s.progression.CanAccessQuiz(ctx, studentID, quiz); err != nil {
		return dto.AnswerResponse{}, err
	}

	answered, err := s.repos.Answers.Exists(ctx, studentID, questionID)
	if err != nil {
		span.RecordError(err)
		return dto.AnswerResponse{}, err
	}
	if answered {
		return dto.AnswerResponse{}, ErrAlreadyAnswered
	}

	correct, marks := question.Grade(payload.SelectedOption)
	answer := models.StudentAnswer{
		StudentID:      studentID,
		QuestionID:     questionID,
		SelectedOption: payload.SelectedOption,
		IsCorrect:      correct,
		MarksObtained:  marks,
	}
	if err := s.repos.Answers.Create(ctx, &answer); err != nil {
		if isDuplicate(err) {
			return dto.AnswerResponse{}, ErrAlreadyAnswered
		}
		span.RecordError(err)
		return dto.AnswerResponse{}, err
	}
	observability.AnswersSubmitted().WithLabelValues(strconv.FormatBool(correct)).Inc()

	completed, err := s.completeQuizIfAnswered(ctx, studentID, quiz)
	if err != nil {
		span.RecordError(err)
		return dto.AnswerResponse{}, err
	}
	s.progression.InvalidateStudent(ctx, studentID, quiz.CourseID)

	return dto.AnswerResponse{
		AnswerID:      answer.ID,
		QuestionID:    questionID,
		IsCorrect:     correct,
		MarksObtained: marks,
		QuizCompleted: completed,
	}, nil
}

func (s *assessmentService) completeQuizIfAnswered(ctx context.Context, studentID uint, quiz models.Quiz) (bool, error) {
	questionIDs, err := s.repos.Quizzes.QuestionIDs(ctx, quiz.ID)
	if err != nil {
		return false, err
	}
	total, err := s.repos.Answers.TotalForStudent(ctx, studentID, questionIDs)
	if err != nil {
		return false, err
	}
	if len(questionIDs) == 0 || total.Answered < int64(len(questionIDs)) {
		return false, nil
	}

	completion := models.QuizCompletion{
		StudentID:   studentID,
		QuizID:      quiz.ID,
		TotalMarks:  total.TotalMarks,
		CompletedAt: s.now().UTC(),
	}
	if err := s.repos.Answers.CreateCompletion(ctx, &completion); err != nil && !isDuplicate(err) {
		return false, err
	}

	s.logger.Info().Uint("student_id", studentID).Uint("quiz_id", quiz.ID).Int("total_marks", total.TotalMarks).Msg("quiz completed")
	return true, nil
}

func (s *assessmentService) TotalMarks(ctx context.Context, studentID, quizID uint) (dto.QuizMarksResponse, error) {
	if _, err := s.quiz(ctx, quizID); err != nil {
		return dto.QuizMarksResponse{}, err
	}

	questionIDs, err := s.repos.Quizzes.QuestionIDs(ctx, quizID)
	if err != nil {
		return dto.QuizMarksResponse{}, err
	}
	if len(questionIDs) == 0 {
		return dto.QuizMarksResponse{}, ErrNoQuestions
	}

	total, err := s.repos.Answers.TotalForStudent(ctx, studentID, questionIDs)
	if err != nil {
		return dto.QuizMarksResponse{}, err
	}
	if total.Answered == 0 {
		return dto.QuizMarksResponse{}, ErrNoAnswers
	}

	return dto.QuizMarksResponse{
		QuizID:         quizID,
		StudentID:      studentID,
		TotalMarks:     total.TotalMarks,
		Answered:       int(total.Answered),
		TotalQuestions: len(questionIDs),
	}, nil
}

func (s *assessmentService) MarksByBatch(ctx context.Context, batchID, quizID uint) ([]dto.StudentMarksResponse, error) {
	if _, err := s.repos.Batches.GetByID(ctx, batchID); err != nil {
		if isNotFound(err) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	if _, err := s.quiz(ctx, quizID); err != nil {
		return nil, err
	}

	questionIDs, err := s.repos.Quizzes.QuestionIDs(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(questionIDs) == 0 {
		return nil, ErrNoQuestions
	}

	students, err := s.repos.Enrollments.ListStudents(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, ErrNoStudentsInBatch
	}

	studentIDs := make([]uint, 0, len(students))
	for _, student := range students {
		studentIDs = append(studentIDs, student.ID)
	}
	totals, err := s.repos.Answers.TotalsForStudents(ctx, studentIDs, questionIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.StudentMarksResponse, 0, len(students))
	for _, student := range students {
		rows = append(rows, dto.StudentMarksResponse{
			StudentID:  student.ID,
			Name:       student.Name,
			Email:      student.Email,
			TotalMarks: totals[student.ID].TotalMarks,
		})
	}
	return rows, nil
}

func (s *assessmentService) quiz(ctx context.Context, id uint) (models.Quiz, error) {
	quiz, err := s.repos.Quizzes.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return models.Quiz{}, ErrQuizNotFound
		}
		return models.Quiz{}, err
	}
	return quiz, nil
}

func applyQuestion(question *models.Question, payload dto.QuestionRequest) {
	question.QuestionText = strings.TrimSpace(payload.QuestionText)
	question.Option1 = strings.TrimSpace(payload.Option1)
	question.Option2 = strings.TrimSpace(payload.Option2)
	question.Option3 = strings.TrimSpace(payload.Option3)
	question.Option4 = strings.TrimSpace(payload.Option4)
	question.CorrectOption = payload.CorrectOption
	question.Marks = 1
	if payload.Marks != nil {
		question.Marks = *payload.Marks
	}
}
