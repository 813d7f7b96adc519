package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
)

// StudentService serves the learner's view of the catalog.
type StudentService interface {
	AssignedCourses(ctx context.Context, studentID uint) ([]dto.CourseResponse, error)
	Modules(ctx context.Context, studentID, courseID uint) ([]dto.ModuleStatusResponse, error)
	Lessons(ctx context.Context, studentID, moduleID uint) ([]dto.LessonResponse, error)
	Lesson(ctx context.Context, studentID, lessonID uint) (dto.LessonResponse, error)
	PostLessonFeedback(ctx context.Context, studentID, lessonID uint, payload dto.LessonFeedbackRequest) (dto.LessonFeedbackResponse, error)
}

type studentService struct {
	enrollments repository.EnrollmentRepository
	lessons     repository.LessonRepository
	feedback    repository.LessonFeedbackRepository
	progression ProgressionService
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewStudentService wires the student facing catalog service.
func NewStudentService(enrollments repository.EnrollmentRepository, lessons repository.LessonRepository, feedback repository.LessonFeedbackRepository, progression ProgressionService, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		enrollments: enrollments,
		lessons:     lessons,
		feedback:    feedback,
		progression: progression,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) AssignedCourses(ctx context.Context, studentID uint) ([]dto.CourseResponse, error) {
	batches, err := s.enrollments.StudentBatches(ctx, studentID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(batches))
	courses := make([]models.Course, 0, len(batches))
	for _, batch := range batches {
		if _, ok := seen[batch.CourseID]; ok {
			continue
		}
		seen[batch.CourseID] = struct{}{}
		courses = append(courses, batch.Course)
	}
	if len(courses) == 0 {
		return nil, ErrNoAssignedCourses
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *studentService) Modules(ctx context.Context, studentID, courseID uint) ([]dto.ModuleStatusResponse, error) {
	return s.progression.ModuleStatuses(ctx, studentID, courseID)
}

// Lessons lists the approved lessons of a module the student has unlocked.
func (s *studentService) Lessons(ctx context.Context, studentID, moduleID uint) ([]dto.LessonResponse, error) {
	if _, err := s.progression.RequireModuleUnlocked(ctx, studentID, moduleID); err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByModule(ctx, moduleID, true)
	if err != nil {
		return nil, err
	}
	return dto.NewLessonResponseSlice(lessons), nil
}

func (s *studentService) Lesson(ctx context.Context, studentID, lessonID uint) (dto.LessonResponse, error) {
	lesson, err := s.accessibleLesson(ctx, studentID, lessonID)
	if err != nil {
		return dto.LessonResponse{}, err
	}
	return dto.NewLessonResponse(lesson), nil
}

func (s *studentService) PostLessonFeedback(ctx context.Context, studentID, lessonID uint, payload dto.LessonFeedbackRequest) (dto.LessonFeedbackResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonFeedbackResponse{}, err
	}
	text := strings.TrimSpace(s.sanitizer.Sanitize(payload.FeedbackText))
	if text == "" {
		return dto.LessonFeedbackResponse{}, InvalidInput("Feedback text is empty after sanitization")
	}

	if _, err := s.accessibleLesson(ctx, studentID, lessonID); err != nil {
		return dto.LessonFeedbackResponse{}, err
	}

	feedback := models.LessonFeedback{
		LessonID:     lessonID,
		StudentID:    studentID,
		FeedbackText: text,
		Rating:       payload.Rating,
	}
	if err := s.feedback.Create(ctx, &feedback); err != nil {
		return dto.LessonFeedbackResponse{}, err
	}

	s.logger.Info().Uint("lesson_id", lessonID).Uint("student_id", studentID).Msg("lesson feedback recorded")
	return dto.NewLessonFeedbackResponse(feedback), nil
}

func (s *studentService) accessibleLesson(ctx context.Context, studentID, lessonID uint) (models.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		if isNotFound(err) {
			return models.Lesson{}, ErrLessonNotFound
		}
		return models.Lesson{}, err
	}
	if !lesson.IsApproved {
		return models.Lesson{}, ErrLessonNotFound
	}
	if _, err := s.progression.RequireModuleUnlocked(ctx, studentID, lesson.ModuleID); err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}
