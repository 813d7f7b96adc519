package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/observability"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
)

// ProgressInvalidator drops cached progression state after writes that can change it.
type ProgressInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID, courseID uint)
	InvalidateCourse(ctx context.Context, courseID uint)
}

// ProgressionService decides which modules, lessons and quizzes a student may access.
type ProgressionService interface {
	ProgressInvalidator
	ModuleStatuses(ctx context.Context, studentID, courseID uint) ([]dto.ModuleStatusResponse, error)
	IsModuleUnlocked(ctx context.Context, studentID, moduleID uint) (bool, error)
	RequireModuleUnlocked(ctx context.Context, studentID, moduleID uint) (models.Module, error)
	CanAccessQuiz(ctx context.Context, studentID uint, quiz models.Quiz) error
	CompleteLesson(ctx context.Context, studentID, lessonID uint) (dto.LessonCompletionResponse, error)
}

// ProgressionRepositories groups the stores the progression engine reads.
type ProgressionRepositories struct {
	Modules     repository.ModuleRepository
	Lessons     repository.LessonRepository
	Enrollments repository.EnrollmentRepository
	Quizzes     repository.QuizRepository
	Answers     repository.AnswerRepository
	Assignments repository.AssignmentRepository
	Submissions repository.SubmissionRepository
	Completions repository.LessonCompletionRepository
}

type progressionService struct {
	repos    ProgressionRepositories
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewProgressionService builds the progression engine. A nil cache disables caching.
func NewProgressionService(repos ProgressionRepositories, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProgressionService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &progressionService{
		repos:    repos,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "progression_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/cohort-lms-api/internal/service/progression"),
		now:      time.Now,
	}
}

func progressCacheKey(courseID, studentID uint) string {
	return fmt.Sprintf("progress:course:%d:student:%d", courseID, studentID)
}

// ModuleStatuses returns every module of the course in sequence with the student's unlock state.
func (s *progressionService) ModuleStatuses(ctx context.Context, studentID, courseID uint) ([]dto.ModuleStatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "progression.module_statuses", trace.WithAttributes(
		attribute.Int64("progression.student_id", int64(studentID)),
		attribute.Int64("progression.course_id", int64(courseID)),
	))
	defer span.End()

	batchIDs, err := s.repos.Enrollments.StudentBatchIDsForCourse(ctx, studentID, courseID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(batchIDs) == 0 {
		return nil, ErrNotEnrolled
	}

	cacheKey := progressCacheKey(courseID, studentID)
	if cached, ok := s.readCache(ctx, cacheKey); ok {
		span.SetAttributes(attribute.Bool("progression.cache_hit", true))
		return cached, nil
	}

	statuses, err := s.computeStatuses(ctx, studentID, courseID, batchIDs)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.writeCache(ctx, cacheKey, statuses)
	return statuses, nil
}

func (s *progressionService) computeStatuses(ctx context.Context, studentID, courseID uint, batchIDs []uint) ([]dto.ModuleStatusResponse, error) {
	modules, err := s.repos.Modules.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	statuses := make([]dto.ModuleStatusResponse, 0, len(modules))
	if len(modules) == 0 {
		return statuses, nil
	}

	moduleIDs := make([]uint, 0, len(modules))
	for _, module := range modules {
		moduleIDs = append(moduleIDs, module.ID)
	}

	quizzes, err := s.repos.Quizzes.ListWithQuestionsByModules(ctx, moduleIDs)
	if err != nil {
		return nil, err
	}
	quizIDs := make([]uint, 0, len(quizzes))
	for _, quiz := range quizzes {
		quizIDs = append(quizIDs, quiz.ID)
	}
	completedQuizzes, err := s.repos.Answers.CompletedQuizIDs(ctx, studentID, quizIDs)
	if err != nil {
		return nil, err
	}

	assignments, err := s.repos.Assignments.List(ctx, repository.AssignmentFilter{ModuleIDs: moduleIDs, BatchIDs: batchIDs})
	if err != nil {
		return nil, err
	}
	assignmentIDs := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		assignmentIDs = append(assignmentIDs, assignment.ID)
	}
	submitted, err := s.repos.Submissions.SubmittedAssignmentIDs(ctx, studentID, assignmentIDs)
	if err != nil {
		return nil, err
	}

	quizDone := pendingByModule(len(modules))
	for _, quiz := range quizzes {
		quizDone.track(quiz.ModuleID, quiz.ID)
	}
	quizDone.resolve(completedQuizzes)

	assignmentDone := pendingByModule(len(modules))
	for _, assignment := range assignments {
		assignmentDone.track(assignment.ModuleID, assignment.ID)
	}
	assignmentDone.resolve(submitted)

	unlocked := true
	for _, module := range modules {
		status := dto.ModuleStatusResponse{
			ModuleResponse:      dto.NewModuleResponse(module),
			Unlocked:            unlocked,
			QuizSubmitted:       quizDone.satisfied(module.ID),
			AssignmentSubmitted: assignmentDone.satisfied(module.ID),
		}
		statuses = append(statuses, status)
		unlocked = unlocked && status.QuizSubmitted && status.AssignmentSubmitted
	}

	return statuses, nil
}

func (s *progressionService) IsModuleUnlocked(ctx context.Context, studentID, moduleID uint) (bool, error) {
	module, err := s.loadModule(ctx, moduleID)
	if err != nil {
		return false, err
	}
	return s.unlocked(ctx, studentID, module)
}

// RequireModuleUnlocked loads the module and fails unless the student may work on it.
func (s *progressionService) RequireModuleUnlocked(ctx context.Context, studentID, moduleID uint) (models.Module, error) {
	module, err := s.loadModule(ctx, moduleID)
	if err != nil {
		return models.Module{}, err
	}

	unlocked, err := s.unlocked(ctx, studentID, module)
	if err != nil {
		return models.Module{}, err
	}
	if !unlocked {
		return models.Module{}, ErrModuleLocked
	}
	return module, nil
}

func (s *progressionService) loadModule(ctx context.Context, moduleID uint) (models.Module, error) {
	module, err := s.repos.Modules.GetByID(ctx, moduleID)
	if err != nil {
		if isNotFound(err) {
			return models.Module{}, ErrModuleNotFound
		}
		return models.Module{}, err
	}
	return module, nil
}

func (s *progressionService) unlocked(ctx context.Context, studentID uint, module models.Module) (bool, error) {
	statuses, err := s.ModuleStatuses(ctx, studentID, module.CourseID)
	if err != nil {
		return false, err
	}
	for _, status := range statuses {
		if status.ID == module.ID {
			return status.Unlocked, nil
		}
	}
	return false, nil
}

// CanAccessQuiz requires an unlocked module and a completed lesson. A quiz without a lesson
// requires every approved lesson of its module.
func (s *progressionService) CanAccessQuiz(ctx context.Context, studentID uint, quiz models.Quiz) error {
	ctx, span := s.tracer.Start(ctx, "progression.quiz_access", trace.WithAttributes(
		attribute.Int64("progression.student_id", int64(studentID)),
		attribute.Int64("progression.quiz_id", int64(quiz.ID)),
	))
	defer span.End()

	if _, err := s.RequireModuleUnlocked(ctx, studentID, quiz.ModuleID); err != nil {
		return err
	}

	var lessonIDs []uint
	if quiz.LessonID != nil {
		lessonIDs = []uint{*quiz.LessonID}
	} else {
		lessons, err := s.repos.Lessons.ListByModule(ctx, quiz.ModuleID, true)
		if err != nil {
			span.RecordError(err)
			return err
		}
		for _, lesson := range lessons {
			lessonIDs = append(lessonIDs, lesson.ID)
		}
	}
	if len(lessonIDs) == 0 {
		return nil
	}

	completed, err := s.repos.Completions.CompletedLessonIDs(ctx, studentID, lessonIDs)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if len(completed) < len(lessonIDs) {
		return ErrLessonIncomplete
	}
	return nil
}

func (s *progressionService) CompleteLesson(ctx context.Context, studentID, lessonID uint) (dto.LessonCompletionResponse, error) {
	lesson, err := s.repos.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		if isNotFound(err) {
			return dto.LessonCompletionResponse{}, ErrLessonNotFound
		}
		return dto.LessonCompletionResponse{}, err
	}
	if !lesson.IsApproved {
		return dto.LessonCompletionResponse{}, ErrLessonNotFound
	}

	if _, err := s.RequireModuleUnlocked(ctx, studentID, lesson.ModuleID); err != nil {
		return dto.LessonCompletionResponse{}, err
	}

	completedAt := s.now().UTC()
	completion := models.LessonCompletion{
		StudentID:   studentID,
		CourseID:    lesson.CourseID,
		ModuleID:    lesson.ModuleID,
		LessonID:    lesson.ID,
		IsCompleted: true,
		CompletedAt: &completedAt,
	}
	if err := s.repos.Completions.Upsert(ctx, &completion); err != nil {
		return dto.LessonCompletionResponse{}, err
	}
	s.InvalidateStudent(ctx, studentID, lesson.CourseID)

	s.logger.Info().Uint("student_id", studentID).Uint("lesson_id", lesson.ID).Msg("lesson completed")
	return dto.LessonCompletionResponse{
		LessonID:    lesson.ID,
		ModuleID:    lesson.ModuleID,
		CourseID:    lesson.CourseID,
		IsCompleted: true,
		CompletedAt: &completedAt,
	}, nil
}

func (s *progressionService) InvalidateStudent(ctx context.Context, studentID, courseID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, progressCacheKey(courseID, studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Uint("course_id", courseID).Msg("failed to invalidate progress cache")
	}
}

func (s *progressionService) InvalidateCourse(ctx context.Context, courseID uint) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("progress:course:%d:student:*", courseID)
	iter := s.cache.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to scan progress cache")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to invalidate course progress cache")
	}
}

func (s *progressionService) readCache(ctx context.Context, key string) ([]dto.ModuleStatusResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
		observability.ProgressCache().WithLabelValues("miss").Inc()
		return nil, false
	}

	var statuses []dto.ModuleStatusResponse
	if err := json.Unmarshal([]byte(cached), &statuses); err != nil {
		observability.ProgressCache().WithLabelValues("miss").Inc()
		return nil, false
	}
	observability.ProgressCache().WithLabelValues("hit").Inc()
	return statuses, true
}

func (s *progressionService) writeCache(ctx context.Context, key string, statuses []dto.ModuleStatusResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(statuses)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store progress cache")
	}
}

// moduleRequirements tracks, per module, which required records are still missing.
type moduleRequirements map[uint]map[uint]struct{}

func pendingByModule(size int) moduleRequirements {
	return make(moduleRequirements, size)
}

func (m moduleRequirements) track(moduleID, itemID uint) {
	if _, ok := m[moduleID]; !ok {
		m[moduleID] = make(map[uint]struct{})
	}
	m[moduleID][itemID] = struct{}{}
}

func (m moduleRequirements) resolve(done []uint) {
	doneSet := make(map[uint]struct{}, len(done))
	for _, id := range done {
		doneSet[id] = struct{}{}
	}
	for _, items := range m {
		for id := range items {
			if _, ok := doneSet[id]; ok {
				delete(items, id)
			}
		}
	}
}

// satisfied is true when nothing is pending, including modules that never required anything.
func (m moduleRequirements) satisfied(moduleID uint) bool {
	return len(m[moduleID]) == 0
}
