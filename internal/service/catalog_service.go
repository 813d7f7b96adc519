package service

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
)

// CatalogService manages the course, module and lesson tree.
type CatalogService interface {
	CreateCourse(ctx context.Context, payload dto.CourseRequest) (dto.CourseResponse, error)
	ListCourses(ctx context.Context) ([]dto.CourseResponse, error)
	UpdateCourse(ctx context.Context, id uint, payload dto.CourseRequest) (dto.CourseResponse, error)
	DeleteCourse(ctx context.Context, id uint) error

	CreateModule(ctx context.Context, courseID uint, payload dto.ModuleRequest) (dto.ModuleResponse, error)
	ListModules(ctx context.Context, courseID uint) ([]dto.ModuleResponse, error)
	UpdateModule(ctx context.Context, courseID, moduleID uint, payload dto.ModuleRequest) (dto.ModuleResponse, error)
	DeleteModule(ctx context.Context, courseID, moduleID uint) error

	CreateLesson(ctx context.Context, courseID, moduleID, actorID uint, payload dto.LessonRequest) (dto.LessonResponse, error)
	ListLessons(ctx context.Context, courseID, moduleID uint) ([]dto.LessonResponse, error)
	UpdateLesson(ctx context.Context, courseID, moduleID, lessonID uint, payload dto.LessonRequest) (dto.LessonResponse, error)
	DeleteLesson(ctx context.Context, courseID, moduleID, lessonID uint) error

	UploadLesson(ctx context.Context, actorID uint, payload dto.LessonUploadRequest) (dto.LessonResponse, error)
	ApproveLesson(ctx context.Context, lessonID uint) (dto.LessonResponse, error)
	AttachPDF(ctx context.Context, lessonID uint, file *multipart.FileHeader) (dto.LessonResponse, error)
}

type catalogService struct {
	courses   repository.CourseRepository
	modules   repository.ModuleRepository
	lessons   repository.LessonRepository
	uploads   UploadService
	progress  ProgressInvalidator
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCatalogService wires the catalog use cases.
func NewCatalogService(courses repository.CourseRepository, modules repository.ModuleRepository, lessons repository.LessonRepository, uploads UploadService, progress ProgressInvalidator, validate *validator.Validate, logger zerolog.Logger) CatalogService {
	return &catalogService{
		courses:   courses,
		modules:   modules,
		lessons:   lessons,
		uploads:   uploads,
		progress:  progress,
		validator: validate,
		logger:    logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) CreateCourse(ctx context.Context, payload dto.CourseRequest) (dto.CourseResponse, error) {
	start, end, err := s.courseDates(payload)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Title:       strings.TrimSpace(payload.Title),
		Description: strings.TrimSpace(payload.Description),
		StartDate:   start,
		EndDate:     end,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Msg("course created")
	return dto.NewCourseResponse(course), nil
}

func (s *catalogService) ListCourses(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *catalogService) UpdateCourse(ctx context.Context, id uint, payload dto.CourseRequest) (dto.CourseResponse, error) {
	start, end, err := s.courseDates(payload)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.course(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	course.Title = strings.TrimSpace(payload.Title)
	course.Description = strings.TrimSpace(payload.Description)
	course.StartDate = start
	course.EndDate = end
	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *catalogService) DeleteCourse(ctx context.Context, id uint) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrCourseNotFound
		}
		return err
	}
	s.progress.InvalidateCourse(ctx, id)
	s.logger.Info().Uint("course_id", id).Msg("course deleted")
	return nil
}

func (s *catalogService) CreateModule(ctx context.Context, courseID uint, payload dto.ModuleRequest) (dto.ModuleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ModuleResponse{}, err
	}
	if _, err := s.course(ctx, courseID); err != nil {
		return dto.ModuleResponse{}, err
	}

	module := models.Module{
		CourseID:    courseID,
		Title:       strings.TrimSpace(payload.Title),
		Description: strings.TrimSpace(payload.Description),
	}
	if err := s.modules.Create(ctx, &module); err != nil {
		return dto.ModuleResponse{}, err
	}

	s.progress.InvalidateCourse(ctx, courseID)
	s.logger.Info().Uint("course_id", courseID).Uint("module_id", module.ID).Msg("module created")
	return dto.NewModuleResponse(module), nil
}

func (s *catalogService) ListModules(ctx context.Context, courseID uint) ([]dto.ModuleResponse, error) {
	if _, err := s.course(ctx, courseID); err != nil {
		return nil, err
	}
	modules, err := s.modules.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewModuleResponseSlice(modules), nil
}

func (s *catalogService) UpdateModule(ctx context.Context, courseID, moduleID uint, payload dto.ModuleRequest) (dto.ModuleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ModuleResponse{}, err
	}
	module, err := s.module(ctx, courseID, moduleID)
	if err != nil {
		return dto.ModuleResponse{}, err
	}

	module.Title = strings.TrimSpace(payload.Title)
	module.Description = strings.TrimSpace(payload.Description)
	if err := s.modules.Update(ctx, &module); err != nil {
		return dto.ModuleResponse{}, err
	}
	return dto.NewModuleResponse(module), nil
}

func (s *catalogService) DeleteModule(ctx context.Context, courseID, moduleID uint) error {
	if _, err := s.module(ctx, courseID, moduleID); err != nil {
		return err
	}
	if err := s.modules.Delete(ctx, moduleID); err != nil {
		if isNotFound(err) {
			return ErrModuleNotFound
		}
		return err
	}
	s.progress.InvalidateCourse(ctx, courseID)
	s.logger.Info().Uint("module_id", moduleID).Msg("module deleted")
	return nil
}

// CreateLesson publishes a lesson immediately.
func (s *catalogService) CreateLesson(ctx context.Context, courseID, moduleID, actorID uint, payload dto.LessonRequest) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}
	if _, err := s.module(ctx, courseID, moduleID); err != nil {
		return dto.LessonResponse{}, err
	}

	lesson := models.Lesson{
		CourseID:    courseID,
		ModuleID:    moduleID,
		Title:       strings.TrimSpace(payload.Title),
		ContentType: payload.ContentType,
		ContentURL:  strings.TrimSpace(payload.ContentURL),
		IsApproved:  true,
		CreatedBy:   actorID,
	}
	if err := s.lessons.Create(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	s.progress.InvalidateCourse(ctx, courseID)
	s.logger.Info().Uint("lesson_id", lesson.ID).Msg("lesson created")
	return dto.NewLessonResponse(lesson), nil
}

func (s *catalogService) ListLessons(ctx context.Context, courseID, moduleID uint) ([]dto.LessonResponse, error) {
	if _, err := s.module(ctx, courseID, moduleID); err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByModule(ctx, moduleID, false)
	if err != nil {
		return nil, err
	}
	return dto.NewLessonResponseSlice(lessons), nil
}

func (s *catalogService) UpdateLesson(ctx context.Context, courseID, moduleID, lessonID uint, payload dto.LessonRequest) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}
	lesson, err := s.lessonInModule(ctx, courseID, moduleID, lessonID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	lesson.Title = strings.TrimSpace(payload.Title)
	lesson.ContentType = payload.ContentType
	lesson.ContentURL = strings.TrimSpace(payload.ContentURL)
	if err := s.lessons.Update(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}
	return dto.NewLessonResponse(lesson), nil
}

func (s *catalogService) DeleteLesson(ctx context.Context, courseID, moduleID, lessonID uint) error {
	if _, err := s.lessonInModule(ctx, courseID, moduleID, lessonID); err != nil {
		return err
	}
	if err := s.lessons.Delete(ctx, lessonID); err != nil {
		if isNotFound(err) {
			return ErrLessonNotFound
		}
		return err
	}
	s.progress.InvalidateCourse(ctx, courseID)
	s.logger.Info().Uint("lesson_id", lessonID).Msg("lesson deleted")
	return nil
}

// UploadLesson stores a draft lesson that stays hidden from students until approved.
func (s *catalogService) UploadLesson(ctx context.Context, actorID uint, payload dto.LessonUploadRequest) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}
	if _, err := s.module(ctx, payload.CourseID, payload.ModuleID); err != nil {
		return dto.LessonResponse{}, err
	}

	lesson := models.Lesson{
		CourseID:    payload.CourseID,
		ModuleID:    payload.ModuleID,
		Title:       strings.TrimSpace(payload.Title),
		ContentType: payload.ContentType,
		ContentURL:  strings.TrimSpace(payload.ContentURL),
		IsApproved:  false,
		CreatedBy:   actorID,
	}
	if err := s.lessons.Create(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	s.logger.Info().Uint("lesson_id", lesson.ID).Uint("created_by", actorID).Msg("lesson uploaded for approval")
	return dto.NewLessonResponse(lesson), nil
}

func (s *catalogService) ApproveLesson(ctx context.Context, lessonID uint) (dto.LessonResponse, error) {
	lesson, err := s.lesson(ctx, lessonID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	if !lesson.IsApproved {
		lesson.IsApproved = true
		if err := s.lessons.Update(ctx, &lesson); err != nil {
			return dto.LessonResponse{}, err
		}
		s.progress.InvalidateCourse(ctx, lesson.CourseID)
	}

	s.logger.Info().Uint("lesson_id", lesson.ID).Msg("lesson approved")
	return dto.NewLessonResponse(lesson), nil
}

func (s *catalogService) AttachPDF(ctx context.Context, lessonID uint, file *multipart.FileHeader) (dto.LessonResponse, error) {
	lesson, err := s.lesson(ctx, lessonID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	stored, err := s.uploads.Store(ctx, file, PDFOnly)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	lesson.ContentType = models.LessonContentPDF
	lesson.ContentURL = stored.URL
	if err := s.lessons.Update(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	s.logger.Info().Uint("lesson_id", lesson.ID).Str("file", stored.FileName).Msg("pdf attached to lesson")
	return dto.NewLessonResponse(lesson), nil
}

func (s *catalogService) courseDates(payload dto.CourseRequest) (time.Time, time.Time, error) {
	if err := s.validator.Struct(payload); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := time.Parse(dto.DateLayout, payload.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, InvalidInput("invalid start date")
	}
	end, err := time.Parse(dto.DateLayout, payload.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, InvalidInput("invalid end date")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start, end, nil
}

func (s *catalogService) course(ctx context.Context, id uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}
	return course, nil
}

func (s *catalogService) module(ctx context.Context, courseID, moduleID uint) (models.Module, error) {
	if _, err := s.course(ctx, courseID); err != nil {
		return models.Module{}, err
	}
	module, err := s.modules.GetInCourse(ctx, courseID, moduleID)
	if err != nil {
		if isNotFound(err) {
			return models.Module{}, ErrModuleNotFound
		}
		return models.Module{}, err
	}
	return module, nil
}

func (s *catalogService) lesson(ctx context.Context, id uint) (models.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return models.Lesson{}, ErrLessonNotFound
		}
		return models.Lesson{}, err
	}
	return lesson, nil
}

func (s *catalogService) lessonInModule(ctx context.Context, courseID, moduleID, lessonID uint) (models.Lesson, error) {
	lesson, err := s.lessons.GetInModule(ctx, courseID, moduleID, lessonID)
	if err != nil {
		if isNotFound(err) {
			return models.Lesson{}, ErrLessonNotFound
		}
		return models.Lesson{}, err
	}
	return lesson, nil
}
