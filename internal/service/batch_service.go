package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
)

// BatchService manages cohorts and their membership.
type BatchService interface {
	Create(ctx context.Context, payload dto.BatchCreateRequest) (dto.BatchResponse, error)
	Update(ctx context.Context, id uint, payload dto.BatchUpdateRequest) (dto.BatchResponse, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, courseID *uint) ([]dto.BatchResponse, error)
	ListStudents(ctx context.Context, batchID uint) ([]dto.StudentSummary, error)
	AssignMember(ctx context.Context, batchID uint, payload dto.BatchMemberRequest) (dto.BatchMemberResponse, error)
	RemoveStudent(ctx context.Context, batchID, studentID uint) error
	RemoveTeacher(ctx context.Context, batchID, teacherID uint) error
	TeacherBatches(ctx context.Context, teacherID uint) ([]dto.BatchResponse, error)
	StudentsOfTeacher(ctx context.Context, teacherID uint) ([]dto.StudentSummary, error)
}

type batchService struct {
	batches     repository.BatchRepository
	courses     repository.CourseRepository
	users       repository.UserRepository
	enrollments repository.EnrollmentRepository
	progress    ProgressInvalidator
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewBatchService wires batch management.
func NewBatchService(batches repository.BatchRepository, courses repository.CourseRepository, users repository.UserRepository, enrollments repository.EnrollmentRepository, progress ProgressInvalidator, validate *validator.Validate, logger zerolog.Logger) BatchService {
	return &batchService{
		batches:     batches,
		courses:     courses,
		users:       users,
		enrollments: enrollments,
		progress:    progress,
		validator:   validate,
		logger:      logger.With().Str("component", "batch_service").Logger(),
	}
}

func (s *batchService) Create(ctx context.Context, payload dto.BatchCreateRequest) (dto.BatchResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BatchResponse{}, err
	}
	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		if isNotFound(err) {
			return dto.BatchResponse{}, ErrCourseNotFound
		}
		return dto.BatchResponse{}, err
	}

	start, err := parseOptionalDate(payload.StartDate)
	if err != nil {
		return dto.BatchResponse{}, err
	}
	end, err := parseOptionalDate(payload.EndDate)
	if err != nil {
		return dto.BatchResponse{}, err
	}
	if err := checkDateRange(start, end); err != nil {
		return dto.BatchResponse{}, err
	}

	batch := models.Batch{
		CourseID:  course.ID,
		Name:      strings.TrimSpace(payload.Name),
		StartDate: start,
		EndDate:   end,
	}
	if err := s.batches.Create(ctx, &batch); err != nil {
		return dto.BatchResponse{}, err
	}
	batch.Course = course

	s.logger.Info().Uint("batch_id", batch.ID).Uint("course_id", course.ID).Msg("batch created")
	return dto.NewBatchResponse(batch), nil
}

func (s *batchService) Update(ctx context.Context, id uint, payload dto.BatchUpdateRequest) (dto.BatchResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BatchResponse{}, err
	}
	batch, err := s.batch(ctx, id)
	if err != nil {
		return dto.BatchResponse{}, err
	}

	if payload.Name != nil {
		batch.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.StartDate != nil {
		if batch.StartDate, err = parseOptionalDate(payload.StartDate); err != nil {
			return dto.BatchResponse{}, err
		}
	}
	if payload.EndDate != nil {
		if batch.EndDate, err = parseOptionalDate(payload.EndDate); err != nil {
			return dto.BatchResponse{}, err
		}
	}
	if err := checkDateRange(batch.StartDate, batch.EndDate); err != nil {
		return dto.BatchResponse{}, err
	}

	if err := s.batches.Update(ctx, &batch); err != nil {
		return dto.BatchResponse{}, err
	}
	return dto.NewBatchResponse(batch), nil
}

func (s *batchService) Delete(ctx context.Context, id uint) error {
	batch, err := s.batch(ctx, id)
	if err != nil {
		return err
	}
	if err := s.batches.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrBatchNotFound
		}
		return err
	}
	s.progress.InvalidateCourse(ctx, batch.CourseID)
	s.logger.Info().Uint("batch_id", id).Msg("batch deleted")
	return nil
}

func (s *batchService) List(ctx context.Context, courseID *uint) ([]dto.BatchResponse, error) {
	batches, err := s.batches.List(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewBatchResponseSlice(batches), nil
}

func (s *batchService) ListStudents(ctx context.Context, batchID uint) ([]dto.StudentSummary, error) {
	if _, err := s.batch(ctx, batchID); err != nil {
		return nil, err
	}
	students, err := s.enrollments.ListStudents(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentSummarySlice(students), nil
}

// AssignMember places a student or teacher into a batch of the given course.
func (s *batchService) AssignMember(ctx context.Context, batchID uint, payload dto.BatchMemberRequest) (dto.BatchMemberResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BatchMemberResponse{}, err
	}
	batch, err := s.batch(ctx, batchID)
	if err != nil {
		return dto.BatchMemberResponse{}, err
	}
	if batch.CourseID != payload.CourseID {
		return dto.BatchMemberResponse{}, ErrBatchCourseMismatch
	}

	user, err := s.users.GetByID(ctx, payload.UserID)
	if err != nil {
		if isNotFound(err) {
			return dto.BatchMemberResponse{}, ErrUserNotFound
		}
		return dto.BatchMemberResponse{}, err
	}

	switch user.Role {
	case models.RoleStudent:
		enrolled, err := s.enrollments.StudentEnrolled(ctx, user.ID, batch.ID)
		if err != nil {
			return dto.BatchMemberResponse{}, err
		}
		if enrolled {
			return dto.BatchMemberResponse{}, ErrAlreadyEnrolled
		}
		if _, err := s.enrollments.AddStudent(ctx, user.ID, batch.ID); err != nil {
			if isDuplicate(err) {
				return dto.BatchMemberResponse{}, ErrAlreadyEnrolled
			}
			return dto.BatchMemberResponse{}, err
		}
		s.progress.InvalidateStudent(ctx, user.ID, batch.CourseID)
	case models.RoleTeacher:
		assigned, err := s.enrollments.TeacherAssigned(ctx, user.ID, batch.ID)
		if err != nil {
			return dto.BatchMemberResponse{}, err
		}
		if assigned {
			return dto.BatchMemberResponse{}, ErrAlreadyEnrolled
		}
		if _, err := s.enrollments.AddTeacher(ctx, user.ID, batch.ID); err != nil {
			if isDuplicate(err) {
				return dto.BatchMemberResponse{}, ErrAlreadyEnrolled
			}
			return dto.BatchMemberResponse{}, err
		}
	default:
		return dto.BatchMemberResponse{}, InvalidInput("Only students and teachers can be assigned to a batch")
	}

	s.logger.Info().Uint("batch_id", batch.ID).Uint("user_id", user.ID).Str("role", user.Role).Msg("batch member assigned")
	return dto.BatchMemberResponse{BatchID: batch.ID, UserID: user.ID, Role: user.Role}, nil
}

func (s *batchService) RemoveStudent(ctx context.Context, batchID, studentID uint) error {
	batch, err := s.batch(ctx, batchID)
	if err != nil {
		return err
	}
	removed, err := s.enrollments.RemoveStudent(ctx, studentID, batchID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrEnrollmentNotFound
	}
	s.progress.InvalidateStudent(ctx, studentID, batch.CourseID)
	return nil
}

func (s *batchService) RemoveTeacher(ctx context.Context, batchID, teacherID uint) error {
	if _, err := s.batch(ctx, batchID); err != nil {
		return err
	}
	removed, err := s.enrollments.RemoveTeacher(ctx, teacherID, batchID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}

func (s *batchService) TeacherBatches(ctx context.Context, teacherID uint) ([]dto.BatchResponse, error) {
	batches, err := s.enrollments.TeacherBatches(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return dto.NewBatchResponseSlice(batches), nil
}

func (s *batchService) StudentsOfTeacher(ctx context.Context, teacherID uint) ([]dto.StudentSummary, error) {
	students, err := s.enrollments.StudentsOfTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentSummarySlice(students), nil
}

func (s *batchService) batch(ctx context.Context, id uint) (models.Batch, error) {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return models.Batch{}, ErrBatchNotFound
		}
		return models.Batch{}, err
	}
	return batch, nil
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dto.DateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, InvalidInput("invalid date %q", *value)
	}
	return &parsed, nil
}

func checkDateRange(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return ErrInvalidDateRange
	}
	return nil
}
