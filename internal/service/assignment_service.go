package service

import (
	"context"
	"fmt"
	"math"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/observability"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
)

const (
	lateSubmissionMessage   = "Due date has passed. Your submission is late."
	onTimeSubmissionMessage = "Assignment submitted successfully."
	pastDueLabel            = "Past Due"
)

var dueDateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// AssignmentService covers the assignment lifecycle from creation to feedback.
type AssignmentService interface {
	Create(ctx context.Context, actorID uint, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint) error
	ForStudent(ctx context.Context, studentID, moduleID uint) ([]dto.StudentAssignmentResponse, error)
	Submit(ctx context.Context, studentID, moduleID uint, assignmentID *uint, file *multipart.FileHeader) (dto.SubmissionResultResponse, error)
	ListSubmissions(ctx context.Context, batchID, moduleID uint) ([]dto.SubmissionResponse, error)
	ProvideFeedback(ctx context.Context, actorID, submissionID uint, payload dto.SubmissionFeedbackRequest) (dto.SubmissionResponse, error)
	FeedbackForStudent(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error)
}

// AssignmentRepositories groups the stores used by the assignment workflow.
type AssignmentRepositories struct {
	Modules     repository.ModuleRepository
	Lessons     repository.LessonRepository
	Batches     repository.BatchRepository
	Enrollments repository.EnrollmentRepository
	Assignments repository.AssignmentRepository
	Submissions repository.SubmissionRepository
}

type assignmentService struct {
	repos       AssignmentRepositories
	progression ProgressionService
	uploads     UploadService
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(repos AssignmentRepositories, progression ProgressionService, uploads UploadService, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repos:       repos,
		progression: progression,
		uploads:     uploads,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/cohort-lms-api/internal/service/assignment"),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, actorID uint, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueDate, err := parseDueDate(payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if !dueDate.After(s.now()) {
		return dto.AssignmentResponse{}, ErrDueDateInPast
	}

	batch, err := s.repos.Batches.GetByID(ctx, payload.BatchID)
	if err != nil {
		if isNotFound(err) {
			return dto.AssignmentResponse{}, ErrBatchNotFound
		}
		return dto.AssignmentResponse{}, err
	}
	if batch.CourseID != payload.CourseID {
		return dto.AssignmentResponse{}, ErrBatchCourseMismatch
	}
	if _, err := s.repos.Modules.GetInCourse(ctx, payload.CourseID, payload.ModuleID); err != nil {
		if isNotFound(err) {
			return dto.AssignmentResponse{}, ErrModuleNotFound
		}
		return dto.AssignmentResponse{}, err
	}
	if _, err := s.repos.Lessons.GetInModule(ctx, payload.CourseID, payload.ModuleID, payload.LessonID); err != nil {
		if isNotFound(err) {
			return dto.AssignmentResponse{}, ErrLessonNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		CourseID:       payload.CourseID,
		ModuleID:       payload.ModuleID,
		LessonID:       payload.LessonID,
		BatchID:        payload.BatchID,
		Title:          strings.TrimSpace(payload.Title),
		ContentType:    payload.ContentType,
		SubmissionLink: strings.TrimSpace(payload.SubmissionLink),
		DueDate:        dueDate.UTC(),
		CreatedBy:      actorID,
	}

	switch payload.ContentType {
	case models.AssignmentContentPDF:
		if file == nil {
			return dto.AssignmentResponse{}, ErrFileRequired
		}
		stored, err := s.uploads.Store(ctx, file, PDFOnly)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.ContentURL = stored.URL
	case models.AssignmentContentTyped:
		content := strings.TrimSpace(payload.Content)
		if content == "" {
			return dto.AssignmentResponse{}, InvalidInput("Content is required for typed assignments")
		}
		assignment.Content = content
	default:
		return dto.AssignmentResponse{}, ErrInvalidContentType
	}

	if err := s.repos.Assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}
	s.progression.InvalidateCourse(ctx, assignment.CourseID)

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("batch_id", assignment.BatchID).Msg("assignment created")
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint) error {
	assignment, err := s.repos.Assignments.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrAssignmentNotFound
		}
		return err
	}
	if err := s.repos.Assignments.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrAssignmentNotFound
		}
		return err
	}
	s.progression.InvalidateCourse(ctx, assignment.CourseID)
	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

// ForStudent lists the module's assignments in the student's batches with the time left to submit.
func (s *assignmentService) ForStudent(ctx context.Context, studentID, moduleID uint) ([]dto.StudentAssignmentResponse, error) {
	assignments, err := s.studentAssignments(ctx, studentID, moduleID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		ids = append(ids, assignment.ID)
	}
	submitted, err := s.repos.Submissions.SubmittedAssignmentIDs(ctx, studentID, ids)
	if err != nil {
		return nil, err
	}
	submittedSet := make(map[uint]struct{}, len(submitted))
	for _, id := range submitted {
		submittedSet[id] = struct{}{}
	}

	now := s.now()
	out := make([]dto.StudentAssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		_, done := submittedSet[assignment.ID]
		out = append(out, dto.StudentAssignmentResponse{
			AssignmentResponse: dto.NewAssignmentResponse(assignment),
			ViewTime:           ViewTime(assignment.DueDate, now),
			Submitted:          done,
		})
	}
	return out, nil
}

// Submit stores the student's file against an assignment of the module. Without an explicit
// assignment the earliest due assignment the student has not yet submitted is used.
func (s *assignmentService) Submit(ctx context.Context, studentID, moduleID uint, assignmentID *uint, file *multipart.FileHeader) (dto.SubmissionResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignment.submit", trace.WithAttributes(
		attribute.Int64("assignment.student_id", int64(studentID)),
		attribute.Int64("assignment.module_id", int64(moduleID)),
	))
	defer span.End()

	if file == nil {
		return dto.SubmissionResultResponse{}, ErrFileRequired
	}
	module, err := s.progression.RequireModuleUnlocked(ctx, studentID, moduleID)
	if err != nil {
		return dto.SubmissionResultResponse{}, err
	}

	assignment, err := s.pickAssignment(ctx, studentID, moduleID, assignmentID)
	if err != nil {
		return dto.SubmissionResultResponse{}, err
	}

	stored, err := s.uploads.Store(ctx, file, SubmissionTypes)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResultResponse{}, err
	}

	submittedAt := s.now().UTC()
	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    studentID,
		BatchID:      assignment.BatchID,
		ContentURL:   stored.URL,
		Status:       assignment.SubmissionStatusAt(submittedAt),
		SubmittedAt:  submittedAt,
	}
	if err := s.repos.Submissions.Create(ctx, &submission); err != nil {
		if isDuplicate(err) {
			return dto.SubmissionResultResponse{}, ErrAlreadySubmitted
		}
		span.RecordError(err)
		return dto.SubmissionResultResponse{}, err
	}

	observability.Submissions().WithLabelValues(submission.Status).Inc()
	s.progression.InvalidateStudent(ctx, studentID, module.CourseID)

	message := onTimeSubmissionMessage
	if submission.Status == models.SubmissionStatusLate {
		message = lateSubmissionMessage
	}
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignment.ID).
		Str("status", submission.Status).
		Msg("assignment submitted")

	return dto.SubmissionResultResponse{
		SubmissionID: submission.ID,
		AssignmentID: assignment.ID,
		Status:       submission.Status,
		SubmittedAt:  submittedAt,
		Message:      message,
	}, nil
}

func (s *assignmentService) pickAssignment(ctx context.Context, studentID, moduleID uint, assignmentID *uint) (models.Assignment, error) {
	assignments, err := s.studentAssignments(ctx, studentID, moduleID)
	if err != nil {
		return models.Assignment{}, err
	}
	if len(assignments) == 0 {
		return models.Assignment{}, ErrAssignmentNotFound
	}

	if assignmentID != nil {
		for _, assignment := range assignments {
			if assignment.ID == *assignmentID {
				exists, err := s.repos.Submissions.Exists(ctx, assignment.ID, studentID)
				if err != nil {
					return models.Assignment{}, err
				}
				if exists {
					return models.Assignment{}, ErrAlreadySubmitted
				}
				return assignment, nil
			}
		}
		return models.Assignment{}, ErrAssignmentNotFound
	}

	ids := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		ids = append(ids, assignment.ID)
	}
	submitted, err := s.repos.Submissions.SubmittedAssignmentIDs(ctx, studentID, ids)
	if err != nil {
		return models.Assignment{}, err
	}
	done := make(map[uint]struct{}, len(submitted))
	for _, id := range submitted {
		done[id] = struct{}{}
	}
	for _, assignment := range assignments {
		if _, ok := done[assignment.ID]; !ok {
			return assignment, nil
		}
	}
	return models.Assignment{}, ErrAlreadySubmitted
}

func (s *assignmentService) studentAssignments(ctx context.Context, studentID, moduleID uint) ([]models.Assignment, error) {
	module, err := s.repos.Modules.GetByID(ctx, moduleID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}
	batchIDs, err := s.repos.Enrollments.StudentBatchIDsForCourse(ctx, studentID, module.CourseID)
	if err != nil {
		return nil, err
	}
	if len(batchIDs) == 0 {
		return nil, ErrNotEnrolled
	}
	return s.repos.Assignments.List(ctx, repository.AssignmentFilter{ModuleIDs: []uint{moduleID}, BatchIDs: batchIDs})
}

func (s *assignmentService) ListSubmissions(ctx context.Context, batchID, moduleID uint) ([]dto.SubmissionResponse, error) {
	if _, err := s.repos.Batches.GetByID(ctx, batchID); err != nil {
		if isNotFound(err) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	if _, err := s.repos.Modules.GetByID(ctx, moduleID); err != nil {
		if isNotFound(err) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}

	submissions, err := s.repos.Submissions.List(ctx, repository.SubmissionFilter{BatchID: &batchID, ModuleID: &moduleID})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *assignmentService) ProvideFeedback(ctx context.Context, actorID, submissionID uint, payload dto.SubmissionFeedbackRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	feedback := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))
	if feedback == "" {
		return dto.SubmissionResponse{}, InvalidInput("Feedback is empty after sanitization")
	}

	submission, err := s.repos.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		if isNotFound(err) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	submission.Feedback = &feedback
	submission.FeedbackBy = &actorID
	if err := s.repos.Submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Uint("feedback_by", actorID).Msg("feedback recorded")
	return dto.NewSubmissionResponse(submission), nil
}

func (s *assignmentService) FeedbackForStudent(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.repos.Submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}

	withFeedback := make([]models.Submission, 0, len(submissions))
	for _, submission := range submissions {
		if submission.Feedback != nil {
			withFeedback = append(withFeedback, submission)
		}
	}
	return dto.NewSubmissionResponseSlice(withFeedback), nil
}

// ViewTime renders the whole days left before due, or "Past Due" once the deadline has passed.
func ViewTime(due, now time.Time) string {
	if now.After(due) {
		return pastDueLabel
	}
	days := int(math.Floor(due.Sub(now).Hours() / 24))
	return fmt.Sprintf("%d days remaining", days)
}

func parseDueDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dueDateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, InvalidInput("Invalid due date format")
}
