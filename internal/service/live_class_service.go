package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/observability"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
)

const liveClassMessageFormat = "Live class begins in 10 minutes. Click here to join: %s"

// LiveClassService schedules live sessions and the reminders that go with them.
type LiveClassService interface {
	Schedule(ctx context.Context, actorID uint, payload dto.LiveClassRequest) (dto.LiveClassScheduledResponse, error)
	Feed(ctx context.Context, studentID uint) (dto.LiveClassFeedResponse, error)
}

type liveClassService struct {
	batches       repository.BatchRepository
	enrollments   repository.EnrollmentRepository
	liveClasses   repository.LiveClassRepository
	notifications repository.NotificationRepository
	broker        NotificationService
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewLiveClassService constructs the live class scheduler.
func NewLiveClassService(batches repository.BatchRepository, enrollments repository.EnrollmentRepository, liveClasses repository.LiveClassRepository, notifications repository.NotificationRepository, broker NotificationService, validate *validator.Validate, logger zerolog.Logger) LiveClassService {
	return &liveClassService{
		batches:       batches,
		enrollments:   enrollments,
		liveClasses:   liveClasses,
		notifications: notifications,
		broker:        broker,
		validator:     validate,
		logger:        logger.With().Str("component", "live_class_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/cohort-lms-api/internal/service/liveclass"),
		now:           time.Now,
	}
}

// Schedule stores the class and queues one reminder per enrolled student.
// A failed reminder insert leaves the class in place.
func (s *liveClassService) Schedule(ctx context.Context, actorID uint, payload dto.LiveClassRequest) (dto.LiveClassScheduledResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LiveClassScheduledResponse{}, err
	}
	scheduled, err := time.Parse(time.RFC3339, strings.TrimSpace(payload.ScheduledTime))
	if err != nil {
		return dto.LiveClassScheduledResponse{}, InvalidInput("Invalid scheduled time")
	}

	batch, err := s.batches.GetByID(ctx, payload.BatchID)
	if err != nil {
		if isNotFound(err) {
			return dto.LiveClassScheduledResponse{}, ErrBatchNotFound
		}
		return dto.LiveClassScheduledResponse{}, err
	}
	if batch.CourseID != payload.CourseID {
		return dto.LiveClassScheduledResponse{}, ErrBatchCourseMismatch
	}

	ctx, span := s.tracer.Start(ctx, "liveclass.schedule", trace.WithAttributes(
		attribute.Int64("liveclass.batch_id", int64(batch.ID)),
	))
	defer span.End()

	liveClass := models.LiveClass{
		CourseID:      payload.CourseID,
		BatchID:       payload.BatchID,
		Link:          strings.TrimSpace(payload.Link),
		ScheduledTime: scheduled.UTC(),
		CreatedBy:     actorID,
	}
	if err := s.liveClasses.Create(ctx, &liveClass); err != nil {
		span.RecordError(err)
		return dto.LiveClassScheduledResponse{}, err
	}

	studentIDs, err := s.enrollments.StudentIDs(ctx, batch.ID)
	if err != nil {
		span.RecordError(err)
		return dto.LiveClassScheduledResponse{}, err
	}

	notifications := make([]models.Notification, 0, len(studentIDs))
	message := fmt.Sprintf(liveClassMessageFormat, liveClass.Link)
	for _, studentID := range studentIDs {
		classID := liveClass.ID
		notifications = append(notifications, models.Notification{
			UserID:           studentID,
			LiveClassID:      &classID,
			Type:             models.NotificationTypeLiveClass,
			Message:          message,
			NotificationTime: liveClass.ReminderTime(),
			Metadata: datatypes.JSONMap{
				"course_id":      liveClass.CourseID,
				"batch_id":       liveClass.BatchID,
				"link":           liveClass.Link,
				"scheduled_time": liveClass.ScheduledTime.Format(time.RFC3339),
			},
		})
	}

	if err := s.notifications.CreateBatch(ctx, notifications); err != nil {
		span.RecordError(err)
		return dto.LiveClassScheduledResponse{}, fmt.Errorf("create reminders: %w", err)
	}
	observability.NotificationsFannedOut().Add(float64(len(notifications)))
	span.SetAttributes(attribute.Int("liveclass.notifications", len(notifications)))

	if s.broker != nil {
		s.broker.Deliver(ctx, notifications)
	}

	s.logger.Info().
		Uint("live_class_id", liveClass.ID).
		Uint("batch_id", liveClass.BatchID).
		Int("notifications", len(notifications)).
		Msg("live class scheduled")

	return dto.LiveClassScheduledResponse{
		LiveClass:     dto.NewLiveClassResponse(liveClass),
		Notifications: len(notifications),
	}, nil
}

// Feed returns the student's live classes and unseen due reminders, then acknowledges them.
func (s *liveClassService) Feed(ctx context.Context, studentID uint) (dto.LiveClassFeedResponse, error) {
	batches, err := s.enrollments.StudentBatches(ctx, studentID)
	if err != nil {
		return dto.LiveClassFeedResponse{}, err
	}
	batchIDs := make([]uint, 0, len(batches))
	for _, batch := range batches {
		batchIDs = append(batchIDs, batch.ID)
	}

	classes, err := s.liveClasses.ListByBatches(ctx, batchIDs)
	if err != nil {
		return dto.LiveClassFeedResponse{}, err
	}
	if len(classes) == 0 {
		return dto.LiveClassFeedResponse{}, ErrNoLiveClasses
	}

	now := s.now().UTC()
	unseen, err := s.notifications.ListUnseenDue(ctx, studentID, now)
	if err != nil {
		return dto.LiveClassFeedResponse{}, err
	}

	if _, err := s.notifications.MarkAllSeen(ctx, studentID, now); err != nil {
		return dto.LiveClassFeedResponse{}, err
	}

	return dto.LiveClassFeedResponse{
		LiveClasses:   dto.NewLiveClassResponseSlice(classes),
		Notifications: dto.NewNotificationResponseSlice(unseen),
	}, nil
}
