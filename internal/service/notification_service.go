package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
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

const (
	notificationBufferSize = 16
	deliveredHistorySize   = 4096
)

// NotificationService stores per-user notifications and streams them to connected clients.
type NotificationService interface {
	Deliver(ctx context.Context, notifications []models.Notification)
	List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error)
	Subscribe(userID uint) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo         repository.NotificationRepository
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	tracer       trace.Tracer
	broker       *notificationBroker
	nodeID       string
	now          func() time.Time
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.NotificationResponse]struct{}

	historyMu sync.Mutex
	delivered map[uint]struct{}
	history   []uint
}

// NewNotificationService constructs a notification service. Redis and NATS are optional relays
// used to reach subscribers connected to other nodes.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) NotificationService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:         repo,
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "notification_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/cohort-lms-api/internal/service/notification"),
		broker: &notificationBroker{
			subscribers: make(map[uint]map[chan dto.NotificationResponse]struct{}),
			delivered:   make(map[uint]struct{}),
		},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

// Start attaches the cross-node relay. NATS wins over Redis when both are configured so every
// event travels on exactly one relay.
func (s *notificationService) Start(ctx context.Context) {
	switch {
	case s.natsEnabled():
		go s.consumeNATS(ctx)
	case s.redisEnabled():
		go s.consumeRedis(ctx)
	}
}

// Deliver pushes already persisted notifications to local subscribers and relays them to other
// nodes. Reminders whose notification time is still ahead are skipped; List and Feed surface them
// once due.
func (s *notificationService) Deliver(ctx context.Context, notifications []models.Notification) {
	if len(notifications) == 0 {
		return
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.deliver", trace.WithAttributes(
		attribute.Int("notification.count", len(notifications)),
	))
	defer span.End()

	now := s.now().UTC()
	pushed := 0
	for _, model := range notifications {
		if model.NotificationTime.After(now) {
			continue
		}
		response := dto.NewNotificationResponse(model)
		s.broadcast(response)
		if err := s.publish(spanCtx, response); err != nil {
			span.RecordError(err)
			s.logger.Warn().Err(err).Uint("user_id", response.UserID).Msg("failed to relay notification")
		}
		observability.NotificationsPublished().WithLabelValues(response.Type).Inc()
		pushed++
	}
	span.SetAttributes(attribute.Int("notification.pushed", pushed))
}

func (s *notificationService) List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	if userID == 0 {
		return nil, InvalidInput("user id is required")
	}

	notifications, err := s.repo.ListDue(ctx, userID, s.now().UTC(), limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.Int64("notification.user_id", int64(userID)),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(spanCtx, id, userID)
	if err != nil {
		if isNotFound(err) {
			return dto.NotificationResponse{}, NotFound("Notification not found")
		}
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) Subscribe(userID uint) (<-chan dto.NotificationResponse, func()) {
	channel := make(chan dto.NotificationResponse, notificationBufferSize)

	s.broker.subscribe(userID, channel)
	observability.RealtimeClientsActive().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(userID, channel)
			observability.RealtimeClientsActive().Dec()
		})
	}

	return channel, cleanup
}

// broadcast reports false when the notification already reached local subscribers.
func (s *notificationService) broadcast(notification dto.NotificationResponse) bool {
	if !s.broker.firstDelivery(notification.ID) {
		return false
	}
	s.broker.broadcast(notification.UserID, notification)
	return true
}

func (s *notificationService) natsEnabled() bool {
	return s.nats != nil && s.natsSubject != ""
}

func (s *notificationService) redisEnabled() bool {
	return !s.natsEnabled() && s.redis != nil && s.redisChannel != ""
}

func (s *notificationService) publish(ctx context.Context, notification dto.NotificationResponse) error {
	if !s.natsEnabled() && !s.redisEnabled() {
		return nil
	}

	event := notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       s.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.natsEnabled() {
		return s.nats.Publish(s.natsSubject, payload)
	}
	return s.redis.Publish(ctx, s.redisChannel, payload).Err()
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

func (s *notificationService) handleEvent(payload []byte) {
	var event notificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	notification := event.Notification
	if notification.Type == "" {
		notification.Type = models.NotificationTypeLiveClass
	}

	if s.broadcast(notification) {
		observability.NotificationsPublished().WithLabelValues(notification.Type).Inc()
	}
}

func (b *notificationBroker) subscribe(userID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan dto.NotificationResponse]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(userID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		if _, present := subscribers[ch]; !present {
			return
		}
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

// firstDelivery remembers the most recent notification IDs. Unsaved notifications carry no ID
// and always pass.
func (b *notificationBroker) firstDelivery(id uint) bool {
	if id == 0 {
		return true
	}

	b.historyMu.Lock()
	defer b.historyMu.Unlock()

	if _, seen := b.delivered[id]; seen {
		return false
	}
	b.delivered[id] = struct{}{}
	b.history = append(b.history, id)
	if len(b.history) > deliveredHistorySize {
		delete(b.delivered, b.history[0])
		b.history = b.history[1:]
	}
	return true
}

func (b *notificationBroker) broadcast(userID uint, notification dto.NotificationResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[userID] {
		select {
		case ch <- notification:
		default:
		}
	}
}
