package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
)

func TestNotificationDeliverReachesLocalSubscriber(t *testing.T) {
	h := newHarness(t)
	svc := NewNotificationService(repository.NewNotificationRepository(h.db), nil, "", nil, zerolog.Nop())

	stream, cancel := svc.Subscribe(7)
	defer cancel()
	other, cancelOther := svc.Subscribe(8)
	defer cancelOther()

	svc.Deliver(context.Background(), []models.Notification{{ID: 1, UserID: 7, Type: models.NotificationTypeLiveClass, Message: "hello"}})

	select {
	case got := <-stream:
		require.Equal(t, "hello", got.Message)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}

	select {
	case <-other:
		t.Fatal("notification leaked to another user")
	default:
	}
}

func TestNotificationRelayAcrossNodes(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	h := newHarness(t)
	repo := repository.NewNotificationRepository(h.db)

	sender := NewNotificationService(repo, redis.NewClient(&redis.Options{Addr: mr.Addr()}), "lms:test", nil, zerolog.Nop())
	receiver := NewNotificationService(repo, redis.NewClient(&redis.Options{Addr: mr.Addr()}), "lms:test", nil, zerolog.Nop())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	receiver.Start(ctx)

	stream, cancel := receiver.Subscribe(42)
	defer cancel()

	require.Eventually(t, func() bool {
		sender.Deliver(ctx, []models.Notification{{ID: 9, UserID: 42, Type: models.NotificationTypeLiveClass, Message: "relay"}})
		select {
		case got := <-stream:
			return got.Message == "relay"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationListAndMarkRead(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 1)
	repo := repository.NewNotificationRepository(h.db)
	svc := NewNotificationService(repo, nil, "", nil, zerolog.Nop())
	ctx := context.Background()

	due := models.Notification{UserID: f.student.ID, Type: models.NotificationTypeLiveClass, Message: "due", NotificationTime: time.Now().Add(-time.Minute)}
	future := models.Notification{UserID: f.student.ID, Type: models.NotificationTypeLiveClass, Message: "later", NotificationTime: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateBatch(ctx, []models.Notification{due, future}))

	items, err := svc.List(ctx, f.student.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "due", items[0].Message)

	read, err := svc.MarkRead(ctx, items[0].ID, f.student.ID)
	require.NoError(t, err)
	require.True(t, read.Seen)

	_, err = svc.MarkRead(ctx, items[0].ID, f.teacher.ID)
	require.Equal(t, KindNotFound, kindOf(err))
}

func TestNotificationDeliverSkipsRemindersNotYetDue(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 1)
	repo := repository.NewNotificationRepository(h.db)
	svc := NewNotificationService(repo, nil, "", nil, zerolog.Nop()).(*notificationService)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = fixedClock(start)

	require.NoError(t, repo.CreateBatch(ctx, []models.Notification{
		{UserID: f.student.ID, Type: models.NotificationTypeLiveClass, Message: "later", NotificationTime: start.Add(5 * time.Minute)},
		{UserID: f.student.ID, Type: models.NotificationTypeLiveClass, Message: "now", NotificationTime: start.Add(-time.Minute)},
	}))
	var stored []models.Notification
	require.NoError(t, h.db.Where("user_id = ?", f.student.ID).Order("id ASC").Find(&stored).Error)
	require.Len(t, stored, 2)

	stream, cancel := svc.Subscribe(f.student.ID)
	defer cancel()

	svc.Deliver(ctx, stored)

	select {
	case got := <-stream:
		require.Equal(t, "now", got.Message)
	case <-time.After(time.Second):
		t.Fatal("due notification not delivered")
	}
	select {
	case got := <-stream:
		t.Fatalf("reminder %q pushed before its notification time", got.Message)
	default:
	}

	svc.now = fixedClock(start.Add(10 * time.Minute))
	listed, err := svc.List(ctx, f.student.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	// redelivering the already pushed row does not repeat it
	svc.Deliver(ctx, stored[1:])
	select {
	case got := <-stream:
		t.Fatalf("notification %q delivered twice", got.Message)
	default:
	}
}

func TestNotificationRemoteEventDeliveredOnce(t *testing.T) {
	svc := NewNotificationService(nil, nil, "", nil, zerolog.Nop()).(*notificationService)

	stream, cancel := svc.Subscribe(42)
	defer cancel()

	payload, err := json.Marshal(notificationEvent{
		Source:       "another-node",
		Notification: dto.NotificationResponse{ID: 77, UserID: 42, Type: models.NotificationTypeLiveClass, Message: "twice"},
		SentAt:       time.Now().UTC(),
	})
	require.NoError(t, err)

	// the same event arriving over both relays
	svc.handleEvent(payload)
	svc.handleEvent(payload)

	select {
	case got := <-stream:
		require.Equal(t, "twice", got.Message)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
	select {
	case <-stream:
		t.Fatal("duplicate notification delivered")
	default:
	}
}

func TestNotificationRelayPrefersSingleTransport(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	svc := NewNotificationService(nil, redis.NewClient(&redis.Options{Addr: mr.Addr()}), "lms:test", nil, zerolog.Nop()).(*notificationService)
	require.False(t, svc.natsEnabled())
	require.True(t, svc.redisEnabled())

	local := NewNotificationService(nil, nil, "", nil, zerolog.Nop()).(*notificationService)
	require.False(t, local.natsEnabled())
	require.False(t, local.redisEnabled())
	require.NoError(t, local.publish(context.Background(), dto.NotificationResponse{ID: 1, UserID: 1}))
}
