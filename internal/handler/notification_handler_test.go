package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/handler"
	"github.com/noah-isme/cohort-lms-api/internal/service"
)

type mockNotificationService struct {
	service.NotificationService
	listUser, listLimit, listOffset int
	readID, readUser                uint
}

func (m *mockNotificationService) List(_ context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	m.listUser, m.listLimit, m.listOffset = int(userID), limit, offset
	return []dto.NotificationResponse{{ID: 1, UserID: userID, Message: "Live class begins in 10 minutes."}}, nil
}

func (m *mockNotificationService) MarkRead(_ context.Context, id, userID uint) (dto.NotificationResponse, error) {
	m.readID, m.readUser = id, userID
	if id == 404 {
		return dto.NotificationResponse{}, service.NotFound("Notification not found")
	}
	return dto.NotificationResponse{ID: id, UserID: userID, Seen: true}, nil
}

func newNotificationApp(svc service.NotificationService) *fiber.App {
	app := fiber.New()
	app.Use(asUser(8, "student"))
	handler.NewNotificationHandler(svc, zerolog.New(io.Discard), time.Second).Register(app.Group("/notifications"))
	return app
}

func TestNotificationHandler_ListUsesPrincipal(t *testing.T) {
	svc := &mockNotificationService{}

	resp, err := newNotificationApp(svc).Test(httptest.NewRequest(http.MethodGet, "/notifications?limit=5&offset=10", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 8, svc.listUser)
	require.Equal(t, 5, svc.listLimit)
	require.Equal(t, 10, svc.listOffset)

	resp, err = newNotificationApp(svc).Test(httptest.NewRequest(http.MethodGet, "/notifications?limit=x", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	svc := &mockNotificationService{}

	resp, err := newNotificationApp(svc).Test(httptest.NewRequest(http.MethodPatch, "/notifications/3/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(3), svc.readID)
	require.Equal(t, uint(8), svc.readUser)

	resp, err = newNotificationApp(svc).Test(httptest.NewRequest(http.MethodPatch, "/notifications/404/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestNotificationHandler_WebSocketRequiresUpgrade(t *testing.T) {
	resp, err := newNotificationApp(&mockNotificationService{}).Test(httptest.NewRequest(http.MethodGet, "/notifications/ws", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
