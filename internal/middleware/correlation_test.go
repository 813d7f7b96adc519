package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newCorrelationApp() *fiber.App {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/echo", func(c *fiber.Ctx) error {
		return c.SendString(GetCorrelationID(c) + "|" + CorrelationIDFromContext(c.UserContext()))
	})
	return app
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.String()
}

func TestCorrelationIDPropagatesIncomingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(CorrelationHeader, "course-42")

	resp, err := newCorrelationApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, "course-42", resp.Header.Get(CorrelationHeader))
	require.Equal(t, "course-42|course-42", readBody(t, resp))
}

func TestCorrelationIDFallsBackToRequestIDAndQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("X-Request-ID", "req-1")
	resp, err := newCorrelationApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, "req-1", resp.Header.Get(CorrelationHeader))

	resp, err = newCorrelationApp().Test(httptest.NewRequest(http.MethodGet, "/echo?correlation_id=ws-7", nil))
	require.NoError(t, err)
	require.Equal(t, "ws-7", resp.Header.Get(CorrelationHeader))
}

func TestCorrelationIDGeneratesWhenMissingOrOversized(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(CorrelationHeader, strings.Repeat("x", maxCorrelationLength+1))

	resp, err := newCorrelationApp().Test(req)
	require.NoError(t, err)
	generated := resp.Header.Get(CorrelationHeader)
	require.Len(t, generated, 36)
	require.Equal(t, generated+"|"+generated, readBody(t, resp))
}

func TestRegisterExposesCorrelationHeaderToBrowsers(t *testing.T) {
	app := fiber.New()
	Register(app, Config{AllowOrigins: "https://lms.example.com"})
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://lms.example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "https://lms.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), CorrelationHeader)
	require.NotEmpty(t, resp.Header.Get(CorrelationHeader))
}
