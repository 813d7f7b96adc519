package contract_test

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cohort-lms-api/internal/config"
	"github.com/noah-isme/cohort-lms-api/internal/handler"
	"github.com/noah-isme/cohort-lms-api/internal/router"
)

func TestRouterExposesPublishedSurface(t *testing.T) {
	logger := zerolog.Nop()
	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", AuthRateLimit: 100, AuthRateWindow: time.Minute}, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(nil, logger),
		UserHandler:         handler.NewUserHandler(nil, logger),
		CatalogHandler:      handler.NewCatalogHandler(nil, logger),
		BatchHandler:        handler.NewBatchHandler(nil, logger),
		AssessmentHandler:   handler.NewAssessmentHandler(nil, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(nil, logger),
		StudentHandler:      handler.NewStudentHandler(nil, nil, logger),
		LiveClassHandler:    handler.NewLiveClassHandler(nil, logger),
		NotificationHandler: handler.NewNotificationHandler(nil, logger, time.Second),
		JWTMiddleware:       func(c *fiber.Ctx) error { return c.Next() },
	})

	registered := make(map[string]struct{})
	for _, route := range app.GetRoutes(true) {
		registered[route.Method+" "+route.Path] = struct{}{}
	}

	expected := []string{
		"GET /metrics",
		"GET /api/v1/health",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/logout",
		"POST /api/v1/auth/forgot-password",
		"POST /api/v1/auth/reset-password",
		"GET /api/v1/auth/me",

		"GET /api/v1/admin/users",
		"POST /api/v1/admin/users",
		"POST /api/v1/admin/users/bulk",
		"POST /api/v1/admin/users/:id/approve",
		"POST /api/v1/admin/users/:id/reject",
		"DELETE /api/v1/admin/users/:id",
		"GET /api/v1/admin/courses",
		"POST /api/v1/admin/courses",
		"PUT /api/v1/admin/courses/:courseID",
		"DELETE /api/v1/admin/courses/:courseID",
		"GET /api/v1/admin/courses/:courseID/modules",
		"POST /api/v1/admin/courses/:courseID/modules",
		"PUT /api/v1/admin/courses/:courseID/modules/:moduleID",
		"DELETE /api/v1/admin/courses/:courseID/modules/:moduleID",
		"GET /api/v1/admin/courses/:courseID/modules/:moduleID/lessons",
		"POST /api/v1/admin/courses/:courseID/modules/:moduleID/lessons",
		"PUT /api/v1/admin/courses/:courseID/modules/:moduleID/lessons/:lessonID",
		"DELETE /api/v1/admin/courses/:courseID/modules/:moduleID/lessons/:lessonID",
		"POST /api/v1/admin/lessons/:lessonID/approve",
		"GET /api/v1/admin/batches",
		"POST /api/v1/admin/batches",
		"PUT /api/v1/admin/batches/:batchID",
		"DELETE /api/v1/admin/batches/:batchID",
		"GET /api/v1/admin/batches/:batchID/students",
		"POST /api/v1/admin/batches/:batchID/members",
		"DELETE /api/v1/admin/batches/:batchID/students/:userID",
		"DELETE /api/v1/admin/batches/:batchID/teachers/:userID",

		"POST /api/v1/staff/lessons",
		"POST /api/v1/staff/lessons/:lessonID/pdf",
		"POST /api/v1/staff/quizzes",
		"GET /api/v1/staff/modules/:moduleID/quizzes",
		"GET /api/v1/staff/quizzes/:quizID/questions",
		"POST /api/v1/staff/quizzes/:quizID/questions",
		"PUT /api/v1/staff/quizzes/:quizID/questions/:questionID",
		"DELETE /api/v1/staff/quizzes/:quizID/questions/:questionID",
		"GET /api/v1/staff/batches/:batchID/quizzes/:quizID/marks",
		"POST /api/v1/staff/assignments",
		"DELETE /api/v1/staff/assignments/:assignmentID",
		"GET /api/v1/staff/batches/:batchID/modules/:moduleID/submissions",
		"POST /api/v1/staff/submissions/:submissionID/feedback",
		"POST /api/v1/staff/live-classes",
		"GET /api/v1/staff/teacher/batches",
		"GET /api/v1/staff/teacher/students",

		"GET /api/v1/student/courses",
		"GET /api/v1/student/courses/:courseID/modules",
		"GET /api/v1/student/courses/:courseID/modules/:moduleID/lessons",
		"GET /api/v1/student/courses/:courseID/modules/:moduleID/lessons/:lessonID",
		"POST /api/v1/student/lessons/:lessonID/complete",
		"POST /api/v1/student/lessons/:lessonID/feedback",
		"GET /api/v1/student/modules/:moduleID/quizzes",
		"GET /api/v1/student/quizzes/:quizID/questions",
		"POST /api/v1/student/questions/:questionID/answers",
		"GET /api/v1/student/quizzes/:quizID/marks",
		"GET /api/v1/student/modules/:moduleID/assignments",
		"POST /api/v1/student/modules/:moduleID/submissions",
		"GET /api/v1/student/feedback",
		"GET /api/v1/student/live-classes",

		"GET /api/v1/notifications/",
		"GET /api/v1/notifications/stream",
		"GET /api/v1/notifications/ws",
		"PATCH /api/v1/notifications/:id/read",
	}

	for _, route := range expected {
		_, ok := registered[route]
		require.True(t, ok, "missing route %s", route)
	}
}
