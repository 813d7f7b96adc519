package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/cohort-lms-api/internal/config"
	"github.com/noah-isme/cohort-lms-api/internal/handler"
	"github.com/noah-isme/cohort-lms-api/internal/middleware"
	"github.com/noah-isme/cohort-lms-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	CatalogHandler      *handler.CatalogHandler
	BatchHandler        *handler.BatchHandler
	AssessmentHandler   *handler.AssessmentHandler
	AssignmentHandler   *handler.AssignmentHandler
	StudentHandler      *handler.StudentHandler
	LiveClassHandler    *handler.LiveClassHandler
	NotificationHandler *handler.NotificationHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler(cfg.MetricsToken))

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Routes without a JWT middleware are left unmounted rather than exposed.
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error {
			return fiber.ErrUnauthorized
		}
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", cfg.AuthRateLimit, cfg.AuthRateWindow))
		deps.AuthHandler.Register(auth, jwtMiddleware)
	}

	admin := api.Group("/admin", jwtMiddleware)
	if deps.UserHandler != nil {
		deps.UserHandler.Register(admin)
	}
	if deps.CatalogHandler != nil {
		deps.CatalogHandler.RegisterAdmin(admin)
	}
	if deps.BatchHandler != nil {
		deps.BatchHandler.RegisterAdmin(admin)
	}

	staff := api.Group("/staff", jwtMiddleware)
	if deps.CatalogHandler != nil {
		deps.CatalogHandler.RegisterStaff(staff)
	}
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.RegisterStaff(staff)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterStaff(staff)
	}
	if deps.LiveClassHandler != nil {
		deps.LiveClassHandler.RegisterStaff(staff)
	}
	if deps.BatchHandler != nil {
		deps.BatchHandler.RegisterTeacher(staff)
	}

	student := api.Group("/student", jwtMiddleware)
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(student)
	}
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.RegisterStudent(student)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterStudent(student)
	}
	if deps.LiveClassHandler != nil {
		deps.LiveClassHandler.RegisterStudent(student)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}
}
