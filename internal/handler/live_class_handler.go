package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/middleware"
	"github.com/noah-isme/cohort-lms-api/internal/policy"
	"github.com/noah-isme/cohort-lms-api/internal/service"
	"github.com/noah-isme/cohort-lms-api/internal/utils"
)

// LiveClassHandler schedules live sessions and serves the student feed.
type LiveClassHandler struct {
	service service.LiveClassService
	logger  zerolog.Logger
}

// NewLiveClassHandler constructs the handler.
func NewLiveClassHandler(service service.LiveClassService, logger zerolog.Logger) *LiveClassHandler {
	return &LiveClassHandler{
		service: service,
		logger:  logger.With().Str("component", "live_class_handler").Logger(),
	}
}

// RegisterStaff attaches the scheduling route.
func (h *LiveClassHandler) RegisterStaff(router fiber.Router) {
	router.Post("/live-classes", middleware.Authorize(policy.LiveClassWrite), h.schedule)
}

// RegisterStudent attaches the student feed.
func (h *LiveClassHandler) RegisterStudent(router fiber.Router) {
	router.Get("/live-classes", middleware.Authorize(policy.StudentSelf), h.feed)
}

func (h *LiveClassHandler) schedule(c *fiber.Ctx) error {
	var payload dto.LiveClassRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	scheduled, err := h.service.Schedule(requestContext(c), userIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "live class scheduled", scheduled)
}

func (h *LiveClassHandler) feed(c *fiber.Ctx) error {
	feed, err := h.service.Feed(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, feed, "live classes retrieved", fiber.Map{
		"live_classes":  len(feed.LiveClasses),
		"notifications": len(feed.Notifications),
	})
}
