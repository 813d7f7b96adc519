package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/middleware"
	"github.com/noah-isme/cohort-lms-api/internal/policy"
	"github.com/noah-isme/cohort-lms-api/internal/service"
	"github.com/noah-isme/cohort-lms-api/internal/utils"
)

// UserHandler exposes account administration to admins.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches the user administration routes.
func (h *UserHandler) Register(router fiber.Router) {
	guard := middleware.Authorize(policy.UserManage)
	router.Get("/users", guard, h.list)
	router.Post("/users", guard, h.create)
	router.Post("/users/bulk", guard, h.bulkCreate)
	router.Post("/users/:id/approve", guard, h.approve)
	router.Post("/users/:id/reject", guard, h.reject)
	router.Delete("/users/:id", guard, h.delete)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	approved, err := parseQueryBool(c, "approved")
	if err != nil {
		return badRequest(c, "approved must be true or false")
	}

	filter := service.UserListFilter{
		Role:     strings.ToLower(strings.TrimSpace(c.Query("role"))),
		Approved: approved,
		Search:   strings.TrimSpace(c.Query("search")),
	}

	users, err := h.service.List(requestContext(c), filter)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, users, "users retrieved", fiber.Map{"count": len(users)})
}

func (h *UserHandler) create(c *fiber.Ctx) error {
	var payload dto.UserCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	user, err := h.service.Create(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user created", user)
}

func (h *UserHandler) bulkCreate(c *fiber.Ctx) error {
	var records []dto.UserCreateRequest
	if err := c.BodyParser(&records); err != nil {
		return invalidBody(c)
	}
	if len(records) == 0 {
		return badRequest(c, "no records supplied")
	}

	results := h.service.BulkCreate(requestContext(c), records)
	created := 0
	for _, result := range results {
		if result.Created {
			created++
		}
	}

	return utils.OK(c, results, "bulk import processed", fiber.Map{
		"created": created,
		"failed":  len(results) - created,
	})
}

func (h *UserHandler) approve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.UserApproveRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	user, err := h.service.Approve(requestContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "user approved", user)
}

func (h *UserHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.service.Reject(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "user rejected", user)
}

func (h *UserHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Delete(requestContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "user deleted", fiber.Map{"id": id})
}
