package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/service"
	"github.com/noah-isme/cohort-lms-api/internal/utils"
)

// AuthHandler exposes account sign-up, sign-in and password recovery.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches the public auth endpoints. protected guards the routes that need a session.
func (h *AuthHandler) Register(router fiber.Router, protected fiber.Handler) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)
	router.Post("/forgot-password", h.forgotPassword)
	router.Post("/reset-password", h.resetPassword)
	router.Post("/logout", protected, h.logout)
	router.Get("/me", protected, h.me)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	user, err := h.service.Register(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "registration received, awaiting approval", user)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	session, err := h.service.Login(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "login successful", session)
}

// logout is acknowledged only; tokens are stateless and expire on their own.
func (h *AuthHandler) logout(c *fiber.Ctx) error {
	requestLogger(h.logger, c).Info().Uint("user_id", userIDFromContext(c)).Msg("user logged out")
	return utils.SendSuccess(c, "logout successful", nil)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	user, err := h.service.Me(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "profile retrieved", user)
}

func (h *AuthHandler) forgotPassword(c *fiber.Ctx) error {
	var payload dto.ForgotPasswordRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	if err := h.service.ForgotPassword(requestContext(c), payload); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "password reset email sent", nil)
}

func (h *AuthHandler) resetPassword(c *fiber.Ctx) error {
	var payload dto.ResetPasswordRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	if err := h.service.ResetPassword(requestContext(c), payload); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "password has been reset", nil)
}
