package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cohort-lms-api/internal/auth"
	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
)

const resetTokenBytes = 32

// AuthConfig holds password reset settings.
type AuthConfig struct {
	ResetTTL time.Duration
	ResetURL string
}

// AuthService handles account sign-up, sign-in and password recovery.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.UserResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
	ForgotPassword(ctx context.Context, payload dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, payload dto.ResetPasswordRequest) error
}

type authService struct {
	users     repository.UserRepository
	tokens    *auth.TokenManager
	hasher    auth.PasswordHasher
	mailer    Mailer
	validator *validator.Validate
	config    AuthConfig
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService wires the authentication use cases.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, hasher auth.PasswordHasher, mailer Mailer, validate *validator.Validate, cfg AuthConfig, logger zerolog.Logger) AuthService {
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &authService{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		mailer:    mailer,
		validator: validate,
		config:    cfg,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	email := normalizeEmail(payload.Email)
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if exists {
		return dto.UserResponse{}, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(payload.Password)
	if err != nil {
		return dto.UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:         strings.TrimSpace(payload.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleStudent,
		Status:       models.UserStatusPending,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if isDuplicate(err) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user registered")
	return dto.NewUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(payload.Email))
	if err != nil {
		if isNotFound(err) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if !s.hasher.Compare(user.PasswordHash, payload.Password) {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}
	if !user.IsApproved {
		return dto.AuthResponse{}, ErrAccountNotApproved
	}

	token, expiresAt, err := s.tokens.Issue(auth.Principal{ID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user logged in")
	return dto.AuthResponse{Token: token, ExpiresAt: expiresAt, User: dto.NewUserResponse(user)}, nil
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) ForgotPassword(ctx context.Context, payload dto.ForgotPasswordRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(payload.Email))
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.config.ResetTTL)
	user.ResetToken = &token
	user.ResetTokenExpiration = &expiresAt
	if err := s.users.Update(ctx, &user); err != nil {
		return err
	}

	body := fmt.Sprintf("You requested a password reset. Use the link below within %s:\n%s",
		s.config.ResetTTL, s.resetLink(token))
	if err := s.mailer.Send(ctx, user.Email, "Password Reset Request", body); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("password reset requested")
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, payload dto.ResetPasswordRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	user, err := s.users.GetByResetToken(ctx, payload.Token)
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidResetToken
		}
		return err
	}
	if !user.ResetTokenValid(payload.Token, s.now()) {
		return ErrInvalidResetToken
	}

	hash, err := s.hasher.Hash(payload.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.ResetToken = nil
	user.ResetTokenExpiration = nil
	if err := s.users.Update(ctx, &user); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("password reset completed")
	return nil
}

func (s *authService) resetLink(token string) string {
	base := strings.TrimRight(s.config.ResetURL, "/")
	if base == "" {
		return token
	}
	return base + "?token=" + url.QueryEscape(token)
}

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
