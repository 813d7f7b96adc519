package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cohort-lms-api/internal/auth"
	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
)

// UserListFilter narrows the administrative user listing.
type UserListFilter struct {
	Role     string
	Approved *bool
	Search   string
}

// UserService exposes account administration.
type UserService interface {
	List(ctx context.Context, filter UserListFilter) ([]dto.UserResponse, error)
	Create(ctx context.Context, payload dto.UserCreateRequest) (dto.UserResponse, error)
	BulkCreate(ctx context.Context, records []dto.UserCreateRequest) []dto.BulkUserResult
	Approve(ctx context.Context, id uint, payload dto.UserApproveRequest) (dto.UserResponse, error)
	Reject(ctx context.Context, id uint) (dto.UserResponse, error)
	Delete(ctx context.Context, id uint) error
}

type userService struct {
	repo      repository.UserRepository
	hasher    auth.PasswordHasher
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserService builds the user administration service.
func NewUserService(repo repository.UserRepository, hasher auth.PasswordHasher, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		repo:      repo,
		hasher:    hasher,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, filter UserListFilter) ([]dto.UserResponse, error) {
	repoFilter := repository.UserFilter{Approved: filter.Approved, Search: filter.Search}
	if role := strings.TrimSpace(filter.Role); role != "" {
		repoFilter.Role = &role
	}

	users, err := s.repo.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponseSlice(users), nil
}

// Create provisions an account that can sign in immediately.
func (s *userService) Create(ctx context.Context, payload dto.UserCreateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	email := normalizeEmail(payload.Email)
	exists, err := s.repo.EmailExists(ctx, email)
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
		Role:         payload.Role,
		IsApproved:   true,
		Status:       models.UserStatusApproved,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		if isDuplicate(err) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user provisioned")
	return dto.NewUserResponse(user), nil
}

// BulkCreate provisions each record independently; a failing record does not stop the rest.
func (s *userService) BulkCreate(ctx context.Context, records []dto.UserCreateRequest) []dto.BulkUserResult {
	results := make([]dto.BulkUserResult, 0, len(records))
	for _, record := range records {
		result := dto.BulkUserResult{Email: normalizeEmail(record.Email)}
		user, err := s.Create(ctx, record)
		if err != nil {
			result.Error = bulkErrorMessage(err)
		} else {
			result.Created = true
			result.User = &user
		}
		results = append(results, result)
	}

	created := 0
	for _, result := range results {
		if result.Created {
			created++
		}
	}
	s.logger.Info().Int("records", len(records)).Int("created", created).Msg("bulk user import processed")
	return results
}

func (s *userService) Approve(ctx context.Context, id uint, payload dto.UserApproveRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.get(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if user.IsApproved {
		return dto.UserResponse{}, ErrUserAlreadyApproved
	}

	user.Role = payload.Role
	user.IsApproved = true
	user.Status = models.UserStatusApproved
	if err := s.repo.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user approved")
	return dto.NewUserResponse(user), nil
}

func (s *userService) Reject(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user.IsApproved = false
	user.Status = models.UserStatusRejected
	if err := s.repo.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user rejected")
	return dto.NewUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Info().Uint("user_id", id).Msg("user deleted")
	return nil
}

func (s *userService) get(ctx context.Context, id uint) (models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func bulkErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fieldErr.Field()), fieldErr.Tag()))
		}
		return strings.Join(fields, "; ")
	}
	if _, ok := KindOf(err); ok {
		return err.Error()
	}
	return "internal error"
}
