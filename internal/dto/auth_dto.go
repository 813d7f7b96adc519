package dto

import (
	"time"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// RegisterRequest is the self sign-up payload. New accounts start as pending students.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest carries user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required,hexadecimal,len=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AuthResponse is returned on successful login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserCreateRequest is used by administrators to provision accounts.
type UserCreateRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=student teacher"`
}

// UserApproveRequest approves an account and sets its role.
type UserApproveRequest struct {
	Role string `json:"role" validate:"required,oneof=student teacher admin"`
}

// BulkUserResult reports the outcome for one record of a bulk import.
type BulkUserResult struct {
	Email   string        `json:"email"`
	Created bool          `json:"created"`
	Error   string        `json:"error,omitempty"`
	User    *UserResponse `json:"user,omitempty"`
}

// UserResponse is the public projection of an account.
type UserResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsApproved bool      `json:"is_approved"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:         model.ID,
		Name:       model.Name,
		Email:      model.Email,
		Role:       model.Role,
		IsApproved: model.IsApproved,
		Status:     model.Status,
		CreatedAt:  model.CreatedAt,
	}
}

// NewUserResponseSlice converts a slice of models into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user))
	}
	return out
}

// StudentSummary is the compact student listing used by batch and teacher views.
type StudentSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewStudentSummarySlice converts users into summaries.
func NewStudentSummarySlice(users []models.User) []StudentSummary {
	out := make([]StudentSummary, 0, len(users))
	for _, user := range users {
		out = append(out, StudentSummary{ID: user.ID, Name: user.Name, Email: user.Email})
	}
	return out
}
