package dto

import (
	"time"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// BatchCreateRequest opens a new cohort for a course.
type BatchCreateRequest struct {
	CourseID  uint    `json:"course_id" validate:"required"`
	Name      string  `json:"name" validate:"required,min=2,max=255"`
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// BatchUpdateRequest changes the name or dates of a batch.
type BatchUpdateRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=255"`
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// BatchMemberRequest assigns a student or teacher to a batch of a course.
type BatchMemberRequest struct {
	CourseID uint `json:"course_id" validate:"required"`
	UserID   uint `json:"user_id" validate:"required"`
}

// BatchResponse is the serialized batch.
type BatchResponse struct {
	ID          uint       `json:"id"`
	CourseID    uint       `json:"course_id"`
	CourseTitle string     `json:"course_title,omitempty"`
	Name        string     `json:"name"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewBatchResponse converts a model into a DTO.
func NewBatchResponse(model models.Batch) BatchResponse {
	return BatchResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		CourseTitle: model.Course.Title,
		Name:        model.Name,
		StartDate:   model.StartDate,
		EndDate:     model.EndDate,
		CreatedAt:   model.CreatedAt,
	}
}

// NewBatchResponseSlice converts a slice of models into DTOs.
func NewBatchResponseSlice(batches []models.Batch) []BatchResponse {
	out := make([]BatchResponse, 0, len(batches))
	for _, batch := range batches {
		out = append(out, NewBatchResponse(batch))
	}
	return out
}

// BatchMemberResponse acknowledges a batch assignment.
type BatchMemberResponse struct {
	BatchID uint   `json:"batch_id"`
	UserID  uint   `json:"user_id"`
	Role    string `json:"role"`
}
