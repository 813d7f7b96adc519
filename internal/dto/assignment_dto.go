package dto

import (
	"time"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// AssignmentCreateRequest describes the multipart payload for assigning work to a batch.
type AssignmentCreateRequest struct {
	CourseID       uint   `form:"course_id" json:"course_id" validate:"required"`
	ModuleID       uint   `form:"module_id" json:"module_id" validate:"required"`
	LessonID       uint   `form:"lesson_id" json:"lesson_id" validate:"required"`
	BatchID        uint   `form:"batch_id" json:"batch_id" validate:"required"`
	Title          string `form:"title" json:"title" validate:"required,min=3,max=255"`
	ContentType    string `form:"content_type" json:"content_type" validate:"required"`
	Content        string `form:"content" json:"content" validate:"max=20000"`
	SubmissionLink string `form:"submission_link" json:"submission_link" validate:"omitempty,url,max=1024"`
	DueDate        string `form:"due_date" json:"due_date" validate:"required"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID             uint      `json:"id"`
	CourseID       uint      `json:"course_id"`
	ModuleID       uint      `json:"module_id"`
	LessonID       uint      `json:"lesson_id"`
	BatchID        uint      `json:"batch_id"`
	Title          string    `json:"title"`
	ContentType    string    `json:"content_type"`
	ContentURL     string    `json:"content_url,omitempty"`
	Content        string    `json:"content,omitempty"`
	SubmissionLink string    `json:"submission_link,omitempty"`
	DueDate        time.Time `json:"due_date"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:             model.ID,
		CourseID:       model.CourseID,
		ModuleID:       model.ModuleID,
		LessonID:       model.LessonID,
		BatchID:        model.BatchID,
		Title:          model.Title,
		ContentType:    model.ContentType,
		ContentURL:     model.ContentURL,
		Content:        model.Content,
		SubmissionLink: model.SubmissionLink,
		DueDate:        model.DueDate,
		CreatedAt:      model.CreatedAt,
	}
}

// StudentAssignmentResponse adds the time remaining as seen by the student.
type StudentAssignmentResponse struct {
	AssignmentResponse
	ViewTime  string `json:"view_time"`
	Submitted bool   `json:"submitted"`
}
