package dto

import (
	"time"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// SubmissionFeedbackRequest is a teacher's comment on a submission.
type SubmissionFeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,min=1,max=5000"`
}

// SubmissionResultResponse acknowledges a student hand-in.
type SubmissionResultResponse struct {
	SubmissionID uint      `json:"submission_id"`
	AssignmentID uint      `json:"assignment_id"`
	Status       string    `json:"status"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Message      string    `json:"message,omitempty"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint           `json:"id"`
	AssignmentID uint           `json:"assignment_id"`
	StudentID    uint           `json:"student_id"`
	BatchID      uint           `json:"batch_id"`
	ContentURL   string         `json:"content_url"`
	Status       string         `json:"status"`
	Feedback     *string        `json:"feedback"`
	FeedbackBy   *uint          `json:"feedback_by"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	Assignment   AssignmentLite `json:"assignment"`
	Student      StudentLite    `json:"student"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	ModuleID uint      `json:"module_id"`
	DueDate  time.Time `json:"due_date"`
}

// StudentLite summarizes the submitting student.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		BatchID:      model.BatchID,
		ContentURL:   model.ContentURL,
		Status:       model.Status,
		Feedback:     model.Feedback,
		FeedbackBy:   model.FeedbackBy,
		SubmittedAt:  model.SubmittedAt,
		Assignment: AssignmentLite{
			ID:       model.Assignment.ID,
			Title:    model.Assignment.Title,
			ModuleID: model.Assignment.ModuleID,
			DueDate:  model.Assignment.DueDate,
		},
		Student: StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		},
	}
}

// NewSubmissionResponseSlice converts a slice of models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewSubmissionResponse(item))
	}
	return out
}
