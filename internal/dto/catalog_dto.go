package dto

import (
	"time"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// DateLayout is the calendar date format accepted for course and batch dates.
const DateLayout = "2006-01-02"

// CourseRequest creates or replaces a course.
type CourseRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"max=5000"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// ModuleRequest creates or replaces a module.
type ModuleRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"max=5000"`
}

// LessonRequest creates or replaces a lesson inside a module.
type LessonRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=255"`
	ContentType string `json:"content_type" validate:"required,oneof=pdf url audio"`
	ContentURL  string `json:"content_url" validate:"required,url,max=1024"`
}

// LessonUploadRequest is a teacher's draft lesson awaiting approval.
type LessonUploadRequest struct {
	CourseID    uint   `json:"course_id" validate:"required"`
	ModuleID    uint   `json:"module_id" validate:"required"`
	Title       string `json:"title" validate:"required,min=2,max=255"`
	ContentType string `json:"content_type" validate:"required,oneof=pdf url audio"`
	ContentURL  string `json:"content_url" validate:"required,url,max=1024"`
}

// LessonFeedbackRequest is a student's rating of a lesson.
type LessonFeedbackRequest struct {
	FeedbackText string `json:"feedback_text" validate:"required,min=1,max=2000"`
	Rating       *int   `json:"rating" validate:"omitempty,min=1,max=5"`
}

// CourseResponse is the serialized course.
type CourseResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		StartDate:   model.StartDate,
		EndDate:     model.EndDate,
		CreatedAt:   model.CreatedAt,
	}
}

// NewCourseResponseSlice converts a slice of models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, NewCourseResponse(course))
	}
	return out
}

// ModuleResponse is the serialized module.
type ModuleResponse struct {
	ID          uint   `json:"id"`
	CourseID    uint   `json:"course_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewModuleResponse converts a model into a DTO.
func NewModuleResponse(model models.Module) ModuleResponse {
	return ModuleResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		Title:       model.Title,
		Description: model.Description,
	}
}

// NewModuleResponseSlice converts a slice of models into DTOs.
func NewModuleResponseSlice(modules []models.Module) []ModuleResponse {
	out := make([]ModuleResponse, 0, len(modules))
	for _, module := range modules {
		out = append(out, NewModuleResponse(module))
	}
	return out
}

// ModuleStatusResponse is a module annotated with the caller's progression state.
type ModuleStatusResponse struct {
	ModuleResponse
	Unlocked            bool `json:"unlocked"`
	QuizSubmitted       bool `json:"quiz_submitted"`
	AssignmentSubmitted bool `json:"assignment_submitted"`
}

// LessonResponse is the serialized lesson.
type LessonResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	ModuleID    uint      `json:"module_id"`
	Title       string    `json:"title"`
	ContentType string    `json:"content_type"`
	ContentURL  string    `json:"content_url"`
	IsApproved  bool      `json:"is_approved"`
	CreatedBy   uint      `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewLessonResponse converts a model into a DTO.
func NewLessonResponse(model models.Lesson) LessonResponse {
	return LessonResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		ModuleID:    model.ModuleID,
		Title:       model.Title,
		ContentType: model.ContentType,
		ContentURL:  model.ContentURL,
		IsApproved:  model.IsApproved,
		CreatedBy:   model.CreatedBy,
		CreatedAt:   model.CreatedAt,
	}
}

// NewLessonResponseSlice converts a slice of models into DTOs.
func NewLessonResponseSlice(lessons []models.Lesson) []LessonResponse {
	out := make([]LessonResponse, 0, len(lessons))
	for _, lesson := range lessons {
		out = append(out, NewLessonResponse(lesson))
	}
	return out
}

// LessonCompletionResponse acknowledges a completed lesson.
type LessonCompletionResponse struct {
	LessonID    uint       `json:"lesson_id"`
	ModuleID    uint       `json:"module_id"`
	CourseID    uint       `json:"course_id"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// LessonFeedbackResponse is the serialized lesson feedback.
type LessonFeedbackResponse struct {
	ID           uint      `json:"id"`
	LessonID     uint      `json:"lesson_id"`
	StudentID    uint      `json:"student_id"`
	FeedbackText string    `json:"feedback_text"`
	Rating       *int      `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewLessonFeedbackResponse converts a model into a DTO.
func NewLessonFeedbackResponse(model models.LessonFeedback) LessonFeedbackResponse {
	return LessonFeedbackResponse{
		ID:           model.ID,
		LessonID:     model.LessonID,
		StudentID:    model.StudentID,
		FeedbackText: model.FeedbackText,
		Rating:       model.Rating,
		CreatedAt:    model.CreatedAt,
	}
}
