package dto

import (
	"time"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// LiveClassRequest schedules a live session for a batch.
type LiveClassRequest struct {
	CourseID      uint   `json:"course_id" validate:"required"`
	BatchID       uint   `json:"batch_id" validate:"required"`
	Link          string `json:"link" validate:"required,url,max=1024"`
	ScheduledTime string `json:"scheduled_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// LiveClassResponse is the serialized live class.
type LiveClassResponse struct {
	ID            uint      `json:"id"`
	CourseID      uint      `json:"course_id"`
	BatchID       uint      `json:"batch_id"`
	Link          string    `json:"link"`
	ScheduledTime time.Time `json:"scheduled_time"`
	CreatedBy     uint      `json:"created_by"`
}

// NewLiveClassResponse converts a model into a DTO.
func NewLiveClassResponse(model models.LiveClass) LiveClassResponse {
	return LiveClassResponse{
		ID:            model.ID,
		CourseID:      model.CourseID,
		BatchID:       model.BatchID,
		Link:          model.Link,
		ScheduledTime: model.ScheduledTime,
		CreatedBy:     model.CreatedBy,
	}
}

// NewLiveClassResponseSlice converts a slice of models into DTOs.
func NewLiveClassResponseSlice(items []models.LiveClass) []LiveClassResponse {
	out := make([]LiveClassResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewLiveClassResponse(item))
	}
	return out
}

// LiveClassScheduledResponse reports a scheduled class and its fan-out size.
type LiveClassScheduledResponse struct {
	LiveClass     LiveClassResponse `json:"live_class"`
	Notifications int               `json:"notifications"`
}

// LiveClassFeedResponse is the student's live class view.
type LiveClassFeedResponse struct {
	LiveClasses   []LiveClassResponse    `json:"live_classes"`
	Notifications []NotificationResponse `json:"notifications"`
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID               uint                   `json:"id"`
	UserID           uint                   `json:"user_id"`
	LiveClassID      *uint                  `json:"live_class_id,omitempty"`
	Type             string                 `json:"type"`
	Message          string                 `json:"message"`
	Seen             bool                   `json:"seen"`
	NotificationTime time.Time              `json:"notification_time"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:               model.ID,
		UserID:           model.UserID,
		LiveClassID:      model.LiveClassID,
		Type:             model.Type,
		Message:          model.Message,
		Seen:             model.Seen,
		NotificationTime: model.NotificationTime,
		Metadata:         model.Metadata,
		CreatedAt:        model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}
