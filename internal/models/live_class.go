package models

import (
	"time"

	"gorm.io/datatypes"
)

// LiveClassReminderLead is how far ahead of a live class its reminder is due.
const LiveClassReminderLead = 10 * time.Minute

// NotificationTypeLiveClass tags live class reminders.
const NotificationTypeLiveClass = "live_class"

// LiveClass is a scheduled online session for a batch.
type LiveClass struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CourseID      uint      `gorm:"not null;index" json:"course_id"`
	BatchID       uint      `gorm:"not null;index" json:"batch_id"`
	Link          string    `gorm:"size:1024;not null" json:"link"`
	ScheduledTime time.Time `gorm:"not null" json:"scheduled_time"`
	CreatedBy     uint      `gorm:"index" json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ReminderTime is when notifications for the class become due.
func (l LiveClass) ReminderTime() time.Time {
	return l.ScheduledTime.Add(-LiveClassReminderLead)
}

// Notification is a message addressed to one user.
type Notification struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	UserID           uint              `gorm:"not null;index" json:"user_id"`
	LiveClassID      *uint             `gorm:"index" json:"live_class_id"`
	Type             string            `gorm:"size:64;not null;default:live_class" json:"type"`
	Message          string            `gorm:"size:1024;not null" json:"message"`
	Seen             bool              `gorm:"not null;default:false" json:"seen"`
	NotificationTime time.Time         `gorm:"not null" json:"notification_time"`
	Metadata         datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
