package models

import "time"

// Lesson content kinds.
const (
	LessonContentPDF   = "pdf"
	LessonContentURL   = "url"
	LessonContentAudio = "audio"
)

// Course is the root of the catalog tree.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Modules     []Module  `json:"modules,omitempty"`
}

// Module groups lessons of a course. Modules are sequenced by ID.
type Module struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Lesson is a single piece of learning content inside a module.
type Lesson struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	ModuleID    uint      `gorm:"not null;index" json:"module_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	ContentType string    `gorm:"size:16" json:"content_type"`
	ContentURL  string    `gorm:"size:1024" json:"content_url"`
	IsApproved  bool      `gorm:"not null;default:false" json:"is_approved"`
	CreatedBy   uint      `gorm:"index" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LessonCompletion records that a student finished a lesson's content.
type LessonCompletion struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"not null;uniqueIndex:idx_completion_student_lesson" json:"student_id"`
	CourseID    uint       `gorm:"not null;index" json:"course_id"`
	ModuleID    uint       `gorm:"not null;index" json:"module_id"`
	LessonID    uint       `gorm:"not null;uniqueIndex:idx_completion_student_lesson" json:"lesson_id"`
	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// LessonFeedback is a student's rating of a lesson.
type LessonFeedback struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LessonID     uint      `gorm:"not null;index" json:"lesson_id"`
	StudentID    uint      `gorm:"not null;index" json:"student_id"`
	FeedbackText string    `gorm:"type:text;not null" json:"feedback_text"`
	Rating       *int      `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
