package models

import "time"

// Assignment content kinds.
const (
	AssignmentContentPDF   = "pdf"
	AssignmentContentTyped = "typed"
)

// Submission classifications.
const (
	SubmissionStatusOnTime = "on_time"
	SubmissionStatusLate   = "late"
)

// Assignment is a task for one batch within a module.
type Assignment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CourseID       uint      `gorm:"not null;index" json:"course_id"`
	ModuleID       uint      `gorm:"not null;index" json:"module_id"`
	LessonID       uint      `gorm:"not null;index" json:"lesson_id"`
	BatchID        uint      `gorm:"not null;index" json:"batch_id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	ContentType    string    `gorm:"size:16;not null" json:"content_type"`
	ContentURL     string    `gorm:"size:1024" json:"content_url"`
	Content        string    `gorm:"type:text" json:"content"`
	SubmissionLink string    `gorm:"size:1024" json:"submission_link"`
	DueDate        time.Time `gorm:"not null" json:"due_date"`
	CreatedBy      uint      `gorm:"index" json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// SubmissionStatusAt classifies a submission made at the given instant.
func (a Assignment) SubmissionStatusAt(reference time.Time) string {
	if a.IsPastDue(reference) {
		return SubmissionStatusLate
	}
	return SubmissionStatusOnTime
}

// Submission is a student's hand-in for an assignment.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	BatchID      uint       `gorm:"not null;index" json:"batch_id"`
	ContentURL   string     `gorm:"size:1024" json:"content_url"`
	Status       string     `gorm:"size:16;not null" json:"status"`
	Feedback     *string    `gorm:"type:text" json:"feedback"`
	FeedbackBy   *uint      `json:"feedback_by"`
	SubmittedAt  time.Time  `gorm:"not null" json:"submitted_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assignment   Assignment `gorm:"foreignKey:AssignmentID" json:"assignment"`
	Student      User       `gorm:"foreignKey:StudentID" json:"student"`
}
