package models

import "time"

// Batch is a time-boxed enrollment cohort for one course.
type Batch struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CourseID  uint       `gorm:"not null;index" json:"course_id"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Course    Course     `gorm:"foreignKey:CourseID" json:"course"`
}

// StudentBatchAssignment enrolls a student in a batch.
type StudentBatchAssignment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_student_batch" json:"student_id"`
	BatchID   uint      `gorm:"not null;uniqueIndex:idx_student_batch" json:"batch_id"`
	CreatedAt time.Time `json:"created_at"`
	Student   User      `gorm:"foreignKey:StudentID" json:"student"`
	Batch     Batch     `gorm:"foreignKey:BatchID" json:"batch"`
}

// TeacherBatchAssignment attaches a teacher to a batch.
type TeacherBatchAssignment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeacherID uint      `gorm:"not null;uniqueIndex:idx_teacher_batch" json:"teacher_id"`
	BatchID   uint      `gorm:"not null;uniqueIndex:idx_teacher_batch" json:"batch_id"`
	CreatedAt time.Time `json:"created_at"`
	Teacher   User      `gorm:"foreignKey:TeacherID" json:"teacher"`
	Batch     Batch     `gorm:"foreignKey:BatchID" json:"batch"`
}
