package models

import "time"

// Quiz is a set of multiple choice questions attached to a module.
type Quiz struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CourseID    uint       `gorm:"not null;index" json:"course_id"`
	ModuleID    uint       `gorm:"not null;index" json:"module_id"`
	LessonID    *uint      `gorm:"index" json:"lesson_id"`
	Title       string     `gorm:"size:255" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Questions   []Question `json:"questions,omitempty"`
}

// Question has exactly four options; CorrectOption is 1-based.
type Question struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	QuizID        uint      `gorm:"not null;index" json:"quiz_id"`
	QuestionText  string    `gorm:"type:text;not null" json:"question_text"`
	Option1       string    `gorm:"size:512;not null" json:"option_1"`
	Option2       string    `gorm:"size:512;not null" json:"option_2"`
	Option3       string    `gorm:"size:512;not null" json:"option_3"`
	Option4       string    `gorm:"size:512;not null" json:"option_4"`
	CorrectOption int       `gorm:"not null" json:"correct_option"`
	Marks         int       `gorm:"not null;default:1" json:"marks"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Options returns the four answer choices in order.
func (q Question) Options() []string {
	return []string{q.Option1, q.Option2, q.Option3, q.Option4}
}

// Grade scores a selected option against the answer key.
func (q Question) Grade(selected int) (bool, int) {
	if selected == q.CorrectOption {
		return true, q.Marks
	}
	return false, 0
}

// StudentAnswer is a single graded response to a question.
type StudentAnswer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	StudentID      uint      `gorm:"not null;uniqueIndex:idx_answer_student_question" json:"student_id"`
	QuestionID     uint      `gorm:"not null;uniqueIndex:idx_answer_student_question" json:"question_id"`
	SelectedOption int       `gorm:"not null" json:"selected_option"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	MarksObtained  int       `gorm:"not null;default:0" json:"marks_obtained"`
	CreatedAt      time.Time `json:"created_at"`
}

// QuizCompletion marks a quiz as submitted for a student once every question is answered.
type QuizCompletion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StudentID   uint      `gorm:"not null;uniqueIndex:idx_quiz_completion" json:"student_id"`
	QuizID      uint      `gorm:"not null;uniqueIndex:idx_quiz_completion" json:"quiz_id"`
	TotalMarks  int       `gorm:"not null;default:0" json:"total_marks"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
}
