package dto

import (
	"time"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// QuizCreateRequest creates a quiz under a module.
type QuizCreateRequest struct {
	CourseID    uint   `json:"course_id" validate:"required"`
	ModuleID    uint   `json:"module_id" validate:"required"`
	LessonID    *uint  `json:"lesson_id" validate:"omitempty,min=1"`
	Title       string `json:"title" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"max=5000"`
}

// QuestionRequest creates or replaces a multiple choice question.
type QuestionRequest struct {
	QuestionText  string `json:"question_text" validate:"required,min=1,max=5000"`
	Option1       string `json:"option_1" validate:"required,max=512"`
	Option2       string `json:"option_2" validate:"required,max=512"`
	Option3       string `json:"option_3" validate:"required,max=512"`
	Option4       string `json:"option_4" validate:"required,max=512"`
	CorrectOption int    `json:"correct_option" validate:"required,min=1,max=4"`
	Marks         *int   `json:"marks" validate:"omitempty,min=1"`
}

// AnswerRequest submits a selected option for a question.
type AnswerRequest struct {
	SelectedOption int `json:"selected_option" validate:"required,min=1,max=4"`
}

// QuizResponse is the serialized quiz.
type QuizResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	ModuleID    uint      `json:"module_id"`
	LessonID    *uint     `json:"lesson_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewQuizResponse converts a model into a DTO.
func NewQuizResponse(model models.Quiz) QuizResponse {
	return QuizResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		ModuleID:    model.ModuleID,
		LessonID:    model.LessonID,
		Title:       model.Title,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
	}
}

// NewQuizResponseSlice converts quizzes for staff listings.
func NewQuizResponseSlice(quizzes []models.Quiz) []QuizResponse {
	responses := make([]QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		responses = append(responses, NewQuizResponse(quiz))
	}
	return responses
}

// StudentQuizResponse tells a student which quizzes of a module are open and already submitted.
type StudentQuizResponse struct {
	QuizResponse
	Accessible bool `json:"accessible"`
	Completed  bool `json:"completed"`
}

// StaffQuestionResponse exposes the answer key to staff.
type StaffQuestionResponse struct {
	ID            uint     `json:"id"`
	QuizID        uint     `json:"quiz_id"`
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	Marks         int      `json:"marks"`
}

// NewStaffQuestionResponse converts a model into the staff projection.
func NewStaffQuestionResponse(model models.Question) StaffQuestionResponse {
	return StaffQuestionResponse{
		ID:            model.ID,
		QuizID:        model.QuizID,
		QuestionText:  model.QuestionText,
		Options:       model.Options(),
		CorrectOption: model.CorrectOption,
		Marks:         model.Marks,
	}
}

// NewStaffQuestionResponseSlice converts a slice into staff projections.
func NewStaffQuestionResponseSlice(questions []models.Question) []StaffQuestionResponse {
	out := make([]StaffQuestionResponse, 0, len(questions))
	for _, question := range questions {
		out = append(out, NewStaffQuestionResponse(question))
	}
	return out
}

// StudentQuestionResponse is a question without its answer key.
type StudentQuestionResponse struct {
	ID           uint     `json:"id"`
	QuizID       uint     `json:"quiz_id"`
	QuestionText string   `json:"question_text"`
	Options      []string `json:"options"`
	Marks        int      `json:"marks"`
}

// NewStudentQuestionResponseSlice converts a slice into student projections.
func NewStudentQuestionResponseSlice(questions []models.Question) []StudentQuestionResponse {
	out := make([]StudentQuestionResponse, 0, len(questions))
	for _, question := range questions {
		out = append(out, StudentQuestionResponse{
			ID:           question.ID,
			QuizID:       question.QuizID,
			QuestionText: question.QuestionText,
			Options:      question.Options(),
			Marks:        question.Marks,
		})
	}
	return out
}

// AnswerResponse reports the grading of a submitted answer.
type AnswerResponse struct {
	AnswerID      uint `json:"answer_id"`
	QuestionID    uint `json:"question_id"`
	IsCorrect     bool `json:"is_correct"`
	MarksObtained int  `json:"marks_obtained"`
	QuizCompleted bool `json:"quiz_completed"`
}

// QuizMarksResponse is a student's running total for a quiz.
type QuizMarksResponse struct {
	QuizID         uint `json:"quiz_id"`
	StudentID      uint `json:"student_id"`
	TotalMarks     int  `json:"total_marks"`
	Answered       int  `json:"answered"`
	TotalQuestions int  `json:"total_questions"`
}

// StudentMarksResponse is one row of a batch mark sheet.
type StudentMarksResponse struct {
	StudentID  uint   `json:"student_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	TotalMarks int    `json:"total_marks"`
}
