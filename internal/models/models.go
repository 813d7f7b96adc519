package models

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Module{},
		&Lesson{},
		&Batch{},
		&StudentBatchAssignment{},
		&TeacherBatchAssignment{},
		&Quiz{},
		&Question{},
		&StudentAnswer{},
		&QuizCompletion{},
		&LessonCompletion{},
		&LessonFeedback{},
		&Assignment{},
		&Submission{},
		&LiveClass{},
		&Notification{},
	}
}
