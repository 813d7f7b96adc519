package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrorKind classifies domain failures so transports can map them once.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "invalid_input"
	KindUnauthenticated    ErrorKind = "unauthenticated"
	KindForbidden          ErrorKind = "forbidden"
	KindNotFound           ErrorKind = "not_found"
	KindConflict           ErrorKind = "conflict"
	KindPreconditionFailed ErrorKind = "precondition_failed"
)

// Error is a classified domain failure carrying a user facing message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors of the same kind and message so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind && e.Message == other.Message
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// InvalidInput builds an input validation failure.
func InvalidInput(format string, args ...interface{}) *Error {
	return newError(KindInvalidInput, fmt.Sprintf(format, args...))
}

// NotFound builds a missing entity failure.
func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, fmt.Sprintf(format, args...))
}

// Conflict builds a uniqueness failure.
func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, fmt.Sprintf(format, args...))
}

// Forbidden builds an authorization failure.
func Forbidden(format string, args ...interface{}) *Error {
	return newError(KindForbidden, fmt.Sprintf(format, args...))
}

// KindOf reports the classification of err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind, true
	}
	return "", false
}

var (
	ErrInvalidCredentials  = newError(KindUnauthenticated, "Invalid email or password")
	ErrAccountNotApproved  = newError(KindForbidden, "Your account is pending approval")
	ErrEmailTaken          = newError(KindConflict, "Email already registered")
	ErrInvalidResetToken   = newError(KindInvalidInput, "Invalid or expired reset token")
	ErrUserNotFound        = newError(KindNotFound, "User not found")
	ErrUserAlreadyApproved = newError(KindInvalidInput, "User is already approved")

	ErrCourseNotFound   = newError(KindNotFound, "Course not found")
	ErrModuleNotFound   = newError(KindNotFound, "Module not found")
	ErrLessonNotFound   = newError(KindNotFound, "Lesson not found")
	ErrInvalidDateRange = newError(KindInvalidInput, "End date must be after start date")

	ErrBatchNotFound       = newError(KindNotFound, "Batch not found")
	ErrBatchCourseMismatch = newError(KindInvalidInput, "Batch does not belong to the course")
	ErrAlreadyEnrolled     = newError(KindConflict, "User is already assigned to this batch")
	ErrEnrollmentNotFound  = newError(KindNotFound, "Batch assignment not found")
	ErrNoAssignedCourses   = newError(KindNotFound, "No courses assigned")
	ErrNotEnrolled         = newError(KindForbidden, "You are not enrolled in this course")

	ErrModuleLocked     = newError(KindForbidden, "Module is locked. Complete the previous module first.")
	ErrLessonIncomplete = newError(KindPreconditionFailed, "You must complete the lesson before accessing the quiz.")

	ErrQuizNotFound      = newError(KindNotFound, "Quiz not found")
	ErrQuestionNotFound  = newError(KindNotFound, "Question not found")
	ErrNoQuestions       = newError(KindNotFound, "No questions found for this quiz")
	ErrNoAnswers         = newError(KindNotFound, "No answers found for this quiz")
	ErrAlreadyAnswered   = newError(KindConflict, "Question already answered")
	ErrNoStudentsInBatch = newError(KindNotFound, "No students found in this batch")

	ErrAssignmentNotFound = newError(KindNotFound, "Assignment not found")
	ErrInvalidContentType = newError(KindInvalidInput, "Invalid content type")
	ErrDueDateInPast      = newError(KindInvalidInput, "Due date must be in the future")
	ErrFileRequired       = newError(KindInvalidInput, "File is required")
	ErrAlreadySubmitted   = newError(KindConflict, "Assignment already submitted")
	ErrSubmissionNotFound = newError(KindNotFound, "Submission not found")

	ErrNoLiveClasses = newError(KindNotFound, "No live classes found")
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
