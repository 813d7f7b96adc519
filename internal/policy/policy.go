// Package policy holds the single table deciding which roles may perform which action.
package policy

import (
	"strings"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// Action names a guarded operation.
type Action string

const (
	CourseWrite        Action = "course.write"
	ModuleWrite        Action = "module.write"
	LessonWrite        Action = "lesson.write"
	LessonApprove      Action = "lesson.approve"
	LessonUpload       Action = "lesson.upload"
	LessonAttachPDF    Action = "lesson.attach_pdf"
	CatalogRead        Action = "catalog.read"
	BatchWrite         Action = "batch.write"
	EnrollmentWrite    Action = "enrollment.write"
	UserManage         Action = "user.manage"
	QuizWrite          Action = "quiz.write"
	QuestionWrite      Action = "question.write"
	QuestionReadKey    Action = "question.read_key"
	MarksRead          Action = "marks.read"
	AssignmentWrite    Action = "assignment.write"
	SubmissionRead     Action = "submission.read"
	SubmissionFeedback Action = "submission.feedback"
	LiveClassWrite     Action = "liveclass.write"
	TeacherSelf        Action = "teacher.self"
	StudentSelf        Action = "student.self"
	NotificationRead   Action = "notification.read"
)

var (
	administrators = []string{models.RoleAdmin, models.RoleSuperAdmin}
	staff          = []string{models.RoleAdmin, models.RoleSuperAdmin, models.RoleTeacher}
	everyone       = []string{models.RoleAdmin, models.RoleSuperAdmin, models.RoleTeacher, models.RoleStudent}
)

var table = map[Action][]string{
	CourseWrite:        administrators,
	ModuleWrite:        administrators,
	LessonWrite:        administrators,
	LessonApprove:      administrators,
	BatchWrite:         administrators,
	EnrollmentWrite:    administrators,
	UserManage:         administrators,
	LessonUpload:       staff,
	LessonAttachPDF:    staff,
	CatalogRead:        staff,
	QuizWrite:          staff,
	QuestionWrite:      staff,
	QuestionReadKey:    staff,
	MarksRead:          staff,
	AssignmentWrite:    staff,
	SubmissionRead:     staff,
	SubmissionFeedback: staff,
	LiveClassWrite:     staff,
	TeacherSelf:        {models.RoleTeacher},
	StudentSelf:        {models.RoleStudent},
	NotificationRead:   everyone,
}

// Roles returns the roles allowed to perform action. Unknown actions allow nobody.
func Roles(action Action) []string {
	roles := table[action]
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

// Allowed reports whether role may perform action.
func Allowed(action Action, role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, candidate := range table[action] {
		if candidate == role {
			return true
		}
	}
	return false
}

// IsStaffRole reports whether role belongs to content managers.
func IsStaffRole(role string) bool {
	return Allowed(CatalogRead, role)
}
