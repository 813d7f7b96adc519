package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/models"
)

func TestCatalogCourseDateRange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.catalog.CreateCourse(ctx, dto.CourseRequest{Title: "Broken", StartDate: "2026-02-01", EndDate: "2026-02-01"})
	require.ErrorIs(t, err, ErrInvalidDateRange)

	courses, err := h.catalog.ListCourses(ctx)
	require.NoError(t, err)
	require.Empty(t, courses)

	created, err := h.catalog.CreateCourse(ctx, dto.CourseRequest{Title: "Go Basics", StartDate: "2026-02-01", EndDate: "2026-03-01"})
	require.NoError(t, err)

	_, err = h.catalog.UpdateCourse(ctx, created.ID, dto.CourseRequest{Title: "Go Basics", StartDate: "2026-04-01", EndDate: "2026-03-01"})
	require.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestCatalogTreeRespectsParents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	course, err := h.catalog.CreateCourse(ctx, dto.CourseRequest{Title: "Go Basics", StartDate: "2026-02-01", EndDate: "2026-03-01"})
	require.NoError(t, err)
	other, err := h.catalog.CreateCourse(ctx, dto.CourseRequest{Title: "Rust Basics", StartDate: "2026-02-01", EndDate: "2026-03-01"})
	require.NoError(t, err)

	module, err := h.catalog.CreateModule(ctx, course.ID, dto.ModuleRequest{Title: "Syntax"})
	require.NoError(t, err)

	_, err = h.catalog.CreateModule(ctx, 9999, dto.ModuleRequest{Title: "Orphan"})
	require.ErrorIs(t, err, ErrCourseNotFound)

	lesson, err := h.catalog.CreateLesson(ctx, course.ID, module.ID, 1, dto.LessonRequest{Title: "Variables", ContentType: models.LessonContentURL, ContentURL: "https://example.com/vars"})
	require.NoError(t, err)
	require.True(t, lesson.IsApproved)

	_, err = h.catalog.CreateLesson(ctx, other.ID, module.ID, 1, dto.LessonRequest{Title: "Wrong", ContentType: models.LessonContentURL, ContentURL: "https://example.com/x"})
	require.ErrorIs(t, err, ErrModuleNotFound)

	lessons, err := h.catalog.ListLessons(ctx, course.ID, module.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 1)

	require.NoError(t, h.catalog.DeleteCourse(ctx, course.ID))
	require.ErrorIs(t, h.catalog.DeleteCourse(ctx, course.ID), ErrCourseNotFound)

	var count int64
	require.NoError(t, h.db.Model(&models.Lesson{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCatalogDraftLessonHiddenUntilApproved(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 1)
	ctx := context.Background()

	draft, err := h.catalog.UploadLesson(ctx, f.teacher.ID, dto.LessonUploadRequest{
		CourseID:    f.course.ID,
		ModuleID:    f.modules[0].ID,
		Title:       "Draft",
		ContentType: models.LessonContentURL,
		ContentURL:  "https://example.com/draft",
	})
	require.NoError(t, err)
	require.False(t, draft.IsApproved)

	visible, err := h.students.Lessons(ctx, f.student.ID, f.modules[0].ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)

	_, err = h.students.Lesson(ctx, f.student.ID, draft.ID)
	require.ErrorIs(t, err, ErrLessonNotFound)

	approved, err := h.catalog.ApproveLesson(ctx, draft.ID)
	require.NoError(t, err)
	require.True(t, approved.IsApproved)

	visible, err = h.students.Lessons(ctx, f.student.ID, f.modules[0].ID)
	require.NoError(t, err)
	require.Len(t, visible, 2)
}

func TestCatalogAttachPDF(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 1)
	ctx := context.Background()

	updated, err := h.catalog.AttachPDF(ctx, f.lessons[0].ID, buildFileHeader(t, "slides.pdf", pdfBytes))
	require.NoError(t, err)
	require.Equal(t, models.LessonContentPDF, updated.ContentType)
	require.Contains(t, updated.ContentURL, "slides-")

	_, err = h.catalog.AttachPDF(ctx, f.lessons[0].ID, buildFileHeader(t, "notes.txt", []byte("just text")))
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)
}

func TestBatchMembership(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 1)
	ctx := context.Background()

	start, end := "2026-03-01", "2026-02-01"
	_, err := h.batches.Create(ctx, dto.BatchCreateRequest{CourseID: f.course.ID, Name: "Backwards", StartDate: &start, EndDate: &end})
	require.ErrorIs(t, err, ErrInvalidDateRange)

	batch, err := h.batches.Create(ctx, dto.BatchCreateRequest{CourseID: f.course.ID, Name: "Cohort B"})
	require.NoError(t, err)
	require.Equal(t, f.course.Title, batch.CourseTitle)

	member, err := h.batches.AssignMember(ctx, batch.ID, dto.BatchMemberRequest{CourseID: f.course.ID, UserID: f.student.ID})
	require.NoError(t, err)
	require.Equal(t, models.RoleStudent, member.Role)

	_, err = h.batches.AssignMember(ctx, batch.ID, dto.BatchMemberRequest{CourseID: f.course.ID, UserID: f.student.ID})
	require.ErrorIs(t, err, ErrAlreadyEnrolled)

	_, err = h.batches.AssignMember(ctx, batch.ID, dto.BatchMemberRequest{CourseID: f.course.ID + 1, UserID: f.teacher.ID})
	require.ErrorIs(t, err, ErrBatchCourseMismatch)

	_, err = h.batches.AssignMember(ctx, batch.ID, dto.BatchMemberRequest{CourseID: f.course.ID, UserID: f.teacher.ID})
	require.NoError(t, err)

	students, err := h.batches.ListStudents(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)

	teacherBatches, err := h.batches.TeacherBatches(ctx, f.teacher.ID)
	require.NoError(t, err)
	require.Len(t, teacherBatches, 2)

	peers, err := h.batches.StudentsOfTeacher(ctx, f.teacher.ID)
	require.NoError(t, err)
	require.Len(t, peers, 1)

	require.NoError(t, h.batches.RemoveStudent(ctx, batch.ID, f.student.ID))
	require.ErrorIs(t, h.batches.RemoveStudent(ctx, batch.ID, f.student.ID), ErrEnrollmentNotFound)
	require.NoError(t, h.batches.RemoveTeacher(ctx, batch.ID, f.teacher.ID))
}

func TestStudentCoursesAndFeedback(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 2)
	ctx := context.Background()

	courses, err := h.students.AssignedCourses(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, f.course.ID, courses[0].ID)

	_, err = h.students.AssignedCourses(ctx, f.teacher.ID)
	require.ErrorIs(t, err, ErrNoAssignedCourses)

	rating := 5
	feedback, err := h.students.PostLessonFeedback(ctx, f.student.ID, f.lessons[0].ID, dto.LessonFeedbackRequest{FeedbackText: "<i>Great</i> lesson", Rating: &rating})
	require.NoError(t, err)
	require.Equal(t, "Great lesson", feedback.FeedbackText)

	bad := 6
	_, err = h.students.PostLessonFeedback(ctx, f.student.ID, f.lessons[0].ID, dto.LessonFeedbackRequest{FeedbackText: "Too good", Rating: &bad})
	require.Error(t, err)

	h.addQuiz(t, f.modules[0], &f.lessons[0].ID, 1, 1)
	h.progression.InvalidateCourse(ctx, f.course.ID)
	_, err = h.students.Lessons(ctx, f.student.ID, f.modules[1].ID)
	require.ErrorIs(t, err, ErrModuleLocked)
}
