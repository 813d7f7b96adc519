package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/models"
)

func TestProgressionFirstModuleUnlockedOthersLocked(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 2)
	ctx := context.Background()

	h.addQuiz(t, f.modules[0], &f.lessons[0].ID, 2, 1)
	h.addAssignment(t, f, f.modules[0], f.lessons[0], time.Now().Add(48*time.Hour))

	statuses, err := h.progression.ModuleStatuses(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	require.True(t, statuses[0].Unlocked)
	require.False(t, statuses[0].QuizSubmitted)
	require.False(t, statuses[1].Unlocked)

	_, err = h.progression.RequireModuleUnlocked(ctx, f.student.ID, f.modules[1].ID)
	require.ErrorIs(t, err, ErrModuleLocked)
}

func TestProgressionModulesWithoutComponentsAreSatisfied(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 3)

	statuses, err := h.progression.ModuleStatuses(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	for _, status := range statuses {
		require.True(t, status.Unlocked)
	}
}

func TestProgressionUnlocksAfterQuizAndAssignment(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 2)
	ctx := context.Background()

	_, question := h.addQuiz(t, f.modules[0], &f.lessons[0].ID, 2, 1)
	h.addAssignment(t, f, f.modules[0], f.lessons[0], time.Now().Add(48*time.Hour))

	unlocked, err := h.progression.IsModuleUnlocked(ctx, f.student.ID, f.modules[1].ID)
	require.NoError(t, err)
	require.False(t, unlocked)

	_, err = h.progression.CompleteLesson(ctx, f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)

	answer, err := h.assessment.SubmitAnswer(ctx, f.student.ID, question.ID, answerFor(3))
	require.NoError(t, err)
	require.True(t, answer.QuizCompleted)

	unlocked, err = h.progression.IsModuleUnlocked(ctx, f.student.ID, f.modules[1].ID)
	require.NoError(t, err)
	require.False(t, unlocked, "assignment still outstanding")

	_, err = h.assignments.Submit(ctx, f.student.ID, f.modules[0].ID, nil, buildFileHeader(t, "work.pdf", pdfBytes))
	require.NoError(t, err)

	statuses, err := h.progression.ModuleStatuses(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	require.True(t, statuses[0].QuizSubmitted)
	require.True(t, statuses[0].AssignmentSubmitted)
	require.True(t, statuses[1].Unlocked)
}

func TestProgressionLockedModuleLocksEveryLaterModule(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 3)

	h.addQuiz(t, f.modules[0], nil, 1, 1)

	statuses, err := h.progression.ModuleStatuses(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	require.True(t, statuses[0].Unlocked)
	require.False(t, statuses[1].Unlocked)
	require.True(t, statuses[1].QuizSubmitted)
	require.False(t, statuses[2].Unlocked)
}

func TestProgressionRequiresEnrollment(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 1)

	_, err := h.progression.ModuleStatuses(context.Background(), f.teacher.ID, f.course.ID)
	require.ErrorIs(t, err, ErrNotEnrolled)
}

func TestProgressionQuizAccessRequiresLessonCompletion(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 1)
	ctx := context.Background()

	quiz, _ := h.addQuiz(t, f.modules[0], &f.lessons[0].ID, 1, 1)

	err := h.progression.CanAccessQuiz(ctx, f.student.ID, quiz)
	require.ErrorIs(t, err, ErrLessonIncomplete)
	require.Equal(t, KindPreconditionFailed, kindOf(err))

	_, err = h.progression.CompleteLesson(ctx, f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)
	require.NoError(t, h.progression.CanAccessQuiz(ctx, f.student.ID, quiz))
}

func TestProgressionQuizWithoutLessonNeedsEveryApprovedLesson(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 1)
	ctx := context.Background()

	extra := models.Lesson{CourseID: f.course.ID, ModuleID: f.modules[0].ID, Title: "Extra", IsApproved: true}
	require.NoError(t, h.db.Create(&extra).Error)
	draft := models.Lesson{CourseID: f.course.ID, ModuleID: f.modules[0].ID, Title: "Draft"}
	require.NoError(t, h.db.Create(&draft).Error)

	quiz, _ := h.addQuiz(t, f.modules[0], nil, 1, 1)

	_, err := h.progression.CompleteLesson(ctx, f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)
	require.ErrorIs(t, h.progression.CanAccessQuiz(ctx, f.student.ID, quiz), ErrLessonIncomplete)

	_, err = h.progression.CompleteLesson(ctx, f.student.ID, extra.ID)
	require.NoError(t, err)
	require.NoError(t, h.progression.CanAccessQuiz(ctx, f.student.ID, quiz))

	_, err = h.progression.CompleteLesson(ctx, f.student.ID, draft.ID)
	require.ErrorIs(t, err, ErrLessonNotFound)
}

func TestProgressionCompleteLessonIsIdempotent(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 1)
	ctx := context.Background()

	first, err := h.progression.CompleteLesson(ctx, f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)
	require.True(t, first.IsCompleted)

	_, err = h.progression.CompleteLesson(ctx, f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, h.db.Model(&models.LessonCompletion{}).Where("student_id = ?", f.student.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestProgressionCachesStatusesAndInvalidates(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 2)
	ctx := context.Background()

	_, err := h.progression.ModuleStatuses(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)

	key := progressCacheKey(f.course.ID, f.student.ID)
	exists, err := h.redis.Exists(ctx, key).Result()
	require.NoError(t, err)
	require.EqualValues(t, 1, exists)

	h.progression.InvalidateCourse(ctx, f.course.ID)
	exists, err = h.redis.Exists(ctx, key).Result()
	require.NoError(t, err)
	require.EqualValues(t, 0, exists)

	_, err = h.progression.ModuleStatuses(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	h.progression.InvalidateStudent(ctx, f.student.ID, f.course.ID)
	exists, err = h.redis.Exists(ctx, key).Result()
	require.NoError(t, err)
	require.EqualValues(t, 0, exists)
}

func TestProgressionQuizWithoutQuestionsDoesNotGate(t *testing.T) {
	h := newHarness(t)
	f := h.seedCourse(t, 2)
	ctx := context.Background()

	quiz := models.Quiz{CourseID: f.course.ID, ModuleID: f.modules[0].ID, Title: "Draft"}
	require.NoError(t, h.db.Create(&quiz).Error)

	statuses, err := h.progression.ModuleStatuses(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	require.True(t, statuses[0].QuizSubmitted)
	require.True(t, statuses[1].Unlocked)

	marks := 1
	_, err = h.assessment.CreateQuestion(ctx, quiz.ID, dto.QuestionRequest{
		QuestionText:  "Ready?",
		Option1:       "yes",
		Option2:       "no",
		Option3:       "maybe",
		Option4:       "later",
		CorrectOption: 1,
		Marks:         &marks,
	})
	require.NoError(t, err)

	statuses, err = h.progression.ModuleStatuses(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	require.False(t, statuses[0].QuizSubmitted)
	require.False(t, statuses[1].Unlocked)
}
