package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type catalogFixture struct {
	student  models.User
	teacher  models.User
	course   models.Course
	module   models.Module
	lesson   models.Lesson
	batch    models.Batch
	quiz     models.Quiz
	question models.Question
}

func seedCatalog(t *testing.T, db *gorm.DB) catalogFixture {
	t.Helper()
	now := time.Now().UTC()

	f := catalogFixture{
		student: models.User{Name: "Stu", Email: fmt.Sprintf("stu%d@example.com", now.UnixNano()), Role: models.RoleStudent, IsApproved: true, Status: models.UserStatusApproved},
		teacher: models.User{Name: "Tea", Email: fmt.Sprintf("tea%d@example.com", now.UnixNano()), Role: models.RoleTeacher, IsApproved: true, Status: models.UserStatusApproved},
	}
	require.NoError(t, db.Create(&f.student).Error)
	require.NoError(t, db.Create(&f.teacher).Error)

	f.course = models.Course{Title: "Go", StartDate: now, EndDate: now.Add(30 * 24 * time.Hour)}
	require.NoError(t, db.Create(&f.course).Error)
	f.module = models.Module{CourseID: f.course.ID, Title: "Basics"}
	require.NoError(t, db.Create(&f.module).Error)
	f.lesson = models.Lesson{CourseID: f.course.ID, ModuleID: f.module.ID, Title: "Intro", ContentType: models.LessonContentURL, ContentURL: "https://example.com", IsApproved: true}
	require.NoError(t, db.Create(&f.lesson).Error)
	f.batch = models.Batch{CourseID: f.course.ID, Name: "B1"}
	require.NoError(t, db.Omit("Course").Create(&f.batch).Error)
	f.quiz = models.Quiz{CourseID: f.course.ID, ModuleID: f.module.ID, LessonID: &f.lesson.ID, Title: "Q1"}
	require.NoError(t, db.Create(&f.quiz).Error)
	f.question = models.Question{QuizID: f.quiz.ID, QuestionText: "2+2?", Option1: "3", Option2: "4", Option3: "5", Option4: "6", CorrectOption: 2, Marks: 3}
	require.NoError(t, db.Create(&f.question).Error)
	return f
}

func TestEnrollmentRepositoryRejectsDuplicateStudent(t *testing.T) {
	db := setupRepoTestDB(t)
	f := seedCatalog(t, db)
	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	_, err := repo.AddStudent(ctx, f.student.ID, f.batch.ID)
	require.NoError(t, err)

	_, err = repo.AddStudent(ctx, f.student.ID, f.batch.ID)
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	enrolled, err := repo.StudentEnrolled(ctx, f.student.ID, f.batch.ID)
	require.NoError(t, err)
	require.True(t, enrolled)

	ids, err := repo.StudentBatchIDsForCourse(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{f.batch.ID}, ids)

	_, err = repo.AddTeacher(ctx, f.teacher.ID, f.batch.ID)
	require.NoError(t, err)
	students, err := repo.StudentsOfTeacher(ctx, f.teacher.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, f.student.ID, students[0].ID)

	removed, err := repo.RemoveStudent(ctx, f.student.ID, f.batch.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}

func TestAnswerRepositoryTotals(t *testing.T) {
	db := setupRepoTestDB(t)
	f := seedCatalog(t, db)
	repo := NewAnswerRepository(db)
	ctx := context.Background()

	second := models.Question{QuizID: f.quiz.ID, QuestionText: "3+3?", Option1: "6", Option2: "7", Option3: "8", Option4: "9", CorrectOption: 1, Marks: 2}
	require.NoError(t, db.Create(&second).Error)

	require.NoError(t, repo.Create(ctx, &models.StudentAnswer{StudentID: f.student.ID, QuestionID: f.question.ID, SelectedOption: 2, IsCorrect: true, MarksObtained: 3}))
	require.NoError(t, repo.Create(ctx, &models.StudentAnswer{StudentID: f.student.ID, QuestionID: second.ID, SelectedOption: 4, IsCorrect: false}))

	err := repo.Create(ctx, &models.StudentAnswer{StudentID: f.student.ID, QuestionID: second.ID, SelectedOption: 1, IsCorrect: true, MarksObtained: 2})
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	total, err := repo.TotalForStudent(ctx, f.student.ID, []uint{f.question.ID, second.ID})
	require.NoError(t, err)
	require.Equal(t, 3, total.TotalMarks)
	require.Equal(t, int64(2), total.Answered)

	totals, err := repo.TotalsForStudents(ctx, []uint{f.student.ID, f.teacher.ID}, []uint{f.question.ID, second.ID})
	require.NoError(t, err)
	require.Equal(t, 3, totals[f.student.ID].TotalMarks)
	require.Zero(t, totals[f.teacher.ID].Answered)
}

func TestCourseDeleteCascades(t *testing.T) {
	db := setupRepoTestDB(t)
	f := seedCatalog(t, db)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := NewEnrollmentRepository(db).AddStudent(ctx, f.student.ID, f.batch.ID)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.StudentAnswer{StudentID: f.student.ID, QuestionID: f.question.ID, SelectedOption: 1}).Error)
	require.NoError(t, db.Create(&models.LessonCompletion{StudentID: f.student.ID, CourseID: f.course.ID, ModuleID: f.module.ID, LessonID: f.lesson.ID, IsCompleted: true, CompletedAt: &now}).Error)

	assignment := models.Assignment{CourseID: f.course.ID, ModuleID: f.module.ID, LessonID: f.lesson.ID, BatchID: f.batch.ID, Title: "A1", ContentType: models.AssignmentContentTyped, Content: "write", DueDate: now.Add(time.Hour)}
	require.NoError(t, db.Create(&assignment).Error)
	require.NoError(t, db.Omit("Assignment", "Student").Create(&models.Submission{AssignmentID: assignment.ID, StudentID: f.student.ID, BatchID: f.batch.ID, Status: models.SubmissionStatusOnTime, SubmittedAt: now}).Error)

	liveClass := models.LiveClass{CourseID: f.course.ID, BatchID: f.batch.ID, Link: "https://meet.example.com", ScheduledTime: now.Add(time.Hour)}
	require.NoError(t, db.Create(&liveClass).Error)
	require.NoError(t, db.Create(&models.Notification{UserID: f.student.ID, LiveClassID: &liveClass.ID, Type: "live_class", Message: "soon", NotificationTime: liveClass.ReminderTime()}).Error)

	require.NoError(t, NewCourseRepository(db).Delete(ctx, f.course.ID))

	for _, model := range []interface{}{
		&models.Module{}, &models.Lesson{}, &models.Batch{}, &models.StudentBatchAssignment{},
		&models.Quiz{}, &models.Question{}, &models.StudentAnswer{}, &models.LessonCompletion{},
		&models.Assignment{}, &models.Submission{}, &models.LiveClass{}, &models.Notification{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		require.Zerof(t, count, "%T rows should be removed", model)
	}

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.Equal(t, int64(2), users)

	err = NewCourseRepository(db).Delete(ctx, f.course.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestQuizRepositoryDeleteQuestionKeepsCompletions(t *testing.T) {
	db := setupRepoTestDB(t)
	f := seedCatalog(t, db)
	repo := NewQuizRepository(db)
	answers := NewAnswerRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	extra := models.Question{QuizID: f.quiz.ID, QuestionText: "3+3?", Option1: "6", Option2: "7", Option3: "8", Option4: "9", CorrectOption: 1, Marks: 2}
	require.NoError(t, db.Create(&extra).Error)
	require.NoError(t, answers.Create(ctx, &models.StudentAnswer{StudentID: f.student.ID, QuestionID: f.question.ID, SelectedOption: 2, IsCorrect: true, MarksObtained: 3}))
	require.NoError(t, answers.Create(ctx, &models.StudentAnswer{StudentID: f.student.ID, QuestionID: extra.ID, SelectedOption: 1, IsCorrect: true, MarksObtained: 2}))
	require.NoError(t, answers.CreateCompletion(ctx, &models.QuizCompletion{StudentID: f.student.ID, QuizID: f.quiz.ID, TotalMarks: 5, CompletedAt: now}))

	require.ErrorIs(t, repo.DeleteQuestion(ctx, f.quiz.ID+100, extra.ID, now), gorm.ErrRecordNotFound)
	require.NoError(t, repo.DeleteQuestion(ctx, f.quiz.ID, extra.ID, now))

	var completion models.QuizCompletion
	require.NoError(t, db.Where("student_id = ? AND quiz_id = ?", f.student.ID, f.quiz.ID).First(&completion).Error)
	require.Equal(t, 3, completion.TotalMarks)

	require.NoError(t, repo.DeleteQuestion(ctx, f.quiz.ID, f.question.ID, now))
	ids, err := answers.CompletedQuizIDs(ctx, f.student.ID, []uint{f.quiz.ID})
	require.NoError(t, err)
	require.Equal(t, []uint{f.quiz.ID}, ids)

	remaining, err := repo.QuestionIDs(ctx, f.quiz.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestQuizRepositoryListWithQuestionsSkipsEmptyQuizzes(t *testing.T) {
	db := setupRepoTestDB(t)
	f := seedCatalog(t, db)
	repo := NewQuizRepository(db)
	ctx := context.Background()

	empty := models.Quiz{CourseID: f.course.ID, ModuleID: f.module.ID, Title: "Draft"}
	require.NoError(t, repo.Create(ctx, &empty))

	all, err := repo.ListByModules(ctx, []uint{f.module.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)

	gating, err := repo.ListWithQuestionsByModules(ctx, []uint{f.module.ID})
	require.NoError(t, err)
	require.Len(t, gating, 1)
	require.Equal(t, f.quiz.ID, gating[0].ID)
}

func TestQuizRepositoryUpdateQuestionRegrades(t *testing.T) {
	db := setupRepoTestDB(t)
	f := seedCatalog(t, db)
	repo := NewQuizRepository(db)
	answers := NewAnswerRepository(db)
	ctx := context.Background()

	require.NoError(t, answers.Create(ctx, &models.StudentAnswer{StudentID: f.student.ID, QuestionID: f.question.ID, SelectedOption: 1, IsCorrect: false, MarksObtained: 0}))
	require.NoError(t, answers.CreateCompletion(ctx, &models.QuizCompletion{StudentID: f.student.ID, QuizID: f.quiz.ID, CompletedAt: time.Now()}))

	f.question.CorrectOption = 1
	f.question.Marks = 7
	require.NoError(t, repo.UpdateQuestion(ctx, &f.question, time.Now()))

	total, err := answers.TotalForStudent(ctx, f.student.ID, []uint{f.question.ID})
	require.NoError(t, err)
	require.Equal(t, 7, total.TotalMarks)

	var completion models.QuizCompletion
	require.NoError(t, db.Where("quiz_id = ?", f.quiz.ID).First(&completion).Error)
	require.Equal(t, 7, completion.TotalMarks)
}

func TestLessonCompletionUpsertIsIdempotent(t *testing.T) {
	db := setupRepoTestDB(t)
	f := seedCatalog(t, db)
	repo := NewLessonCompletionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.Upsert(ctx, &models.LessonCompletion{StudentID: f.student.ID, CourseID: f.course.ID, ModuleID: f.module.ID, LessonID: f.lesson.ID, IsCompleted: true, CompletedAt: &now}))
	}

	var count int64
	require.NoError(t, db.Model(&models.LessonCompletion{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	ids, err := repo.CompletedLessonIDs(ctx, f.student.ID, []uint{f.lesson.ID})
	require.NoError(t, err)
	require.Equal(t, []uint{f.lesson.ID}, ids)
}
