package performance_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/cohort-lms-api/internal/database"
	"github.com/noah-isme/cohort-lms-api/internal/handler"
	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
	"github.com/noah-isme/cohort-lms-api/internal/service"
)

func setupProgressionPerformanceApp(t *testing.T) (*fiber.App, uint) {
	t.Helper()

	dsn := fmt.Sprintf("file:perf_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	now := time.Now().UTC()
	student := models.User{Name: "Ani", Email: "ani@example.com", Role: models.RoleStudent, IsApproved: true, Status: models.UserStatusApproved, PasswordHash: "x"}
	require.NoError(t, db.Create(&student).Error)

	course := models.Course{Title: "Distributed Systems", StartDate: now, EndDate: now.AddDate(0, 3, 0)}
	require.NoError(t, db.Create(&course).Error)

	// twelve modules, each with three lessons and a quiz; the first half is fully completed
	for m := 0; m < 12; m++ {
		module := models.Module{CourseID: course.ID, Title: fmt.Sprintf("Module %d", m+1)}
		require.NoError(t, db.Create(&module).Error)

		for l := 0; l < 3; l++ {
			lesson := models.Lesson{CourseID: course.ID, ModuleID: module.ID, Title: fmt.Sprintf("Lesson %d.%d", m+1, l+1), ContentType: models.LessonContentURL, ContentURL: "https://videos.example.com/x", IsApproved: true}
			require.NoError(t, db.Create(&lesson).Error)
		}

		quiz := models.Quiz{CourseID: course.ID, ModuleID: module.ID, Title: "Checkpoint"}
		require.NoError(t, db.Create(&quiz).Error)
		if m < 6 {
			completion := models.QuizCompletion{StudentID: student.ID, QuizID: quiz.ID, CompletedAt: now}
			require.NoError(t, db.Create(&completion).Error)
		}
	}

	batch := models.Batch{CourseID: course.ID, Name: "Cohort A"}
	require.NoError(t, db.Omit(clause.Associations).Create(&batch).Error)
	require.NoError(t, db.Omit(clause.Associations).Create(&models.StudentBatchAssignment{StudentID: student.ID, BatchID: batch.ID}).Error)

	logger := zerolog.Nop()
	validate := validator.New()
	lessons := repository.NewLessonRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	progression := service.NewProgressionService(service.ProgressionRepositories{
		Modules:     repository.NewModuleRepository(db),
		Lessons:     lessons,
		Enrollments: enrollments,
		Quizzes:     repository.NewQuizRepository(db),
		Answers:     repository.NewAnswerRepository(db),
		Assignments: repository.NewAssignmentRepository(db),
		Submissions: repository.NewSubmissionRepository(db),
		Completions: repository.NewLessonCompletionRepository(db),
	}, redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, logger)
	students := service.NewStudentService(enrollments, lessons, repository.NewLessonFeedbackRepository(db), progression, validate, logger)

	app := fiber.New()
	handler.NewStudentHandler(students, progression, logger).Register(app.Group("/api/v1/student", func(c *fiber.Ctx) error {
		c.Locals("user_id", student.ID)
		c.Locals("user_role", models.RoleStudent)
		return c.Next()
	}))

	return app, course.ID
}

func TestModuleStatusP95LatencyBelow250ms(t *testing.T) {
	app, courseID := setupProgressionPerformanceApp(t)
	path := fmt.Sprintf("/api/v1/student/courses/%d/modules", courseID)

	runs := 50
	durations := make([]time.Duration, 0, runs)

	for i := 0; i < runs; i++ {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		start := time.Now()
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	require.LessOrEqual(t, percentile(durations, 0.95), 250*time.Millisecond)
}
