package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/repository"
)

type storageStub struct {
	mu    sync.Mutex
	names []string
}

func (s *storageStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.names = append(s.names, name)
	s.mu.Unlock()
	return "https://cdn.example.com/" + name, nil
}

type harness struct {
	db          *gorm.DB
	redis       *redis.Client
	storage     *storageStub
	progression *progressionService
	assessment  AssessmentService
	assignments *assignmentService
	students    StudentService
	liveClasses *liveClassService
	batches     BatchService
	catalog     CatalogService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	courses := repository.NewCourseRepository(db)
	modules := repository.NewModuleRepository(db)
	lessons := repository.NewLessonRepository(db)
	batches := repository.NewBatchRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	quizzes := repository.NewQuizRepository(db)
	answers := repository.NewAnswerRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	completions := repository.NewLessonCompletionRepository(db)
	users := repository.NewUserRepository(db)

	progression := NewProgressionService(ProgressionRepositories{
		Modules:     modules,
		Lessons:     lessons,
		Enrollments: enrollments,
		Quizzes:     quizzes,
		Answers:     answers,
		Assignments: assignments,
		Submissions: submissions,
		Completions: completions,
	}, redisClient, time.Minute, logger)

	storage := &storageStub{}
	uploads := NewUploadService(storage, 5, logger)

	h := &harness{
		db:          db,
		redis:       redisClient,
		storage:     storage,
		progression: progression.(*progressionService),
		assessment: NewAssessmentService(AssessmentRepositories{
			Modules:     modules,
			Lessons:     lessons,
			Batches:     batches,
			Enrollments: enrollments,
			Quizzes:     quizzes,
			Answers:     answers,
		}, progression, validate, logger),
		assignments: NewAssignmentService(AssignmentRepositories{
			Modules:     modules,
			Lessons:     lessons,
			Batches:     batches,
			Enrollments: enrollments,
			Assignments: assignments,
			Submissions: submissions,
		}, progression, uploads, validate, logger).(*assignmentService),
		students: NewStudentService(enrollments, lessons, repository.NewLessonFeedbackRepository(db), progression, validate, logger),
		liveClasses: NewLiveClassService(batches, enrollments, repository.NewLiveClassRepository(db),
			repository.NewNotificationRepository(db), nil, validate, logger).(*liveClassService),
		batches: NewBatchService(batches, courses, users, enrollments, progression, validate, logger),
		catalog: NewCatalogService(courses, modules, lessons, uploads, progression, validate, logger),
	}
	return h
}

type courseFixture struct {
	student models.User
	teacher models.User
	course  models.Course
	batch   models.Batch
	modules []models.Module
	lessons []models.Lesson
}

// seedCourse creates a course with the given number of modules, one approved lesson per module,
// a batch and an enrolled student.
func (h *harness) seedCourse(t *testing.T, moduleCount int) courseFixture {
	t.Helper()
	now := time.Now().UTC()
	stamp := now.UnixNano()

	f := courseFixture{
		student: models.User{Name: "Student", Email: fmt.Sprintf("student%d@example.com", stamp), Role: models.RoleStudent, IsApproved: true, Status: models.UserStatusApproved},
		teacher: models.User{Name: "Teacher", Email: fmt.Sprintf("teacher%d@example.com", stamp), Role: models.RoleTeacher, IsApproved: true, Status: models.UserStatusApproved},
	}
	require.NoError(t, h.db.Create(&f.student).Error)
	require.NoError(t, h.db.Create(&f.teacher).Error)

	f.course = models.Course{Title: "Go", StartDate: now, EndDate: now.Add(60 * 24 * time.Hour)}
	require.NoError(t, h.db.Create(&f.course).Error)

	for i := 0; i < moduleCount; i++ {
		module := models.Module{CourseID: f.course.ID, Title: fmt.Sprintf("M%d", i+1)}
		require.NoError(t, h.db.Create(&module).Error)
		lesson := models.Lesson{CourseID: f.course.ID, ModuleID: module.ID, Title: fmt.Sprintf("L%d", i+1), ContentType: models.LessonContentURL, ContentURL: "https://example.com/lesson", IsApproved: true}
		require.NoError(t, h.db.Create(&lesson).Error)
		f.modules = append(f.modules, module)
		f.lessons = append(f.lessons, lesson)
	}

	f.batch = models.Batch{CourseID: f.course.ID, Name: "Cohort A"}
	require.NoError(t, h.db.Omit("Course").Create(&f.batch).Error)
	require.NoError(t, h.db.Create(&models.StudentBatchAssignment{StudentID: f.student.ID, BatchID: f.batch.ID}).Error)
	require.NoError(t, h.db.Create(&models.TeacherBatchAssignment{TeacherID: f.teacher.ID, BatchID: f.batch.ID}).Error)
	return f
}

func (h *harness) addQuiz(t *testing.T, module models.Module, lessonID *uint, correct, marks int) (models.Quiz, models.Question) {
	t.Helper()
	quiz := models.Quiz{CourseID: module.CourseID, ModuleID: module.ID, LessonID: lessonID, Title: "Quiz " + module.Title}
	require.NoError(t, h.db.Create(&quiz).Error)
	question := models.Question{QuizID: quiz.ID, QuestionText: "Pick one", Option1: "a", Option2: "b", Option3: "c", Option4: "d", CorrectOption: correct, Marks: marks}
	require.NoError(t, h.db.Create(&question).Error)
	return quiz, question
}

func (h *harness) addAssignment(t *testing.T, f courseFixture, module models.Module, lesson models.Lesson, due time.Time) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		CourseID:    f.course.ID,
		ModuleID:    module.ID,
		LessonID:    lesson.ID,
		BatchID:     f.batch.ID,
		Title:       "Homework " + module.Title,
		ContentType: models.AssignmentContentTyped,
		Content:     "Write a program",
		DueDate:     due,
	}
	require.NoError(t, h.db.Create(&assignment).Error)
	return assignment
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func kindOf(err error) ErrorKind {
	kind, _ := KindOf(err)
	return kind
}
