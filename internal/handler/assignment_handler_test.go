package handler_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/handler"
	"github.com/noah-isme/cohort-lms-api/internal/models"
	"github.com/noah-isme/cohort-lms-api/internal/service"
)

type mockAssignmentService struct {
	service.AssignmentService
	created      dto.AssignmentCreateRequest
	createdFile  bool
	submittedFor *uint
	submitErr    error
}

func (m *mockAssignmentService) Create(_ context.Context, _ uint, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error) {
	m.created = payload
	m.createdFile = file != nil
	return dto.AssignmentResponse{ID: 4, Title: payload.Title, BatchID: payload.BatchID}, nil
}

func (m *mockAssignmentService) Submit(_ context.Context, studentID, moduleID uint, assignmentID *uint, file *multipart.FileHeader) (dto.SubmissionResultResponse, error) {
	m.submittedFor = assignmentID
	if m.submitErr != nil {
		return dto.SubmissionResultResponse{}, m.submitErr
	}
	return dto.SubmissionResultResponse{
		SubmissionID: 11,
		AssignmentID: 4,
		Status:       models.SubmissionStatusLate,
		SubmittedAt:  time.Now(),
		Message:      "Due date has passed. Your submission is late.",
	}, nil
}

func newAssignmentApp(svc service.AssignmentService, id uint, role string) *fiber.App {
	app := fiber.New()
	app.Use(asUser(id, role))
	h := handler.NewAssignmentHandler(svc, zerolog.New(io.Discard))
	h.RegisterStaff(app.Group("/staff"))
	h.RegisterStudent(app.Group("/student"))
	return app
}

func multipartRequest(t *testing.T, target string, fields map[string]string, withFile bool) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if withFile {
		part, err := writer.CreateFormFile("file", "work.pdf")
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4\n%%EOF"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAssignmentHandler_CreateReadsMultipartForm(t *testing.T) {
	svc := &mockAssignmentService{}
	app := newAssignmentApp(svc, 2, "teacher")

	req := multipartRequest(t, "/staff/assignments", map[string]string{
		"course_id":    "1",
		"module_id":    "2",
		"lesson_id":    "3",
		"batch_id":     "4",
		"title":        "Essay",
		"content_type": "PDF",
		"due_date":     "2030-01-01",
	}, true)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(4), svc.created.BatchID)
	require.Equal(t, "pdf", svc.created.ContentType)
	require.True(t, svc.createdFile)
}

func TestAssignmentHandler_SubmitReportsLateness(t *testing.T) {
	svc := &mockAssignmentService{}
	app := newAssignmentApp(svc, 5, "student")

	resp, err := app.Test(multipartRequest(t, "/student/modules/2/submissions?assignment_id=4", nil, true))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NotNil(t, svc.submittedFor)
	require.Equal(t, uint(4), *svc.submittedFor)

	var body envelope
	decodeResponse(t, resp, &body)
	require.Equal(t, "Due date has passed. Your submission is late.", body.Message)
}

func TestAssignmentHandler_SubmitRequiresFile(t *testing.T) {
	app := newAssignmentApp(&mockAssignmentService{}, 5, "student")

	resp, err := app.Test(multipartRequest(t, "/student/modules/2/submissions", map[string]string{"note": "x"}, false))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAssignmentHandler_SubmitLockedModule(t *testing.T) {
	app := newAssignmentApp(&mockAssignmentService{submitErr: service.ErrModuleLocked}, 5, "student")

	resp, err := app.Test(multipartRequest(t, "/student/modules/2/submissions", nil, true))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAssignmentHandler_StudentCannotCreate(t *testing.T) {
	app := newAssignmentApp(&mockAssignmentService{}, 5, "student")

	resp, err := app.Test(multipartRequest(t, "/staff/assignments", map[string]string{"title": "x"}, false))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
