package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/middleware"
	"github.com/noah-isme/cohort-lms-api/internal/policy"
	"github.com/noah-isme/cohort-lms-api/internal/service"
	"github.com/noah-isme/cohort-lms-api/internal/utils"
)

// AssignmentHandler wires assignment and submission routes.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// RegisterStaff attaches assignment authoring and review routes.
func (h *AssignmentHandler) RegisterStaff(router fiber.Router) {
	router.Post("/assignments", middleware.Authorize(policy.AssignmentWrite), h.create)
	router.Delete("/assignments/:assignmentID", middleware.Authorize(policy.AssignmentWrite), h.delete)
	router.Get("/batches/:batchID/modules/:moduleID/submissions", middleware.Authorize(policy.SubmissionRead), h.submissions)
	router.Post("/submissions/:submissionID/feedback", middleware.Authorize(policy.SubmissionFeedback), h.feedback)
}

// RegisterStudent attaches the student's assignment routes.
func (h *AssignmentHandler) RegisterStudent(router fiber.Router) {
	guard := middleware.Authorize(policy.StudentSelf)
	router.Get("/modules/:moduleID/assignments", guard, h.forStudent)
	router.Post("/modules/:moduleID/submissions", guard, h.submit)
	router.Get("/feedback", guard, h.studentFeedback)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	payload := dto.AssignmentCreateRequest{
		CourseID:       formUint(c, "course_id"),
		ModuleID:       formUint(c, "module_id"),
		LessonID:       formUint(c, "lesson_id"),
		BatchID:        formUint(c, "batch_id"),
		Title:          c.FormValue("title"),
		ContentType:    strings.ToLower(strings.TrimSpace(c.FormValue("content_type"))),
		Content:        c.FormValue("content"),
		SubmissionLink: c.FormValue("submission_link"),
		DueDate:        c.FormValue("due_date"),
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	assignment, err := h.service.Create(requestContext(c), userIDFromContext(c), payload, file)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "assignmentID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Delete(requestContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment deleted", fiber.Map{"id": id})
}

func (h *AssignmentHandler) submissions(c *fiber.Ctx) error {
	batchID, err := parseUintParam(c, "batchID")
	if err != nil {
		return badRequest(c, err.Error())
	}
	moduleID, err := parseUintParam(c, "moduleID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	submissions, err := h.service.ListSubmissions(requestContext(c), batchID, moduleID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *AssignmentHandler) feedback(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "submissionID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.SubmissionFeedbackRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	submission, err := h.service.ProvideFeedback(requestContext(c), userIDFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "feedback saved", submission)
}

func (h *AssignmentHandler) forStudent(c *fiber.Ctx) error {
	moduleID, err := parseUintParam(c, "moduleID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	assignments, err := h.service.ForStudent(requestContext(c), userIDFromContext(c), moduleID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) submit(c *fiber.Ctx) error {
	moduleID, err := parseUintParam(c, "moduleID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	assignmentID, err := parseOptionalUintQuery(c, "assignment_id")
	if err != nil {
		return badRequest(c, "invalid assignment_id")
	}
	if assignmentID == nil {
		if id := formUint(c, "assignment_id"); id > 0 {
			assignmentID = &id
		}
	}

	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, h.logger, service.ErrFileRequired)
	}

	result, err := h.service.Submit(requestContext(c), userIDFromContext(c), moduleID, assignmentID, file)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, result.Message, result)
}

func (h *AssignmentHandler) studentFeedback(c *fiber.Ctx) error {
	feedback, err := h.service.FeedbackForStudent(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "feedback retrieved", feedback)
}

func formUint(c *fiber.Ctx, key string) uint {
	value, err := strconv.ParseUint(strings.TrimSpace(c.FormValue(key)), 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}
