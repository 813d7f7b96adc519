package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cohort-lms-api/internal/dto"
	"github.com/noah-isme/cohort-lms-api/internal/middleware"
	"github.com/noah-isme/cohort-lms-api/internal/policy"
	"github.com/noah-isme/cohort-lms-api/internal/service"
	"github.com/noah-isme/cohort-lms-api/internal/utils"
)

// StudentHandler serves the student's course tree and lesson progress.
type StudentHandler struct {
	students    service.StudentService
	progression service.ProgressionService
	logger      zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students service.StudentService, progression service.ProgressionService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		students:    students,
		progression: progression,
		logger:      logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches the student learning routes.
func (h *StudentHandler) Register(router fiber.Router) {
	guard := middleware.Authorize(policy.StudentSelf)
	router.Get("/courses", guard, h.courses)
	router.Get("/courses/:courseID/modules", guard, h.modules)
	router.Get("/courses/:courseID/modules/:moduleID/lessons", guard, h.lessons)
	router.Get("/courses/:courseID/modules/:moduleID/lessons/:lessonID", guard, h.lesson)
	router.Post("/lessons/:lessonID/complete", guard, h.complete)
	router.Post("/lessons/:lessonID/feedback", guard, h.feedback)
}

func (h *StudentHandler) courses(c *fiber.Ctx) error {
	courses, err := h.students.AssignedCourses(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *StudentHandler) modules(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	modules, err := h.students.Modules(requestContext(c), userIDFromContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "modules retrieved", modules)
}

func (h *StudentHandler) lessons(c *fiber.Ctx) error {
	_, moduleID, err := courseModuleParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	lessons, err := h.students.Lessons(requestContext(c), userIDFromContext(c), moduleID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "lessons retrieved", lessons)
}

func (h *StudentHandler) lesson(c *fiber.Ctx) error {
	_, moduleID, err := courseModuleParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	lessonID, err := parseUintParam(c, "lessonID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	lesson, err := h.students.Lesson(requestContext(c), userIDFromContext(c), lessonID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if lesson.ModuleID != moduleID {
		return respondError(c, h.logger, service.ErrLessonNotFound)
	}
	return utils.SendSuccess(c, "lesson retrieved", lesson)
}

func (h *StudentHandler) complete(c *fiber.Ctx) error {
	lessonID, err := parseUintParam(c, "lessonID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	completion, err := h.progression.CompleteLesson(requestContext(c), userIDFromContext(c), lessonID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "lesson marked as completed", completion)
}

func (h *StudentHandler) feedback(c *fiber.Ctx) error {
	lessonID, err := parseUintParam(c, "lessonID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.LessonFeedbackRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	feedback, err := h.students.PostLessonFeedback(requestContext(c), userIDFromContext(c), lessonID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "feedback submitted", feedback)
}
