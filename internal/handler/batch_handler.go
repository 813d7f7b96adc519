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

// BatchHandler manages cohorts and their membership.
type BatchHandler struct {
	service service.BatchService
	logger  zerolog.Logger
}

// NewBatchHandler constructs the handler.
func NewBatchHandler(service service.BatchService, logger zerolog.Logger) *BatchHandler {
	return &BatchHandler{
		service: service,
		logger:  logger.With().Str("component", "batch_handler").Logger(),
	}
}

// RegisterAdmin attaches batch management routes.
func (h *BatchHandler) RegisterAdmin(router fiber.Router) {
	write := middleware.Authorize(policy.BatchWrite)
	members := middleware.Authorize(policy.EnrollmentWrite)

	router.Get("/batches", middleware.Authorize(policy.CatalogRead), h.list)
	router.Post("/batches", write, h.create)
	router.Put("/batches/:batchID", write, h.update)
	router.Delete("/batches/:batchID", write, h.delete)
	router.Get("/batches/:batchID/students", middleware.Authorize(policy.CatalogRead), h.students)
	router.Post("/batches/:batchID/members", members, h.assignMember)
	router.Delete("/batches/:batchID/students/:userID", members, h.removeStudent)
	router.Delete("/batches/:batchID/teachers/:userID", members, h.removeTeacher)
}

// RegisterTeacher attaches the teacher's own views.
func (h *BatchHandler) RegisterTeacher(router fiber.Router) {
	guard := middleware.Authorize(policy.TeacherSelf)
	router.Get("/teacher/batches", guard, h.teacherBatches)
	router.Get("/teacher/students", guard, h.teacherStudents)
}

func (h *BatchHandler) list(c *fiber.Ctx) error {
	courseID, err := parseOptionalUintQuery(c, "course_id")
	if err != nil {
		return badRequest(c, "invalid course_id")
	}

	batches, err := h.service.List(requestContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "batches retrieved", batches)
}

func (h *BatchHandler) create(c *fiber.Ctx) error {
	var payload dto.BatchCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	batch, err := h.service.Create(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "batch created", batch)
}

func (h *BatchHandler) update(c *fiber.Ctx) error {
	batchID, err := parseUintParam(c, "batchID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.BatchUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	batch, err := h.service.Update(requestContext(c), batchID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "batch updated", batch)
}

func (h *BatchHandler) delete(c *fiber.Ctx) error {
	batchID, err := parseUintParam(c, "batchID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Delete(requestContext(c), batchID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "batch deleted", fiber.Map{"id": batchID})
}

func (h *BatchHandler) students(c *fiber.Ctx) error {
	batchID, err := parseUintParam(c, "batchID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	students, err := h.service.ListStudents(requestContext(c), batchID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "batch students retrieved", students)
}

func (h *BatchHandler) assignMember(c *fiber.Ctx) error {
	batchID, err := parseUintParam(c, "batchID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.BatchMemberRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	member, err := h.service.AssignMember(requestContext(c), batchID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "member assigned", member)
}

func (h *BatchHandler) removeStudent(c *fiber.Ctx) error {
	batchID, userID, err := batchUserParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.RemoveStudent(requestContext(c), batchID, userID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "student removed from batch", fiber.Map{"batch_id": batchID, "user_id": userID})
}

func (h *BatchHandler) removeTeacher(c *fiber.Ctx) error {
	batchID, userID, err := batchUserParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.RemoveTeacher(requestContext(c), batchID, userID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "teacher removed from batch", fiber.Map{"batch_id": batchID, "user_id": userID})
}

func (h *BatchHandler) teacherBatches(c *fiber.Ctx) error {
	batches, err := h.service.TeacherBatches(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "assigned batches retrieved", batches)
}

func (h *BatchHandler) teacherStudents(c *fiber.Ctx) error {
	students, err := h.service.StudentsOfTeacher(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "students retrieved", students)
}

func batchUserParams(c *fiber.Ctx) (uint, uint, error) {
	batchID, err := parseUintParam(c, "batchID")
	if err != nil {
		return 0, 0, err
	}
	userID, err := parseUintParam(c, "userID")
	if err != nil {
		return 0, 0, err
	}
	return batchID, userID, nil
}
