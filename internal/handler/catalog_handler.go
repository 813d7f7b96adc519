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

// CatalogHandler serves the course, module and lesson tree.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// RegisterAdmin attaches catalog management routes.
func (h *CatalogHandler) RegisterAdmin(router fiber.Router) {
	read := middleware.Authorize(policy.CatalogRead)

	router.Get("/courses", read, h.listCourses)
	router.Post("/courses", middleware.Authorize(policy.CourseWrite), h.createCourse)
	router.Put("/courses/:courseID", middleware.Authorize(policy.CourseWrite), h.updateCourse)
	router.Delete("/courses/:courseID", middleware.Authorize(policy.CourseWrite), h.deleteCourse)

	modules := router.Group("/courses/:courseID/modules")
	modules.Get("", read, h.listModules)
	modules.Post("", middleware.Authorize(policy.ModuleWrite), h.createModule)
	modules.Put("/:moduleID", middleware.Authorize(policy.ModuleWrite), h.updateModule)
	modules.Delete("/:moduleID", middleware.Authorize(policy.ModuleWrite), h.deleteModule)

	lessons := modules.Group("/:moduleID/lessons")
	lessons.Get("", read, h.listLessons)
	lessons.Post("", middleware.Authorize(policy.LessonWrite), h.createLesson)
	lessons.Put("/:lessonID", middleware.Authorize(policy.LessonWrite), h.updateLesson)
	lessons.Delete("/:lessonID", middleware.Authorize(policy.LessonWrite), h.deleteLesson)

	router.Post("/lessons/:lessonID/approve", middleware.Authorize(policy.LessonApprove), h.approveLesson)
}

// RegisterStaff attaches the teacher upload routes.
func (h *CatalogHandler) RegisterStaff(router fiber.Router) {
	router.Post("/lessons", middleware.Authorize(policy.LessonUpload), h.uploadLesson)
	router.Post("/lessons/:lessonID/pdf", middleware.Authorize(policy.LessonAttachPDF), h.attachPDF)
}

func (h *CatalogHandler) listCourses(c *fiber.Ctx) error {
	courses, err := h.service.ListCourses(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CatalogHandler) createCourse(c *fiber.Ctx) error {
	var payload dto.CourseRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	course, err := h.service.CreateCourse(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CatalogHandler) updateCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.CourseRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	course, err := h.service.UpdateCourse(requestContext(c), courseID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "course updated", course)
}

func (h *CatalogHandler) deleteCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.DeleteCourse(requestContext(c), courseID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "course deleted", fiber.Map{"id": courseID})
}

func (h *CatalogHandler) listModules(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	modules, err := h.service.ListModules(requestContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "modules retrieved", modules)
}

func (h *CatalogHandler) createModule(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.ModuleRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	module, err := h.service.CreateModule(requestContext(c), courseID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "module created", module)
}

func (h *CatalogHandler) updateModule(c *fiber.Ctx) error {
	courseID, moduleID, err := courseModuleParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.ModuleRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	module, err := h.service.UpdateModule(requestContext(c), courseID, moduleID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "module updated", module)
}

func (h *CatalogHandler) deleteModule(c *fiber.Ctx) error {
	courseID, moduleID, err := courseModuleParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.DeleteModule(requestContext(c), courseID, moduleID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "module deleted", fiber.Map{"id": moduleID})
}

func (h *CatalogHandler) listLessons(c *fiber.Ctx) error {
	courseID, moduleID, err := courseModuleParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	lessons, err := h.service.ListLessons(requestContext(c), courseID, moduleID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "lessons retrieved", lessons)
}

func (h *CatalogHandler) createLesson(c *fiber.Ctx) error {
	courseID, moduleID, err := courseModuleParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.LessonRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	lesson, err := h.service.CreateLesson(requestContext(c), courseID, moduleID, userIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson created", lesson)
}

func (h *CatalogHandler) updateLesson(c *fiber.Ctx) error {
	courseID, moduleID, err := courseModuleParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	lessonID, err := parseUintParam(c, "lessonID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.LessonRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	lesson, err := h.service.UpdateLesson(requestContext(c), courseID, moduleID, lessonID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "lesson updated", lesson)
}

func (h *CatalogHandler) deleteLesson(c *fiber.Ctx) error {
	courseID, moduleID, err := courseModuleParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	lessonID, err := parseUintParam(c, "lessonID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.DeleteLesson(requestContext(c), courseID, moduleID, lessonID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "lesson deleted", fiber.Map{"id": lessonID})
}

func (h *CatalogHandler) approveLesson(c *fiber.Ctx) error {
	lessonID, err := parseUintParam(c, "lessonID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	lesson, err := h.service.ApproveLesson(requestContext(c), lessonID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "lesson approved", lesson)
}

func (h *CatalogHandler) uploadLesson(c *fiber.Ctx) error {
	var payload dto.LessonUploadRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	lesson, err := h.service.UploadLesson(requestContext(c), userIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson submitted for approval", lesson)
}

func (h *CatalogHandler) attachPDF(c *fiber.Ctx) error {
	lessonID, err := parseUintParam(c, "lessonID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, h.logger, service.ErrFileRequired)
	}

	lesson, err := h.service.AttachPDF(requestContext(c), lessonID, file)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "lesson content uploaded", lesson)
}

func courseModuleParams(c *fiber.Ctx) (uint, uint, error) {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return 0, 0, err
	}
	moduleID, err := parseUintParam(c, "moduleID")
	if err != nil {
		return 0, 0, err
	}
	return courseID, moduleID, nil
}
