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

// AssessmentHandler serves quizzes, questions, answers and marks.
type AssessmentHandler struct {
	service service.AssessmentService
	logger  zerolog.Logger
}

// NewAssessmentHandler constructs the handler.
func NewAssessmentHandler(service service.AssessmentService, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assessment_handler").Logger(),
	}
}

// RegisterStaff attaches quiz authoring and marking routes.
func (h *AssessmentHandler) RegisterStaff(router fiber.Router) {
	router.Post("/quizzes", middleware.Authorize(policy.QuizWrite), h.createQuiz)
	router.Get("/modules/:moduleID/quizzes", middleware.Authorize(policy.QuizWrite), h.staffQuizzes)
	router.Get("/quizzes/:quizID/questions", middleware.Authorize(policy.QuestionReadKey), h.staffQuestions)
	router.Post("/quizzes/:quizID/questions", middleware.Authorize(policy.QuestionWrite), h.createQuestion)
	router.Put("/quizzes/:quizID/questions/:questionID", middleware.Authorize(policy.QuestionWrite), h.updateQuestion)
	router.Delete("/quizzes/:quizID/questions/:questionID", middleware.Authorize(policy.QuestionWrite), h.deleteQuestion)
	router.Get("/batches/:batchID/quizzes/:quizID/marks", middleware.Authorize(policy.MarksRead), h.batchMarks)
}

// RegisterStudent attaches quiz taking routes.
func (h *AssessmentHandler) RegisterStudent(router fiber.Router) {
	guard := middleware.Authorize(policy.StudentSelf)
	router.Get("/modules/:moduleID/quizzes", guard, h.studentQuizzes)
	router.Get("/quizzes/:quizID/questions", guard, h.studentQuestions)
	router.Post("/questions/:questionID/answers", guard, h.submitAnswer)
	router.Get("/quizzes/:quizID/marks", guard, h.totalMarks)
}

func (h *AssessmentHandler) createQuiz(c *fiber.Ctx) error {
	var payload dto.QuizCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	quiz, err := h.service.CreateQuiz(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz created", quiz)
}

func (h *AssessmentHandler) staffQuizzes(c *fiber.Ctx) error {
	moduleID, err := parseUintParam(c, "moduleID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	quizzes, err := h.service.ListQuizzesForStaff(requestContext(c), moduleID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "quizzes retrieved", quizzes)
}

func (h *AssessmentHandler) staffQuestions(c *fiber.Ctx) error {
	quizID, err := parseUintParam(c, "quizID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	questions, err := h.service.ListQuestionsForStaff(requestContext(c), quizID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *AssessmentHandler) createQuestion(c *fiber.Ctx) error {
	quizID, err := parseUintParam(c, "quizID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.QuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	question, err := h.service.CreateQuestion(requestContext(c), quizID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "question created", question)
}

func (h *AssessmentHandler) updateQuestion(c *fiber.Ctx) error {
	quizID, questionID, err := quizQuestionParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.QuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	question, err := h.service.UpdateQuestion(requestContext(c), quizID, questionID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "question updated", question)
}

func (h *AssessmentHandler) deleteQuestion(c *fiber.Ctx) error {
	quizID, questionID, err := quizQuestionParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.DeleteQuestion(requestContext(c), quizID, questionID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "question deleted", fiber.Map{"id": questionID})
}

func (h *AssessmentHandler) batchMarks(c *fiber.Ctx) error {
	batchID, err := parseUintParam(c, "batchID")
	if err != nil {
		return badRequest(c, err.Error())
	}
	quizID, err := parseUintParam(c, "quizID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	marks, err := h.service.MarksByBatch(requestContext(c), batchID, quizID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "marks retrieved", marks)
}

func (h *AssessmentHandler) studentQuizzes(c *fiber.Ctx) error {
	moduleID, err := parseUintParam(c, "moduleID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	quizzes, err := h.service.ListQuizzesForStudent(requestContext(c), userIDFromContext(c), moduleID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "quizzes retrieved", quizzes)
}

func (h *AssessmentHandler) studentQuestions(c *fiber.Ctx) error {
	quizID, err := parseUintParam(c, "quizID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	questions, err := h.service.ListQuestionsForStudent(requestContext(c), userIDFromContext(c), quizID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *AssessmentHandler) submitAnswer(c *fiber.Ctx) error {
	questionID, err := parseUintParam(c, "questionID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.AnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidBody(c)
	}

	answer, err := h.service.SubmitAnswer(requestContext(c), userIDFromContext(c), questionID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "answer recorded", answer)
}

func (h *AssessmentHandler) totalMarks(c *fiber.Ctx) error {
	quizID, err := parseUintParam(c, "quizID")
	if err != nil {
		return badRequest(c, err.Error())
	}

	marks, err := h.service.TotalMarks(requestContext(c), userIDFromContext(c), quizID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "marks retrieved", marks)
}

func quizQuestionParams(c *fiber.Ctx) (uint, uint, error) {
	quizID, err := parseUintParam(c, "quizID")
	if err != nil {
		return 0, 0, err
	}
	questionID, err := parseUintParam(c, "questionID")
	if err != nil {
		return 0, 0, err
	}
	return quizID, questionID, nil
}
