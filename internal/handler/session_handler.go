package handler

import (
	"quiz-lens/internal/domain"
	"quiz-lens/internal/dto"
	"quiz-lens/internal/middleware"
	"quiz-lens/internal/service"
	"quiz-lens/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SessionHandler serves the JSON API for the caller's quiz session
type SessionHandler struct {
	flow          service.QuizFlowService
	validator     *validation.Validator
	maxImageBytes int
}

// NewSessionHandler creates a new SessionHandler instance
func NewSessionHandler(flow service.QuizFlowService, maxImageBytes int) *SessionHandler {
	return &SessionHandler{
		flow:          flow,
		validator:     validation.NewValidator(),
		maxImageBytes: maxImageBytes,
	}
}

func (h *SessionHandler) respond(c *fiber.Ctx, state *domain.SessionState, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSessionResponse(state))
}

// GetSession godoc
// @Summary Get the current session
// @Description Returns the session state for the session cookie. A new session starts in the INPUT phase.
// @Tags session
// @Produce json
// @Success 200 {object} dto.SessionResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /api/session [get]
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	state, err := h.flow.State(c.UserContext(), middleware.SessionID(c))
	return h.respond(c, state, err)
}

// EnterText godoc
// @Summary Enter source text
// @Description Replaces the extracted text with pasted text and switches to text mode
// @Tags session
// @Accept json
// @Produce json
// @Param request body dto.TextRequest true "Source text"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /api/session/text [post]
func (h *SessionHandler) EnterText(c *fiber.Ctx) error {
	var req dto.TextRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.ValidateText(req.Text); len(errs) > 0 {
		return errs
	}
	state, err := h.flow.EnterText(c.UserContext(), middleware.SessionID(c), req.Text)
	return h.respond(c, state, err)
}

// UploadImage godoc
// @Summary Upload an image
// @Description Reads text from a PNG or JPEG image with OCR and switches to image mode
// @Tags session
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "PNG or JPEG image"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Router /api/session/image [post]
func (h *SessionHandler) UploadImage(c *fiber.Ctx) error {
	upload, err := readImageUpload(c, h.validator, h.maxImageBytes)
	if err != nil {
		return err
	}
	state, err := h.flow.UploadImage(c.UserContext(), middleware.SessionID(c), upload)
	return h.respond(c, state, err)
}

// GetImage godoc
// @Summary Get the uploaded image
// @Tags session
// @Produce png,jpeg
// @Success 200 {file} binary
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/session/image [get]
func (h *SessionHandler) GetImage(c *fiber.Ctx) error {
	ref, data, err := h.flow.Image(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	if ref.ContentType != "" {
		c.Set(fiber.HeaderContentType, ref.ContentType)
	}
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.Send(data)
}

// Generate godoc
// @Summary Generate a quiz
// @Description Starts quiz generation from the extracted text. Blank text is ignored and the session stays in INPUT.
// @Tags session
// @Accept json
// @Produce json
// @Param request body dto.GenerateRequest false "Difficulty level (default easy)"
// @Success 202 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /api/session/generate [post]
func (h *SessionHandler) Generate(c *fiber.Ctx) error {
	var req dto.GenerateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return domain.NewInvalidInputError("Invalid request body")
		}
	}
	state, err := h.flow.RequestGeneration(c.UserContext(), middleware.SessionID(c), req.Level)
	if err != nil {
		return err
	}
	if state.Loading {
		c.Status(fiber.StatusAccepted)
	}
	return c.JSON(dto.NewSessionResponse(state))
}

// SelectAnswer godoc
// @Summary Answer a question
// @Tags session
// @Accept json
// @Produce json
// @Param index path int true "Question index (0-based)"
// @Param request body dto.SelectAnswerRequest true "Selected option"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /api/session/answers/{index} [put]
func (h *SessionHandler) SelectAnswer(c *fiber.Ctx) error {
	index, _ := c.Locals(middleware.ValidatedIndexKey).(int)
	option, _ := c.Locals(middleware.ValidatedOptionKey).(string)
	state, err := h.flow.SelectAnswer(c.UserContext(), middleware.SessionID(c), index, option)
	return h.respond(c, state, err)
}

// ClearAnswer godoc
// @Summary Clear an answer
// @Description Marks a question as unanswered again
// @Tags session
// @Produce json
// @Param index path int true "Question index (0-based)"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /api/session/answers/{index} [delete]
func (h *SessionHandler) ClearAnswer(c *fiber.Ctx) error {
	index, _ := c.Locals(middleware.ValidatedIndexKey).(int)
	state, err := h.flow.ClearAnswer(c.UserContext(), middleware.SessionID(c), index)
	return h.respond(c, state, err)
}

// Submit godoc
// @Summary Submit the quiz
// @Description Scores the selections and moves the session to RESULTS
// @Tags session
// @Produce json
// @Success 200 {object} dto.ResultsResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /api/session/submit [post]
func (h *SessionHandler) Submit(c *fiber.Ctx) error {
	_, report, err := h.flow.Submit(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewResultsResponse(report))
}

// BackToHome godoc
// @Summary Back to home
// @Description Leaves the quiz or results, keeping the extracted text and image
// @Tags session
// @Produce json
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /api/session/home [post]
func (h *SessionHandler) BackToHome(c *fiber.Ctx) error {
	state, err := h.flow.BackToHome(c.UserContext(), middleware.SessionID(c))
	return h.respond(c, state, err)
}

// Reset godoc
// @Summary Reset the quiz
// @Description Clears quiz progress, keeping the extracted text and image
// @Tags session
// @Produce json
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /api/session/reset [post]
func (h *SessionHandler) Reset(c *fiber.Ctx) error {
	state, err := h.flow.Reset(c.UserContext(), middleware.SessionID(c))
	return h.respond(c, state, err)
}

// GetLevels godoc
// @Summary List difficulty levels
// @Tags levels
// @Produce json
// @Success 200 {array} dto.LevelResponse
// @Router /api/levels [get]
func (h *SessionHandler) GetLevels(c *fiber.Ctx) error {
	return c.JSON(dto.NewLevelsResponse())
}
