package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"strconv"
	"strings"

	"quiz-lens/internal/domain"
	"quiz-lens/internal/dto"
	"quiz-lens/internal/logger"
	"quiz-lens/internal/middleware"
	"quiz-lens/internal/service"
	"quiz-lens/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// loadingRefreshSeconds is how often the loading view reloads itself.
const loadingRefreshSeconds = 1

// PageHandler serves the server-rendered quiz pages. Every form posts back
// and redirects to "/" so that a reload never repeats an action.
type PageHandler struct {
	flow          service.QuizFlowService
	validator     *validation.Validator
	maxImageBytes int
	tmpl          *template.Template
}

type pageData struct {
	Session        dto.SessionResponse
	Levels         []dto.LevelResponse
	Mode           string
	Notice         string
	RefreshSeconds int
}

func NewPageHandler(flow service.QuizFlowService, maxImageBytes int) (*PageHandler, error) {
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"add1": func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		flow:          flow,
		validator:     validation.NewValidator(),
		maxImageBytes: maxImageBytes,
		tmpl:          tmpl,
	}, nil
}

func (h *PageHandler) render(c *fiber.Ctx, status int, state *domain.SessionState, notice string) error {
	data := pageData{
		Session: dto.NewSessionResponse(state),
		Levels:  dto.NewLevelsResponse(),
		Mode:    string(state.InputMode),
		Notice:  notice,
	}
	if m := c.Query("mode"); m == string(domain.InputModeText) || m == string(domain.InputModeImage) {
		data.Mode = m
	}
	if state.Loading {
		data.RefreshSeconds = loadingRefreshSeconds
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "page.html", data); err != nil {
		return domain.NewInternalError("failed to render page", err)
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

// fail renders the current view with a notice for user-facing errors.
func (h *PageHandler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	var notice string

	var validationErrs domain.ValidationErrors
	var domainErr *domain.DomainError
	switch {
	case errors.As(err, &validationErrs):
		notice = noticeForValidation(validationErrs)
	case errors.As(err, &domainErr):
		status = middleware.StatusForError(domainErr)
		if status >= fiber.StatusInternalServerError && domainErr.Code == domain.CodeInternal {
			return err
		}
		notice = domainErr.Message
	default:
		return err
	}

	logger.Get().Info("Rejected page action",
		zap.String("path", c.Path()),
		zap.String("session_id", middleware.SessionID(c)),
		zap.String("notice", notice))

	state, loadErr := h.flow.State(c.UserContext(), middleware.SessionID(c))
	if loadErr != nil {
		return loadErr
	}
	return h.render(c, status, state, notice)
}

func noticeForValidation(errs domain.ValidationErrors) string {
	for _, e := range errs {
		switch {
		case e.Field == "image" && e.Code == domain.CodeMissingField:
			return "Please choose an image to upload."
		case e.Field == "image" || e.Field == "content_type":
			return "Please upload a PNG or JPEG image."
		case e.Field == "text":
			return "The text is too long or not valid UTF-8."
		case e.Field == "level":
			return "Please choose easy, medium or hard."
		}
	}
	return "The request was not valid."
}

func (h *PageHandler) done(c *fiber.Ctx, err error) error {
	if err != nil {
		return h.fail(c, err)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// Index renders the view for the session's current phase.
func (h *PageHandler) Index(c *fiber.Ctx) error {
	state, err := h.flow.State(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	return h.render(c, fiber.StatusOK, state, "")
}

func (h *PageHandler) EnterText(c *fiber.Ctx) error {
	text := c.FormValue("text")
	if errs := h.validator.ValidateText(text); len(errs) > 0 {
		return h.fail(c, errs)
	}
	_, err := h.flow.EnterText(c.UserContext(), middleware.SessionID(c), text)
	return h.done(c, err)
}

func (h *PageHandler) UploadImage(c *fiber.Ctx) error {
	upload, err := readImageUpload(c, h.validator, h.maxImageBytes)
	if err != nil {
		return h.fail(c, err)
	}
	_, err = h.flow.UploadImage(c.UserContext(), middleware.SessionID(c), upload)
	return h.done(c, err)
}

func (h *PageHandler) Generate(c *fiber.Ctx) error {
	level := c.FormValue("level")
	if errs := h.validator.ValidateLevel(level); len(errs) > 0 {
		return h.fail(c, errs)
	}
	ctx := c.UserContext()
	id := middleware.SessionID(c)
	// The text-mode form posts the textarea along with the level.
	if args := c.Request().PostArgs(); args.Has("text") {
		text := string(args.Peek("text"))
		if errs := h.validator.ValidateText(text); len(errs) > 0 {
			return h.fail(c, errs)
		}
		if _, err := h.flow.EnterText(ctx, id, text); err != nil {
			return h.fail(c, err)
		}
	}
	_, err := h.flow.RequestGeneration(ctx, id, level)
	return h.done(c, err)
}

// SaveAnswers stores the radio selections without submitting.
func (h *PageHandler) SaveAnswers(c *fiber.Ctx) error {
	_, err := h.flow.SelectAnswers(c.UserContext(), middleware.SessionID(c), formAnswers(c))
	return h.done(c, err)
}

// Submit stores the radio selections and scores the quiz.
func (h *PageHandler) Submit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := middleware.SessionID(c)
	if answers := formAnswers(c); len(answers) > 0 {
		if _, err := h.flow.SelectAnswers(ctx, id, answers); err != nil {
			return h.fail(c, err)
		}
	}
	_, _, err := h.flow.Submit(ctx, id)
	return h.done(c, err)
}

func (h *PageHandler) BackToHome(c *fiber.Ctx) error {
	_, err := h.flow.BackToHome(c.UserContext(), middleware.SessionID(c))
	return h.done(c, err)
}

func (h *PageHandler) Reset(c *fiber.Ctx) error {
	_, err := h.flow.Reset(c.UserContext(), middleware.SessionID(c))
	return h.done(c, err)
}

// formAnswers collects form fields named q<index> holding an option letter.
func formAnswers(c *fiber.Ctx) map[int]string {
	answers := make(map[int]string)
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		if !strings.HasPrefix(k, "q") {
			return
		}
		index, err := strconv.Atoi(k[1:])
		if err != nil || index < 0 || len(value) == 0 {
			return
		}
		answers[index] = string(value)
	})
	return answers
}
