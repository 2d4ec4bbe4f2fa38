package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz-lens/internal/adapter"
	"quiz-lens/internal/domain"
	"quiz-lens/internal/dto"
	"quiz-lens/internal/handler"
	"quiz-lens/internal/middleware"
	"quiz-lens/internal/quizflow"
	"quiz-lens/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Manual Mocks ---

// MockQuizFlowService
type MockQuizFlowService struct {
	StateFunc             func(ctx context.Context, sessionID string) (*domain.SessionState, error)
	EnterTextFunc         func(ctx context.Context, sessionID, text string) (*domain.SessionState, error)
	UploadImageFunc       func(ctx context.Context, sessionID string, upload domain.ImageUpload) (*domain.SessionState, error)
	ImageFunc             func(ctx context.Context, sessionID string) (*domain.ImageRef, []byte, error)
	RequestGenerationFunc func(ctx context.Context, sessionID, level string) (*domain.SessionState, error)
	SelectAnswerFunc      func(ctx context.Context, sessionID string, index int, letter string) (*domain.SessionState, error)
	SelectAnswersFunc     func(ctx context.Context, sessionID string, answers map[int]string) (*domain.SessionState, error)
	ClearAnswerFunc       func(ctx context.Context, sessionID string, index int) (*domain.SessionState, error)
	SubmitFunc            func(ctx context.Context, sessionID string) (*domain.SessionState, quizflow.ScoreReport, error)
	BackToHomeFunc        func(ctx context.Context, sessionID string) (*domain.SessionState, error)
	ResetFunc             func(ctx context.Context, sessionID string) (*domain.SessionState, error)
}

func (m *MockQuizFlowService) State(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	if m.StateFunc != nil {
		return m.StateFunc(ctx, sessionID)
	}
	return domain.NewSessionState(), nil
}
func (m *MockQuizFlowService) EnterText(ctx context.Context, sessionID, text string) (*domain.SessionState, error) {
	if m.EnterTextFunc != nil {
		return m.EnterTextFunc(ctx, sessionID, text)
	}
	panic("MockQuizFlowService.EnterTextFunc not implemented")
}
func (m *MockQuizFlowService) UploadImage(ctx context.Context, sessionID string, upload domain.ImageUpload) (*domain.SessionState, error) {
	if m.UploadImageFunc != nil {
		return m.UploadImageFunc(ctx, sessionID, upload)
	}
	panic("MockQuizFlowService.UploadImageFunc not implemented")
}
func (m *MockQuizFlowService) Image(ctx context.Context, sessionID string) (*domain.ImageRef, []byte, error) {
	if m.ImageFunc != nil {
		return m.ImageFunc(ctx, sessionID)
	}
	panic("MockQuizFlowService.ImageFunc not implemented")
}
func (m *MockQuizFlowService) RequestGeneration(ctx context.Context, sessionID, level string) (*domain.SessionState, error) {
	if m.RequestGenerationFunc != nil {
		return m.RequestGenerationFunc(ctx, sessionID, level)
	}
	panic("MockQuizFlowService.RequestGenerationFunc not implemented")
}
func (m *MockQuizFlowService) SelectAnswer(ctx context.Context, sessionID string, index int, letter string) (*domain.SessionState, error) {
	if m.SelectAnswerFunc != nil {
		return m.SelectAnswerFunc(ctx, sessionID, index, letter)
	}
	panic("MockQuizFlowService.SelectAnswerFunc not implemented")
}
func (m *MockQuizFlowService) SelectAnswers(ctx context.Context, sessionID string, answers map[int]string) (*domain.SessionState, error) {
	if m.SelectAnswersFunc != nil {
		return m.SelectAnswersFunc(ctx, sessionID, answers)
	}
	panic("MockQuizFlowService.SelectAnswersFunc not implemented")
}
func (m *MockQuizFlowService) ClearAnswer(ctx context.Context, sessionID string, index int) (*domain.SessionState, error) {
	if m.ClearAnswerFunc != nil {
		return m.ClearAnswerFunc(ctx, sessionID, index)
	}
	panic("MockQuizFlowService.ClearAnswerFunc not implemented")
}
func (m *MockQuizFlowService) Submit(ctx context.Context, sessionID string) (*domain.SessionState, quizflow.ScoreReport, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, sessionID)
	}
	panic("MockQuizFlowService.SubmitFunc not implemented")
}
func (m *MockQuizFlowService) BackToHome(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	if m.BackToHomeFunc != nil {
		return m.BackToHomeFunc(ctx, sessionID)
	}
	panic("MockQuizFlowService.BackToHomeFunc not implemented")
}
func (m *MockQuizFlowService) Reset(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	panic("MockQuizFlowService.ResetFunc not implemented")
}
func (m *MockQuizFlowService) Shutdown(ctx context.Context) error { return nil }

const cookieName = "quizlens_session"

func setupApp(t *testing.T, flow *MockQuizFlowService) *fiber.App {
	t.Helper()
	return newApp(t, flow)
}

func newApp(t *testing.T, flow service.QuizFlowService) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	app.Use(middleware.Session(cookieName, time.Hour))

	pages, err := handler.NewPageHandler(flow, 1<<20)
	require.NoError(t, err)
	handler.RegisterRoutes(app, handler.Handlers{
		Pages:   pages,
		Session: handler.NewSessionHandler(flow, 1<<20),
		Health:  handler.NewHealthHandler(adapter.NewMemoryCacheAdapter(), "memory"),
	})
	return app
}

func quizState() *domain.SessionState {
	s := domain.NewSessionState()
	s.ExtractedText = "Photosynthesis converts light into energy."
	s.Generated = true
	s.Questions = []domain.QuizQuestion{{
		Question: "What does photosynthesis convert?",
		Options:  map[string]string{"a": "Light", "b": "Sound", "c": "Heat", "d": "Wind"},
		Correct:  "a",
	}}
	return s
}

func decodeJSON(t *testing.T, r io.Reader, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r).Decode(v))
}

func TestSessionHandler_GetSession(t *testing.T) {
	var gotID string
	app := setupApp(t, &MockQuizFlowService{
		StateFunc: func(ctx context.Context, sessionID string) (*domain.SessionState, error) {
			gotID = sessionID
			return quizState(), nil
		},
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/session", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, gotID)

	var body dto.SessionResponse
	decodeJSON(t, resp.Body, &body)
	assert.Equal(t, "QUIZ", body.Phase)
	require.Len(t, body.Questions, 1)
	assert.Len(t, body.Questions[0].Options, 4)
}

func TestSessionHandler_EnterText(t *testing.T) {
	var gotText string
	app := setupApp(t, &MockQuizFlowService{
		EnterTextFunc: func(ctx context.Context, sessionID, text string) (*domain.SessionState, error) {
			gotText = text
			s := domain.NewSessionState()
			s.ExtractedText = text
			return s, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/session/text", strings.NewReader(`{"text":"Cells divide by mitosis."}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cells divide by mitosis.", gotText)

	req = httptest.NewRequest(http.MethodPost, "/api/session/text", strings.NewReader(`{"text":`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionHandler_Generate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		loading    bool
		wantStatus int
		wantLevel  string
	}{
		{"accepted", `{"level":"hard"}`, nil, true, http.StatusAccepted, "hard"},
		{"no body uses default", ``, nil, true, http.StatusAccepted, ""},
		{"blank text is a no-op", `{"level":"easy"}`, nil, false, http.StatusOK, "easy"},
		{"invalid level", `{"level":"expert"}`, domain.NewInvalidLevelError("expert"), false, http.StatusBadRequest, "expert"},
		{"wrong phase", `{}`, domain.NewInvalidTransitionError("QUIZ", "generate_requested"), false, http.StatusConflict, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLevel string
			app := setupApp(t, &MockQuizFlowService{
				RequestGenerationFunc: func(ctx context.Context, sessionID, level string) (*domain.SessionState, error) {
					gotLevel = level
					if tt.err != nil {
						return nil, tt.err
					}
					s := domain.NewSessionState()
					s.Loading = tt.loading
					return s, nil
				},
			})
			req := httptest.NewRequest(http.MethodPost, "/api/session/generate", strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantLevel, gotLevel)
		})
	}
}

func TestSessionHandler_Answers(t *testing.T) {
	var selected struct {
		index  int
		letter string
	}
	cleared := -1
	app := setupApp(t, &MockQuizFlowService{
		SelectAnswerFunc: func(ctx context.Context, sessionID string, index int, letter string) (*domain.SessionState, error) {
			selected.index, selected.letter = index, letter
			if index > 0 {
				return nil, domain.NewInvalidInputError("question index out of range")
			}
			s := quizState()
			s.Selections["q0"] = "Light"
			return s, nil
		},
		ClearAnswerFunc: func(ctx context.Context, sessionID string, index int) (*domain.SessionState, error) {
			cleared = index
			return quizState(), nil
		},
	})

	req := httptest.NewRequest(http.MethodPut, "/api/session/answers/0", strings.NewReader(`{"option":"A"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, selected.index)
	assert.Equal(t, "A", selected.letter)
	var body dto.SessionResponse
	decodeJSON(t, resp.Body, &body)
	assert.Equal(t, "a", body.Questions[0].Selected)

	req = httptest.NewRequest(http.MethodPut, "/api/session/answers/5", strings.NewReader(`{"option":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPut, "/api/session/answers/0", strings.NewReader(`{"option":"e"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/session/answers/0", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, cleared)
}

func TestSessionHandler_Submit(t *testing.T) {
	app := setupApp(t, &MockQuizFlowService{
		SubmitFunc: func(ctx context.Context, sessionID string) (*domain.SessionState, quizflow.ScoreReport, error) {
			s := quizState()
			s.Submitted = true
			return s, quizflow.ScoreState(s), nil
		},
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/session/submit", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.ResultsResponse
	decodeJSON(t, resp.Body, &body)
	assert.Equal(t, 0, body.Correct)
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, "unanswered", body.Answers[0].Status)
	assert.Equal(t, "Light", body.Answers[0].CorrectAnswer)
}

func multipartImage(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="image"; filename="` + filename + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestSessionHandler_UploadImage(t *testing.T) {
	var got domain.ImageUpload
	app := setupApp(t, &MockQuizFlowService{
		UploadImageFunc: func(ctx context.Context, sessionID string, upload domain.ImageUpload) (*domain.SessionState, error) {
			got = upload
			if upload.Filename == "blurry.png" {
				return nil, domain.NewOCRFailedError(errors.New("engine"))
			}
			s := domain.NewSessionState()
			s.InputMode = domain.InputModeImage
			s.ExtractedText = "read from image"
			s.Image = &domain.ImageRef{ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", Filename: upload.Filename}
			return s, nil
		},
	})

	body, ct := multipartImage(t, "page.png", "image/png", []byte("\x89PNG fake"))
	req := httptest.NewRequest(http.MethodPost, "/api/session/image", body)
	req.Header.Set("Content-Type", ct)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "page.png", got.Filename)
	assert.Equal(t, []byte("\x89PNG fake"), got.Data)
	var session dto.SessionResponse
	decodeJSON(t, resp.Body, &session)
	assert.Equal(t, "image", session.InputMode)
	assert.Equal(t, "read from image", session.ExtractedText)

	body, ct = multipartImage(t, "blurry.png", "image/png", []byte("x"))
	req = httptest.NewRequest(http.MethodPost, "/api/session/image", body)
	req.Header.Set("Content-Type", ct)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body, ct = multipartImage(t, "notes.gif", "image/gif", []byte("GIF89a"))
	req = httptest.NewRequest(http.MethodPost, "/api/session/image", body)
	req.Header.Set("Content-Type", ct)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionHandler_GetImage(t *testing.T) {
	app := setupApp(t, &MockQuizFlowService{
		ImageFunc: func(ctx context.Context, sessionID string) (*domain.ImageRef, []byte, error) {
			return &domain.ImageRef{ID: "img", ContentType: "image/jpeg"}, []byte("jpeg-bytes"), nil
		},
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/session/image", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestSessionHandler_LevelsAndHealth(t *testing.T) {
	app := setupApp(t, &MockQuizFlowService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/levels", nil))
	require.NoError(t, err)
	var levels []dto.LevelResponse
	decodeJSON(t, resp.Body, &levels)
	assert.Len(t, levels, 3)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health dto.HealthResponse
	decodeJSON(t, resp.Body, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "memory", health.Store)
}
