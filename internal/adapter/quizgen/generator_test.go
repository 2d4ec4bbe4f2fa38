package quizgen

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-lens/internal/config"
	"quiz-lens/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// mockCompleter is a func-field mock of domain.TextCompleter.
type mockCompleter struct {
	CompleteFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteFunc(ctx, prompt)
}

// fakeModel is a minimal llms.Model.
type fakeModel struct {
	response    string
	err         error
	prompt      string
	temperature float64
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	f.temperature = opts.Temperature
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.prompt = text.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.response}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Photosynthesis converts light into energy.", domain.LevelMedium)
	assert.Contains(t, prompt, "Text: Photosynthesis converts light into energy.")
	assert.Contains(t, prompt, "10 multiple-choice questions")
	assert.Contains(t, prompt, "difficulty level as medium")
	assert.Contains(t, prompt, `"mcqs"`)
	assert.Contains(t, prompt, `"correct": "a"`)
}

func TestLLMQuizGenerator_Success(t *testing.T) {
	var gotPrompt string
	gen := NewLLMQuizGenerator(&mockCompleter{
		CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
			gotPrompt = prompt
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return "```json\n" + twoQuestions + "\n```", nil
		},
	}, time.Minute)

	quiz, err := gen.GenerateQuiz(context.Background(), "plant biology", domain.LevelHard)
	require.NoError(t, err)
	assert.Len(t, quiz.Questions, 2)
	assert.Contains(t, gotPrompt, "plant biology")
	assert.Contains(t, gotPrompt, "hard")
}

func TestLLMQuizGenerator_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     domain.ErrorCode
	}{
		{"model error", "", errors.New("503 from upstream"), domain.CodeLLMServiceError},
		{"not configured", "", domain.NewLLMNotConfiguredError(), domain.CodeLLMNotConfigured},
		{"garbage", "As an AI model I cannot", nil, domain.CodeParseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewLLMQuizGenerator(&mockCompleter{
				CompleteFunc: func(context.Context, string) (string, error) { return tt.response, tt.err },
			}, 0)
			quiz, err := gen.GenerateQuiz(context.Background(), "text", domain.LevelEasy)
			assert.Nil(t, quiz)
			assert.Equal(t, tt.want, domain.ErrorCodeOf(err))
		})
	}
}

func TestLangChainCompleter(t *testing.T) {
	model := &fakeModel{response: "hello"}
	c := NewLangChainCompleter(model, 0.3)

	out, err := c.Complete(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "say hello", model.prompt)
	assert.InDelta(t, 0.3, model.temperature, 1e-9)

	model.err = errors.New("quota exceeded")
	_, err = c.Complete(context.Background(), "again")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestNewCompleter_WithoutAPIKey(t *testing.T) {
	c, err := NewCompleter(context.Background(), config.LLMConfig{Provider: config.ProviderGoogleAI, Model: "gemini-1.5-pro-latest"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "prompt")
	assert.Equal(t, domain.CodeLLMNotConfigured, domain.ErrorCodeOf(err))
}

func TestNewCompleter_UnknownProvider(t *testing.T) {
	_, err := NewCompleter(context.Background(), config.LLMConfig{Provider: "carrier-pigeon", APIKey: "k"})
	assert.ErrorContains(t, err, "unknown LLM provider")
}

func TestOpenAICompatibleCompleter(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","model":"llama-3.1-8b-instant",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"mcqs\": []}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompatibleCompleter(config.LLMConfig{
		APIKey:  "secret",
		Model:   "llama-3.1-8b-instant",
		BaseURL: srv.URL + "/v1",
	})
	out, err := c.Complete(context.Background(), "make a quiz")
	require.NoError(t, err)
	assert.Equal(t, `{"mcqs": []}`, out)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Contains(t, gotBody, "make a quiz")
	assert.Contains(t, gotBody, "llama-3.1-8b-instant")
}

func TestOpenAICompatibleCompleter_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	c := NewOpenAICompatibleCompleter(config.LLMConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), "x")
	assert.Error(t, err)
}
