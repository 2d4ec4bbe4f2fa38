package quizgen

import (
	"context"
	"fmt"
	"net/http"

	"quiz-lens/internal/config"
	"quiz-lens/internal/domain"
	"quiz-lens/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	openaiLLM "github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// LangChainCompleter implements domain.TextCompleter on top of any
// langchaingo model.
type LangChainCompleter struct {
	model       llms.Model
	temperature float64
}

func NewLangChainCompleter(model llms.Model, temperature float64) *LangChainCompleter {
	return &LangChainCompleter{model: model, temperature: temperature}
}

var _ domain.TextCompleter = (*LangChainCompleter)(nil)

func (c *LangChainCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithTemperature(c.temperature))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("LLM request timed out: %w", err)
		}
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	return resp, nil
}

// unconfiguredCompleter fails every call. It is installed when the provider
// needs an API key and none is set, so the server still starts.
type unconfiguredCompleter struct{}

func (unconfiguredCompleter) Complete(context.Context, string) (string, error) {
	return "", domain.NewLLMNotConfiguredError()
}

// NewCompleter builds the completer for cfg.Provider.
func NewCompleter(ctx context.Context, cfg config.LLMConfig) (domain.TextCompleter, error) {
	l := logger.Get()
	if cfg.Provider != config.ProviderOllama && cfg.APIKey == "" {
		l.Warn("No API key configured; quiz generation will fail until one is set",
			zap.String("provider", cfg.Provider))
		return unconfiguredCompleter{}, nil
	}

	switch cfg.Provider {
	case config.ProviderGoogleAI:
		model, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create googleai client: %w", err)
		}
		l.Info("Using Google AI quiz model", zap.String("model", cfg.Model))
		return NewLangChainCompleter(model, cfg.Temperature), nil

	case config.ProviderOpenAI:
		model, err := openaiLLM.New(
			openaiLLM.WithToken(cfg.APIKey),
			openaiLLM.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		l.Info("Using OpenAI quiz model", zap.String("model", cfg.Model))
		return NewLangChainCompleter(model, cfg.Temperature), nil

	case config.ProviderOllama:
		model, err := ollama.New(
			ollama.WithServerURL(cfg.ServerURL),
			ollama.WithModel(cfg.Model),
			ollama.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		l.Info("Using Ollama quiz model", zap.String("model", cfg.Model), zap.String("server", cfg.ServerURL))
		return NewLangChainCompleter(model, cfg.Temperature), nil

	case config.ProviderOpenAICompatible:
		l.Info("Using OpenAI-compatible quiz model", zap.String("model", cfg.Model), zap.String("base_url", cfg.BaseURL))
		return NewOpenAICompatibleCompleter(cfg), nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
}
