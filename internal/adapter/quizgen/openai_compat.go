package quizgen

import (
	"context"
	"errors"
	"fmt"

	"quiz-lens/internal/config"
	"quiz-lens/internal/domain"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompatibleCompleter talks to any endpoint that speaks the OpenAI chat
// completions API (Groq, DeepSeek, vLLM, ...).
type OpenAICompatibleCompleter struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAICompatibleCompleter(cfg config.LLMConfig) *OpenAICompatibleCompleter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAICompatibleCompleter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
	}
}

var _ domain.TextCompleter = (*OpenAICompatibleCompleter)(nil)

func (c *OpenAICompatibleCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
