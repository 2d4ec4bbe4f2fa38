// Package quizgen turns source text into multiple-choice quizzes with a
// generative text model.
package quizgen

import (
	"context"
	"errors"
	"time"

	"quiz-lens/internal/domain"
	"quiz-lens/internal/logger"

	"go.uber.org/zap"
)

// LLMQuizGenerator implements domain.QuizGenerator.
type LLMQuizGenerator struct {
	completer domain.TextCompleter
	timeout   time.Duration
}

func NewLLMQuizGenerator(completer domain.TextCompleter, timeout time.Duration) *LLMQuizGenerator {
	return &LLMQuizGenerator{completer: completer, timeout: timeout}
}

var _ domain.QuizGenerator = (*LLMQuizGenerator)(nil)

// GenerateQuiz asks the model for a quiz and parses the answer. Model
// failures are returned as LLM_SERVICE_ERROR (or LLM_NOT_CONFIGURED),
// unreadable answers as PARSE_ERROR.
func (g *LLMQuizGenerator) GenerateQuiz(ctx context.Context, text string, level domain.QuizLevel) (*domain.GeneratedQuiz, error) {
	l := logger.Get()
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(text, level)
	l.Debug("Requesting quiz from model", zap.String("level", string(level)), zap.Int("text_length", len(text)))

	start := time.Now()
	raw, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			return nil, de
		}
		l.Error("Quiz model call failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, domain.NewLLMServiceError(err)
	}
	l.Debug("Raw quiz model response received", zap.Int("length", len(raw)), zap.Duration("elapsed", time.Since(start)))

	quiz, err := ParseQuizResponse(raw)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			l.Warn("Could not parse quiz model response",
				zap.String("kind", string(pe.Kind)),
				zap.String("snippet", pe.Snippet),
				zap.Error(pe.Err))
		}
		return nil, domain.NewParseError(err)
	}
	if quiz.Dropped > 0 {
		l.Warn("Dropped malformed questions", zap.Int("dropped", quiz.Dropped), zap.Int("kept", len(quiz.Questions)))
	}
	l.Info("Quiz generated", zap.Int("questions", len(quiz.Questions)), zap.String("level", string(level)))
	return quiz, nil
}
