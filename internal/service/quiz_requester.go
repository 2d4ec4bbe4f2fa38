package service

import (
	"context"
	"fmt"

	"quiz-lens/internal/domain"
	"quiz-lens/internal/logger"

	"go.uber.org/zap"
)

// GenerationOutcome is the result of one generation attempt. Questions is
// never nil; an empty list means generation failed.
type GenerationOutcome struct {
	Questions []domain.QuizQuestion
	Dropped   int
	Failure   error
}

// Failed reports whether the attempt produced no usable questions.
func (o GenerationOutcome) Failed() bool {
	return len(o.Questions) == 0
}

// Notice is the message shown to the user when generation failed.
func (o GenerationOutcome) Notice() string {
	if !o.Failed() {
		return ""
	}
	switch domain.ErrorCodeOf(o.Failure) {
	case domain.CodeLLMNotConfigured:
		return "Quiz generation is not configured. Set an API key for the quiz model and try again."
	case domain.CodeLLMServiceError:
		return "The quiz model could not be reached. Please try again."
	case domain.CodeParseError:
		return "The quiz model returned an answer that could not be read. Please try again."
	}
	if o.Failure != nil {
		return "Quiz generation failed. Please try again."
	}
	return "No questions could be generated from this text."
}

// QuizRequester wraps a domain.QuizGenerator so that callers always get an
// outcome instead of an error or a panic.
type QuizRequester struct {
	generator domain.QuizGenerator
}

func NewQuizRequester(generator domain.QuizGenerator) *QuizRequester {
	return &QuizRequester{generator: generator}
}

// Generate requests a quiz for text at level.
func (r *QuizRequester) Generate(ctx context.Context, text string, level domain.QuizLevel) (out GenerationOutcome) {
	l := logger.Get()
	defer func() {
		if p := recover(); p != nil {
			l.Error("Quiz generation panicked", zap.Any("panic", p))
			out = GenerationOutcome{
				Questions: []domain.QuizQuestion{},
				Failure:   domain.NewInternalError("quiz generation panicked", fmt.Errorf("%v", p)),
			}
		}
	}()

	quiz, err := r.generator.GenerateQuiz(ctx, text, level)
	if err != nil {
		l.Warn("Quiz generation failed", zap.Error(err), zap.String("code", string(domain.ErrorCodeOf(err))))
		return GenerationOutcome{Questions: []domain.QuizQuestion{}, Failure: err}
	}
	if quiz == nil || quiz.Questions == nil {
		return GenerationOutcome{Questions: []domain.QuizQuestion{}}
	}
	return GenerationOutcome{Questions: quiz.Questions, Dropped: quiz.Dropped}
}
