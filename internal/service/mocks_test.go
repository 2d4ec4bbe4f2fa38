package service

import (
	"context"

	"quiz-lens/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockTextExtractor ---
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) ExtractText(ctx context.Context, img domain.ImageUpload) (string, error) {
	args := m.Called(ctx, img)
	return args.String(0), args.Error(1)
}

// --- MockQuizGenerator ---
type MockQuizGenerator struct {
	mock.Mock
}

func (m *MockQuizGenerator) GenerateQuiz(ctx context.Context, text string, level domain.QuizLevel) (*domain.GeneratedQuiz, error) {
	args := m.Called(ctx, text, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneratedQuiz), args.Error(1)
}

// panickingGenerator stands in for a model client that blows up.
type panickingGenerator struct{}

func (panickingGenerator) GenerateQuiz(context.Context, string, domain.QuizLevel) (*domain.GeneratedQuiz, error) {
	panic("nil pointer in model client")
}

func sampleQuestions(n int) []domain.QuizQuestion {
	questions := make([]domain.QuizQuestion, n)
	for i := range questions {
		questions[i] = domain.QuizQuestion{
			Question: "What does photosynthesis produce?",
			Options:  map[string]string{"a": "Oxygen", "b": "Nitrogen", "c": "Helium", "d": "Argon"},
			Correct:  "a",
		}
	}
	return questions
}
