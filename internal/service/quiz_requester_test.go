package service

import (
	"context"
	"errors"
	"testing"

	"quiz-lens/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestQuizRequester_Success(t *testing.T) {
	gen := new(MockQuizGenerator)
	gen.On("GenerateQuiz", mock.Anything, "Photosynthesis...", domain.LevelEasy).
		Return(&domain.GeneratedQuiz{Questions: sampleQuestions(10), Dropped: 1}, nil)

	out := NewQuizRequester(gen).Generate(context.Background(), "Photosynthesis...", domain.LevelEasy)
	assert.Len(t, out.Questions, 10)
	assert.Equal(t, 1, out.Dropped)
	assert.NoError(t, out.Failure)
	assert.False(t, out.Failed())
	assert.Empty(t, out.Notice())
	gen.AssertExpectations(t)
}

func TestQuizRequester_NeverFails(t *testing.T) {
	tests := []struct {
		name      string
		quiz      *domain.GeneratedQuiz
		err       error
		wantCode  domain.ErrorCode
		wantInMsg string
	}{
		{"model error", nil, domain.NewLLMServiceError(errors.New("timeout")), domain.CodeLLMServiceError, "could not be reached"},
		{"parse error", nil, domain.NewParseError(errors.New("bad json")), domain.CodeParseError, "could not be read"},
		{"not configured", nil, domain.NewLLMNotConfiguredError(), domain.CodeLLMNotConfigured, "API key"},
		{"plain error", nil, errors.New("boom"), "", "generation failed"},
		{"empty quiz", &domain.GeneratedQuiz{Questions: []domain.QuizQuestion{}, Dropped: 10}, nil, "", "No questions"},
		{"nil questions", &domain.GeneratedQuiz{}, nil, "", "No questions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockQuizGenerator)
			if tt.quiz != nil {
				gen.On("GenerateQuiz", mock.Anything, mock.Anything, mock.Anything).Return(tt.quiz, nil)
			} else {
				gen.On("GenerateQuiz", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			out := NewQuizRequester(gen).Generate(context.Background(), "text", domain.LevelHard)
			assert.NotNil(t, out.Questions)
			assert.Empty(t, out.Questions)
			assert.True(t, out.Failed())
			assert.Equal(t, tt.wantCode, domain.ErrorCodeOf(out.Failure))
			assert.Contains(t, out.Notice(), tt.wantInMsg)
		})
	}
}

func TestQuizRequester_RecoversPanic(t *testing.T) {
	var out GenerationOutcome
	assert.NotPanics(t, func() {
		out = NewQuizRequester(panickingGenerator{}).Generate(context.Background(), "text", domain.LevelEasy)
	})
	assert.NotNil(t, out.Questions)
	assert.Empty(t, out.Questions)
	assert.Equal(t, domain.CodeInternal, domain.ErrorCodeOf(out.Failure))
	assert.NotEmpty(t, out.Notice())
}
