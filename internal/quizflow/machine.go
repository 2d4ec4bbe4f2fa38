// Package quizflow is the session state machine: INPUT -> LOADING -> QUIZ ->
// RESULTS -> INPUT. Apply is pure; side effects (OCR, model calls, storage)
// belong to the caller.
package quizflow

import (
	"strings"
	"time"

	"quiz-lens/internal/domain"
)

// Phase is the view a session is currently in.
type Phase string

const (
	PhaseInput   Phase = "INPUT"
	PhaseLoading Phase = "LOADING"
	PhaseQuiz    Phase = "QUIZ"
	PhaseResults Phase = "RESULTS"
)

// PhaseOf derives the phase from the state flags.
func PhaseOf(s *domain.SessionState) Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Generated && s.Submitted:
		return PhaseResults
	case s.Generated:
		return PhaseQuiz
	default:
		return PhaseInput
	}
}

// Event is a user action or a completed side effect.
type Event interface {
	Name() string
}

// TextEntered replaces the extracted text with pasted text.
type TextEntered struct {
	Text string
}

// ImageUploaded records an uploaded image and the text read from it.
type ImageUploaded struct {
	Ref  domain.ImageRef
	Text string
}

// GenerateRequested asks for a quiz at Level.
type GenerateRequested struct {
	Level domain.QuizLevel
}

// GenerationCompleted carries the requester's result. Failure is a
// user-facing reason and is empty when the model answered normally.
type GenerationCompleted struct {
	Questions []domain.QuizQuestion
	Dropped   int
	Failure   string
}

// AnswerSelected picks option Letter for question Index.
type AnswerSelected struct {
	Index  int
	Letter string
}

// AnswerCleared removes the selection for question Index.
type AnswerCleared struct {
	Index int
}

type QuizSubmitted struct{}

type BackToHome struct{}

type ResetRequested struct{}

func (TextEntered) Name() string         { return "text_entered" }
func (ImageUploaded) Name() string       { return "image_uploaded" }
func (GenerateRequested) Name() string   { return "generate_requested" }
func (GenerationCompleted) Name() string { return "generation_completed" }
func (AnswerSelected) Name() string      { return "answer_selected" }
func (AnswerCleared) Name() string       { return "answer_cleared" }
func (QuizSubmitted) Name() string       { return "quiz_submitted" }
func (BackToHome) Name() string          { return "back_to_home" }
func (ResetRequested) Name() string      { return "reset_requested" }

// now is replaced in tests.
var now = time.Now

// Apply returns the state that results from ev. The input state is never
// modified. Events that are not valid in the current phase return an
// INVALID_TRANSITION error; a generate request with blank text is a silent
// no-op.
func Apply(s *domain.SessionState, ev Event) (*domain.SessionState, error) {
	phase := PhaseOf(s)
	next := s.Clone()
	next.EnsureDefaults()

	switch e := ev.(type) {
	case TextEntered:
		if phase != PhaseInput {
			return nil, invalid(phase, ev)
		}
		next.ExtractedText = e.Text
		next.InputMode = domain.InputModeText

	case ImageUploaded:
		if phase != PhaseInput {
			return nil, invalid(phase, ev)
		}
		ref := e.Ref
		next.Image = &ref
		next.ExtractedText = e.Text
		next.InputMode = domain.InputModeImage

	case GenerateRequested:
		if phase != PhaseInput {
			return nil, invalid(phase, ev)
		}
		if strings.TrimSpace(next.ExtractedText) == "" {
			return next, nil
		}
		if e.Level != "" {
			next.Level = e.Level
		}
		next.Loading = true
		next.GenerationError = ""
		next.LoadingSince = now()

	case GenerationCompleted:
		if phase != PhaseLoading {
			return nil, invalid(phase, ev)
		}
		next.Questions = append([]domain.QuizQuestion{}, e.Questions...)
		next.Dropped = e.Dropped
		next.GenerationError = e.Failure
		next.Selections = map[string]string{}
		next.Generated = true
		next.Loading = false
		next.Submitted = false
		next.LoadingSince = time.Time{}

	case AnswerSelected:
		if phase != PhaseQuiz {
			return nil, invalid(phase, ev)
		}
		if e.Index < 0 || e.Index >= len(next.Questions) {
			return nil, domain.NewInvalidInputError("question index out of range").
				WithContext("index", e.Index).
				WithContext("questions", len(next.Questions))
		}
		text, ok := next.Questions[e.Index].OptionText(e.Letter)
		if !ok {
			return nil, domain.NewInvalidInputError("unknown option for question").
				WithContext("index", e.Index).
				WithContext("option", e.Letter)
		}
		next.Selections[domain.SelectionKey(e.Index)] = text

	case AnswerCleared:
		if phase != PhaseQuiz {
			return nil, invalid(phase, ev)
		}
		delete(next.Selections, domain.SelectionKey(e.Index))

	case QuizSubmitted:
		if phase != PhaseQuiz {
			return nil, invalid(phase, ev)
		}
		next.Submitted = true

	case BackToHome:
		if phase != PhaseResults && phase != PhaseQuiz {
			return nil, invalid(phase, ev)
		}
		next.Reset()

	case ResetRequested:
		if phase == PhaseLoading {
			return nil, invalid(phase, ev)
		}
		next.Reset()

	default:
		return nil, domain.NewInternalError("unknown quiz flow event", nil).WithContext("event", ev.Name())
	}

	next.UpdatedAt = now()
	return next, nil
}

func invalid(phase Phase, ev Event) *domain.DomainError {
	return domain.NewInvalidTransitionError(string(phase), ev.Name())
}
