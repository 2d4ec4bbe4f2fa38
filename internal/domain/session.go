package domain

import (
	"context"
	"strings"
	"time"
)

// InputMode records which input method produced ExtractedText.
type InputMode string

const (
	InputModeText  InputMode = "text"
	InputModeImage InputMode = "image"
)

// ImageRef is the opaque handle of the uploaded image. The bytes live in an
// ImageStore under ID.
type ImageRef struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ImageUpload is a raw image as received from the client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SessionState is everything one interactive session knows. It is owned by
// the quiz flow for the lifetime of the session and never shared.
type SessionState struct {
	ExtractedText   string            `json:"extracted_text"`
	InputMode       InputMode         `json:"input_mode"`
	Image           *ImageRef         `json:"image,omitempty"`
	Level           QuizLevel         `json:"level"`
	Questions       []QuizQuestion    `json:"questions"`
	Selections      map[string]string `json:"selections"`
	Generated       bool              `json:"generated"`
	Loading         bool              `json:"loading"`
	Submitted       bool              `json:"submitted"`
	Dropped         int               `json:"dropped"`
	GenerationError string            `json:"generation_error,omitempty"`
	LoadingSince    time.Time         `json:"loading_since,omitempty"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewSessionState returns the defaults every session starts from.
func NewSessionState() *SessionState {
	return &SessionState{
		InputMode:  InputModeText,
		Level:      LevelEasy,
		Questions:  []QuizQuestion{},
		Selections: map[string]string{},
	}
}

// HasImage reports whether an image has been uploaded in this session.
func (s *SessionState) HasImage() bool {
	return s.Image != nil
}

// HasText reports whether ExtractedText is non-blank.
func (s *SessionState) HasText() bool {
	return strings.TrimSpace(s.ExtractedText) != ""
}

// Reset clears the quiz (flags, questions, selections) and keeps the
// extracted text and the uploaded image so the user can regenerate from the
// same source. Calling it repeatedly is harmless.
func (s *SessionState) Reset() {
	s.Generated = false
	s.Loading = false
	s.Submitted = false
	s.Questions = []QuizQuestion{}
	s.Selections = map[string]string{}
	s.Dropped = 0
	s.GenerationError = ""
	s.LoadingSince = time.Time{}
}

// Clone returns a deep copy so transitions never alias the caller's state.
func (s *SessionState) Clone() *SessionState {
	out := *s
	if s.Image != nil {
		img := *s.Image
		out.Image = &img
	}
	out.Questions = make([]QuizQuestion, len(s.Questions))
	for i, q := range s.Questions {
		opts := make(map[string]string, len(q.Options))
		for k, v := range q.Options {
			opts[k] = v
		}
		out.Questions[i] = QuizQuestion{Question: q.Question, Options: opts, Correct: q.Correct}
	}
	out.Selections = make(map[string]string, len(s.Selections))
	for k, v := range s.Selections {
		out.Selections[k] = v
	}
	return &out
}

// EnsureDefaults fills nil collections left by older encodings.
func (s *SessionState) EnsureDefaults() {
	if s.Questions == nil {
		s.Questions = []QuizQuestion{}
	}
	if s.Selections == nil {
		s.Selections = map[string]string{}
	}
	if s.InputMode == "" {
		s.InputMode = InputModeText
	}
	if s.Level == "" {
		s.Level = LevelEasy
	}
}

// SessionStore persists one SessionState per session id.
type SessionStore interface {
	// Load returns the stored state, or fresh defaults when the session has
	// none yet.
	Load(ctx context.Context, sessionID string) (*SessionState, error)
	Save(ctx context.Context, sessionID string, state *SessionState) error
	Delete(ctx context.Context, sessionID string) error
}

// ImageStore keeps uploaded image bytes referenced by ImageRef.ID.
type ImageStore interface {
	Put(ctx context.Context, ref ImageRef, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// TextExtractor turns an image into plain text (OCR).
type TextExtractor interface {
	ExtractText(ctx context.Context, img ImageUpload) (string, error)
}

// TextCompleter sends a single prompt to a generative text model and returns
// its raw text answer.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeneratedQuiz is the parsed, validated result of one generation request.
type GeneratedQuiz struct {
	Questions []QuizQuestion
	// Dropped counts entries that failed QuizQuestion.Validate.
	Dropped int
}

// QuizGenerator builds a quiz from source text at the given level.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, text string, level QuizLevel) (*GeneratedQuiz, error)
}
