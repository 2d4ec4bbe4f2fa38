package quizgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"quiz-lens/internal/domain"
)

type ParseErrorKind string

const (
	KindInvalidJSON  ParseErrorKind = "invalid_json"
	KindInvalidShape ParseErrorKind = "invalid_shape"
)

// ParseError reports a model response that could not be turned into a quiz.
type ParseError struct {
	Kind    ParseErrorKind
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("quiz response %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

const maxSnippetBytes = 200

func newParseError(kind ParseErrorKind, body string, err error) *ParseError {
	snippet := body
	if len(snippet) > maxSnippetBytes {
		cut := maxSnippetBytes
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut]
	}
	return &ParseError{Kind: kind, Snippet: snippet, Err: err}
}

// StripCodeFence removes a surrounding Markdown code fence, with or without
// a language tag.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = s[3:]
	if i := strings.IndexAny(s, "\n{["); i >= 0 {
		s = s[i:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// stripThink drops a <think>...</think> block some reasoning models emit.
func stripThink(s string) string {
	start := strings.Index(s, "<think>")
	if start == -1 {
		return s
	}
	end := strings.Index(s, "</think>")
	if end == -1 || end < start {
		return s
	}
	return strings.TrimSpace(s[:start] + s[end+len("</think>"):])
}

// extractObject cuts the outermost JSON object out of surrounding prose.
func extractObject(s string) string {
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return s
	}
	return s[start : end+1]
}

// CleanResponse applies the same clean-up ParseQuizResponse does before
// decoding.
func CleanResponse(raw string) string {
	s := stripThink(strings.TrimSpace(raw))
	s = StripCodeFence(s)
	return extractObject(s)
}

// ParseQuizResponse decodes a model answer of the form {"mcqs": [...]}.
// A missing "mcqs" key yields an empty quiz. Entries that do not decode or
// fail validation are dropped and counted.
func ParseQuizResponse(raw string) (*domain.GeneratedQuiz, error) {
	body := CleanResponse(raw)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, newParseError(KindInvalidShape, body, fmt.Errorf("top level is a %s, not an object", typeErr.Value))
		}
		return nil, newParseError(KindInvalidJSON, body, err)
	}

	quiz := &domain.GeneratedQuiz{Questions: []domain.QuizQuestion{}}
	items, ok := envelope["mcqs"]
	if !ok || string(items) == "null" {
		return quiz, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(items, &entries); err != nil {
		return nil, newParseError(KindInvalidShape, body, fmt.Errorf("mcqs is not a list: %w", err))
	}

	for _, entry := range entries {
		var q domain.QuizQuestion
		if err := json.Unmarshal(entry, &q); err != nil {
			quiz.Dropped++
			continue
		}
		q = resolveCorrect(q.Normalize())
		if err := q.Validate(); err != nil {
			quiz.Dropped++
			continue
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	return quiz, nil
}

// resolveCorrect maps a correct answer given as option text (or "b) text")
// back to its letter. Text matching more than one option stays unresolved,
// so the question fails validation.
func resolveCorrect(q domain.QuizQuestion) domain.QuizQuestion {
	if _, ok := q.Options[q.Correct]; ok || q.Correct == "" {
		return q
	}
	if len(q.Correct) > 1 && (q.Correct[1] == ')' || q.Correct[1] == '.') {
		if _, ok := q.Options[q.Correct[:1]]; ok {
			q.Correct = q.Correct[:1]
			return q
		}
	}
	var match string
	for _, opt := range q.OrderedOptions() {
		if strings.EqualFold(opt.Text, q.Correct) {
			if match != "" {
				return q
			}
			match = opt.Letter
		}
	}
	if match != "" {
		q.Correct = match
	}
	return q
}
