package domain

import (
	"errors"
	"fmt"
	"strings"
)

// QuizLevel is the difficulty label embedded in the generation prompt.
type QuizLevel string

const (
	LevelEasy   QuizLevel = "easy"
	LevelMedium QuizLevel = "medium"
	LevelHard   QuizLevel = "hard"
)

// QuizLevels lists the selectable levels in display order.
var QuizLevels = []QuizLevel{LevelEasy, LevelMedium, LevelHard}

// ParseQuizLevel accepts any casing ("Medium", "HARD") and returns the
// lowercase level. An empty string selects LevelEasy, the first entry of the
// selector.
func ParseQuizLevel(s string) (QuizLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return LevelEasy, nil
	}
	for _, l := range QuizLevels {
		if string(l) == normalized {
			return l, nil
		}
	}
	return "", NewInvalidLevelError(s)
}

// Label returns the level as shown in the selector ("Easy").
func (l QuizLevel) Label() string {
	if l == "" {
		return ""
	}
	return strings.ToUpper(string(l[:1])) + string(l[1:])
}

// OptionLetters are the keys of every question's option mapping, in order.
var OptionLetters = []string{"a", "b", "c", "d"}

// QuestionsPerQuiz is the number of questions requested from the model.
const QuestionsPerQuiz = 10

// QuizQuestion is one multiple-choice question as returned by the model.
type QuizQuestion struct {
	Question string            `json:"mcq"`
	Options  map[string]string `json:"options"`
	Correct  string            `json:"correct"`
}

// Option is a single lettered choice.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

var (
	ErrEmptyQuestion      = errors.New("question text is empty")
	ErrWrongOptionCount   = errors.New("question must have exactly four options")
	ErrUnknownOptionKey   = errors.New("option keys must be a, b, c and d")
	ErrBlankOption        = errors.New("option text is empty")
	ErrCorrectNotInOption = errors.New("correct letter is not one of the options")
)

// Validate checks the question invariant: a non-empty prompt, four non-blank
// options keyed a-d and a correct letter that is one of those keys.
func (q QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return ErrEmptyQuestion
	}
	if len(q.Options) != len(OptionLetters) {
		return fmt.Errorf("%w (got %d)", ErrWrongOptionCount, len(q.Options))
	}
	for _, letter := range OptionLetters {
		text, ok := q.Options[letter]
		if !ok {
			return fmt.Errorf("%w (missing %q)", ErrUnknownOptionKey, letter)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("%w (option %q)", ErrBlankOption, letter)
		}
	}
	if _, ok := q.Options[q.Correct]; !ok {
		return fmt.Errorf("%w (%q)", ErrCorrectNotInOption, q.Correct)
	}
	return nil
}

// Normalize lowercases and trims option keys and the correct letter. Models
// regularly answer with "B" or " b".
func (q QuizQuestion) Normalize() QuizQuestion {
	out := QuizQuestion{
		Question: strings.TrimSpace(q.Question),
		Options:  make(map[string]string, len(q.Options)),
		Correct:  strings.ToLower(strings.TrimSpace(q.Correct)),
	}
	for k, v := range q.Options {
		out.Options[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

// CorrectAnswer returns the option text at the correct letter.
func (q QuizQuestion) CorrectAnswer() (string, bool) {
	text, ok := q.Options[q.Correct]
	return text, ok
}

// OptionText returns the text for letter, if present.
func (q QuizQuestion) OptionText(letter string) (string, bool) {
	text, ok := q.Options[strings.ToLower(letter)]
	return text, ok
}

// LetterFor returns the letter whose option text equals text.
func (q QuizQuestion) LetterFor(text string) (string, bool) {
	for _, letter := range OptionLetters {
		if v, ok := q.Options[letter]; ok && v == text {
			return letter, true
		}
	}
	return "", false
}

// OrderedOptions returns the options sorted by letter.
func (q QuizQuestion) OrderedOptions() []Option {
	opts := make([]Option, 0, len(q.Options))
	for _, letter := range OptionLetters {
		if text, ok := q.Options[letter]; ok {
			opts = append(opts, Option{Letter: letter, Text: text})
		}
	}
	return opts
}

// SelectionKey is the key under which the answer to question index is kept.
func SelectionKey(index int) string {
	return fmt.Sprintf("q%d", index)
}
