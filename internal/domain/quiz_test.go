package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestion() QuizQuestion {
	return QuizQuestion{
		Question: "2+2=?",
		Options:  map[string]string{"a": "3", "b": "4", "c": "5", "d": "6"},
		Correct:  "b",
	}
}

func TestParseQuizLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    QuizLevel
		wantErr bool
	}{
		{"easy", LevelEasy, false},
		{"Medium", LevelMedium, false},
		{" HARD ", LevelHard, false},
		{"", LevelEasy, false},
		{"extreme", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuizLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, CodeInvalidLevel, ErrorCodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuizLevel_Label(t *testing.T) {
	assert.Equal(t, "Medium", LevelMedium.Label())
	assert.Equal(t, "", QuizLevel("").Label())
}

func TestQuizQuestion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q *QuizQuestion)
		wantErr error
	}{
		{"valid", func(q *QuizQuestion) {}, nil},
		{"empty question", func(q *QuizQuestion) { q.Question = "  " }, ErrEmptyQuestion},
		{"three options", func(q *QuizQuestion) { delete(q.Options, "d") }, ErrWrongOptionCount},
		{"wrong key", func(q *QuizQuestion) { delete(q.Options, "d"); q.Options["e"] = "7" }, ErrUnknownOptionKey},
		{"blank option", func(q *QuizQuestion) { q.Options["c"] = "" }, ErrBlankOption},
		{"correct not in options", func(q *QuizQuestion) { q.Correct = "e" }, ErrCorrectNotInOption},
		{"correct holds answer text", func(q *QuizQuestion) { q.Correct = "4" }, ErrCorrectNotInOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := sampleQuestion()
			tt.mutate(&q)
			err := q.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestQuizQuestion_Normalize(t *testing.T) {
	q := QuizQuestion{
		Question: "  Capital of France? ",
		Options:  map[string]string{"A": " Paris", "B": "Rome ", "c": "Madrid", " D ": "Berlin"},
		Correct:  " A",
	}
	n := q.Normalize()
	require.NoError(t, n.Validate())
	assert.Equal(t, "Capital of France?", n.Question)
	assert.Equal(t, "a", n.Correct)
	assert.Equal(t, "Paris", n.Options["a"])
	assert.Equal(t, "Berlin", n.Options["d"])
}

func TestQuizQuestion_Lookups(t *testing.T) {
	q := sampleQuestion()

	answer, ok := q.CorrectAnswer()
	assert.True(t, ok)
	assert.Equal(t, "4", answer)

	text, ok := q.OptionText("C")
	assert.True(t, ok)
	assert.Equal(t, "5", text)

	letter, ok := q.LetterFor("6")
	assert.True(t, ok)
	assert.Equal(t, "d", letter)

	_, ok = q.LetterFor("42")
	assert.False(t, ok)

	opts := q.OrderedOptions()
	require.Len(t, opts, 4)
	for i, letter := range OptionLetters {
		assert.Equal(t, letter, opts[i].Letter)
	}
}

func TestSelectionKey(t *testing.T) {
	assert.Equal(t, "q0", SelectionKey(0))
	assert.Equal(t, "q9", SelectionKey(9))
}
