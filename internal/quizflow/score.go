package quizflow

import "quiz-lens/internal/domain"

// AnswerStatus classifies one question in a submission.
type AnswerStatus string

const (
	StatusCorrect    AnswerStatus = "correct"
	StatusIncorrect  AnswerStatus = "incorrect"
	StatusUnanswered AnswerStatus = "unanswered"
	// StatusInvalid marks a question whose correct letter has no option; it
	// never counts as correct.
	StatusInvalid AnswerStatus = "invalid"
)

// ScoredAnswer is the per-question comparison shown on the results view.
type ScoredAnswer struct {
	Index         int          `json:"index"`
	Question      string       `json:"question"`
	Selected      string       `json:"selected,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Status        AnswerStatus `json:"status"`
}

// ScoreReport is the outcome of a submission.
type ScoreReport struct {
	Answers []ScoredAnswer `json:"answers"`
	Correct int            `json:"correct"`
	Total   int            `json:"total"`
}

// Score compares every selection with the option text at the question's
// correct letter. Total is the number of stored questions.
func Score(questions []domain.QuizQuestion, selections map[string]string) ScoreReport {
	report := ScoreReport{
		Answers: make([]ScoredAnswer, 0, len(questions)),
		Total:   len(questions),
	}
	for i, q := range questions {
		selected, answered := selections[domain.SelectionKey(i)]
		item := ScoredAnswer{
			Index:    i,
			Question: q.Question,
			Selected: selected,
		}

		correct, ok := q.CorrectAnswer()
		switch {
		case !ok:
			item.Status = StatusInvalid
		case !answered || selected == "":
			item.CorrectAnswer = correct
			item.Status = StatusUnanswered
		case selected == correct:
			item.CorrectAnswer = correct
			item.Status = StatusCorrect
			report.Correct++
		default:
			item.CorrectAnswer = correct
			item.Status = StatusIncorrect
		}
		report.Answers = append(report.Answers, item)
	}
	return report
}

// ScoreState scores the questions and selections held by s.
func ScoreState(s *domain.SessionState) ScoreReport {
	return Score(s.Questions, s.Selections)
}
