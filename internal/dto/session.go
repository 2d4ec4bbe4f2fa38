package dto

import (
	"quiz-lens/internal/domain"
	"quiz-lens/internal/quizflow"
)

// TextRequest carries pasted source text
// @Description Request body for entering source text
type TextRequest struct {
	Text string `json:"text" example:"Photosynthesis converts light energy into chemical energy."`
}

// GenerateRequest selects the quiz difficulty
// @Description Request body for starting quiz generation
type GenerateRequest struct {
	Level string `json:"level" example:"medium" enums:"easy,medium,hard"`
}

// SelectAnswerRequest picks an option for one question
// @Description Request body for answering a question
type SelectAnswerRequest struct {
	Option string `json:"option" example:"b" enums:"a,b,c,d"`
}

type OptionResponse struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// QuestionResponse is a question as shown while answering. The correct
// option is not included.
type QuestionResponse struct {
	Index    int              `json:"index"`
	Question string           `json:"question"`
	Options  []OptionResponse `json:"options"`
	Selected string           `json:"selected,omitempty"`
}

type ImageResponse struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type AnswerResultResponse struct {
	Index         int    `json:"index"`
	Question      string `json:"question"`
	Selected      string `json:"selected,omitempty"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	Status        string `json:"status" enums:"correct,incorrect,unanswered,invalid"`
}

// ResultsResponse is the score report of a submitted quiz
// @Description Score report
type ResultsResponse struct {
	Correct int                    `json:"correct"`
	Total   int                    `json:"total"`
	Answers []AnswerResultResponse `json:"answers"`
}

// SessionResponse is the full view of one quiz session
// @Description Current session state
type SessionResponse struct {
	Phase           string             `json:"phase" enums:"INPUT,LOADING,QUIZ,RESULTS"`
	InputMode       string             `json:"input_mode" enums:"text,image"`
	ExtractedText   string             `json:"extracted_text"`
	Level           string             `json:"level"`
	Image           *ImageResponse     `json:"image,omitempty"`
	Questions       []QuestionResponse `json:"questions"`
	Answered        int                `json:"answered"`
	Dropped         int                `json:"dropped,omitempty"`
	GenerationError string             `json:"generation_error,omitempty"`
	Results         *ResultsResponse   `json:"results,omitempty"`
}

type LevelResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// NewResultsResponse converts a score report.
func NewResultsResponse(report quizflow.ScoreReport) *ResultsResponse {
	answers := make([]AnswerResultResponse, 0, len(report.Answers))
	for _, a := range report.Answers {
		answers = append(answers, AnswerResultResponse{
			Index:         a.Index,
			Question:      a.Question,
			Selected:      a.Selected,
			CorrectAnswer: a.CorrectAnswer,
			Status:        string(a.Status),
		})
	}
	return &ResultsResponse{Correct: report.Correct, Total: report.Total, Answers: answers}
}

// NewSessionResponse builds the API view of s. Results are only included
// once the quiz has been submitted.
func NewSessionResponse(s *domain.SessionState) SessionResponse {
	phase := quizflow.PhaseOf(s)
	resp := SessionResponse{
		Phase:           string(phase),
		InputMode:       string(s.InputMode),
		ExtractedText:   s.ExtractedText,
		Level:           string(s.Level),
		Questions:       make([]QuestionResponse, 0, len(s.Questions)),
		Dropped:         s.Dropped,
		GenerationError: s.GenerationError,
	}
	if s.Image != nil {
		resp.Image = &ImageResponse{
			ID:          s.Image.ID,
			Filename:    s.Image.Filename,
			ContentType: s.Image.ContentType,
			Size:        s.Image.Size,
		}
	}
	for i, q := range s.Questions {
		qr := QuestionResponse{Index: i, Question: q.Question, Options: make([]OptionResponse, 0, len(q.Options))}
		for _, opt := range q.OrderedOptions() {
			qr.Options = append(qr.Options, OptionResponse{Letter: opt.Letter, Text: opt.Text})
		}
		if selected, ok := s.Selections[domain.SelectionKey(i)]; ok {
			if letter, found := q.LetterFor(selected); found {
				qr.Selected = letter
			}
			resp.Answered++
		}
		resp.Questions = append(resp.Questions, qr)
	}
	if phase == quizflow.PhaseResults {
		resp.Results = NewResultsResponse(quizflow.ScoreState(s))
	}
	return resp
}

// NewLevelsResponse lists the selectable difficulty levels.
func NewLevelsResponse() []LevelResponse {
	levels := make([]LevelResponse, 0, len(domain.QuizLevels))
	for _, l := range domain.QuizLevels {
		levels = append(levels, LevelResponse{Value: string(l), Label: l.Label()})
	}
	return levels
}
