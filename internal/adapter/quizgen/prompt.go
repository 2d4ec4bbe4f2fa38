package quizgen

import (
	"fmt"

	"quiz-lens/internal/domain"
)

// responseExample is the JSON shape the model is asked to follow.
const responseExample = `{"mcqs": [{"mcq": "multiple choice question1", "options": {"a": "choice here1", "b": "choice here2", "c": "choice here3", "d": "choice here4"}, "correct": "a"}]}`

const promptTemplate = `Text: %s

You are an expert in generating MCQ-type quizzes based on the provided content.
Given the above text, create a quiz of %d multiple-choice questions, keeping the difficulty level as %s.

Rules:
1. Every question has exactly four options keyed "a", "b", "c" and "d".
2. "correct" is the key of the right option.
3. Only use facts that appear in the text.

Ensure to format your response like RESPONSE_JSON below and respond with the JSON only.
Here is the RESPONSE_JSON:
%s
`

// BuildPrompt renders the generation prompt for text at level.
func BuildPrompt(text string, level domain.QuizLevel) string {
	return fmt.Sprintf(promptTemplate, text, domain.QuestionsPerQuiz, level, responseExample)
}
