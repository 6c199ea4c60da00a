package gemini

import "fmt"

func buildPrompt(category, difficulty string, count int) string {
	return fmt.Sprintf(`Generate exactly %d multiple-choice quiz questions about %s at %s difficulty.

Respond with a JSON array only, no prose, no markdown. Each element must have:
- "questionText": the question
- "options": exactly 4 answer strings
- "correctAnswerIndex": integer 0-3 identifying the correct option
- "explanation": one sentence explaining why the answer is correct

Questions must be factually accurate and unambiguous, with a single correct answer each.`, count, category, difficulty)
}
