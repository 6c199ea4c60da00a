package app

import (
	"math"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

// Grade scores a full submission against the quiz's answer key. It is pure
// and deterministic: identical input always yields an identical result, and
// any failure means the caller's input was malformed, never a transient
// condition. No partial result is ever returned.
func Grade(quiz domain.Quiz, answers []domain.AnswerSubmission) (domain.GradingResult, error) {
	total := len(quiz.Questions)
	if total == 0 {
		return domain.GradingResult{}, domain.Validationf("quiz %s has no questions", quiz.ID)
	}
	if len(answers) != total {
		return domain.GradingResult{}, domain.Validationf("expected %d answers, got %d", total, len(answers))
	}

	graded := make([]domain.GradedAnswer, 0, total)
	score := 0
	correct := 0
	duration := 0
	for _, answer := range answers {
		if answer.QuestionIndex < 0 || answer.QuestionIndex >= total {
			return domain.GradingResult{}, domain.Validationf("invalid question index: %d", answer.QuestionIndex)
		}
		if answer.SelectedAnswer < 0 || answer.SelectedAnswer >= domain.OptionCount {
			return domain.GradingResult{}, domain.Validationf("invalid selected answer: %d", answer.SelectedAnswer)
		}

		question := quiz.Questions[answer.QuestionIndex]
		isCorrect := answer.SelectedAnswer == question.CorrectIndex
		points := 0
		if isCorrect {
			points = question.Points
			score += points
			correct++
		}
		duration += answer.TimeSpentSeconds

		graded = append(graded, domain.GradedAnswer{
			QuestionIndex:    answer.QuestionIndex,
			SelectedAnswer:   answer.SelectedAnswer,
			IsCorrect:        isCorrect,
			PointsEarned:     points,
			TimeSpentSeconds: answer.TimeSpentSeconds,
		})
	}

	return domain.GradingResult{
		Answers:         graded,
		Score:           score,
		Percentage:      roundHalfUp(100 * float64(correct) / float64(total)),
		TotalQuestions:  total,
		CorrectAnswers:  correct,
		DurationSeconds: duration,
	}, nil
}

// roundHalfUp rounds to the nearest integer with ties going up, which is
// what math.Round does for non-negative input.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
