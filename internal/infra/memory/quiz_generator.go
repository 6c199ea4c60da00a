package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

// StaticQuizGenerator produces deterministic placeholder quizzes (useful for
// tests and demo mode without an AI backend).
type StaticQuizGenerator struct {
	clock func() time.Time
}

func NewStaticQuizGenerator() *StaticQuizGenerator {
	return &StaticQuizGenerator{clock: time.Now}
}

func (g *StaticQuizGenerator) Generate(_ context.Context, category, difficulty string, count int) (domain.Quiz, error) {
	questions := make([]domain.Question, 0, count)
	totalPoints := 0
	for i := 0; i < count; i++ {
		q := domain.Question{
			Text:             fmt.Sprintf("Sample %s question #%d", category, i+1),
			Options:          []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectIndex:     i % domain.OptionCount,
			Explanation:      "Sample explanation",
			Points:           10,
			TimeLimitSeconds: 30,
		}
		questions = append(questions, q)
		totalPoints += q.Points
	}
	return domain.Quiz{
		ID:          uuid.NewString(),
		Title:       fmt.Sprintf("%s Quiz - %s", category, difficulty),
		Category:    category,
		Difficulty:  difficulty,
		Questions:   questions,
		TotalPoints: totalPoints,
		CreatedAt:   g.clock(),
	}, nil
}
