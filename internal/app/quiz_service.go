package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

// QuizRepository is the full quiz persistence surface the catalog needs.
type QuizRepository interface {
	QuizWriter
	QuizSource
}

// QuizService is the standalone catalog surface: quizzes generated outside a
// challenge (solo practice) and answer-free quiz delivery to players.
type QuizService struct {
	quizzes   QuizRepository
	generator QuizGenerator
	log       *logrus.Entry
}

func NewQuizService(quizzes QuizRepository, generator QuizGenerator) *QuizService {
	return &QuizService{
		quizzes:   quizzes,
		generator: generator,
		log:       logrus.WithField("component", "quizzes"),
	}
}

// GenerateQuiz produces and persists a fresh quiz, returning the player view.
func (s *QuizService) GenerateQuiz(ctx context.Context, category, difficulty string, count int) (domain.QuizView, error) {
	if count <= 0 {
		count = DefaultQuestionCount
	}
	quiz, err := s.generator.Generate(ctx, category, difficulty, count)
	if err != nil {
		return domain.QuizView{}, fmt.Errorf("generate quiz: %w", err)
	}
	if err := s.quizzes.Insert(ctx, quiz); err != nil {
		return domain.QuizView{}, fmt.Errorf("store quiz: %w", err)
	}
	s.log.Infof("quiz generated: %s (%s/%s, %d questions)", quiz.ID, category, difficulty, len(quiz.Questions))
	return quiz.PlayerView(), nil
}

// GetQuizForPlay returns a quiz with the answer key stripped.
func (s *QuizService) GetQuizForPlay(ctx context.Context, quizID string) (domain.QuizView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizView{}, err
	}
	return quiz.PlayerView(), nil
}
