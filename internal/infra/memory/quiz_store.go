package memory

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

// QuizStore is an in-memory quiz repository. RecordAttempt performs the
// counter increment and average fold inside one critical section, matching
// the atomic single-operation contract of the document store.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[string]domain.Quiz)}
}

func (s *QuizStore) Insert(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.quizzes[quiz.ID]; exists {
		return fmt.Errorf("quiz %s already exists", quiz.ID)
	}
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizStore) RecordAttempt(_ context.Context, quizID string, percentage int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	old := quiz.TimesAttempted
	quiz.AverageScore = int(math.Floor(
		(float64(quiz.AverageScore*old)+float64(percentage))/float64(old+1) + 0.5,
	))
	quiz.TimesAttempted = old + 1
	s.quizzes[quizID] = quiz
	return nil
}
