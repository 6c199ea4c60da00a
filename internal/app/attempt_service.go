package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

// QuizSource supplies quiz content for grading. Implementations may return a
// lightweight form carrying only the answer key and point values.
type QuizSource interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizStats applies the delegated post-grading side effect: incrementing the
// quiz's attempt counter and folding the new percentage into its running
// average. The whole update must be a single atomic operation at the storage
// layer; concurrent graders of the same quiz are expected.
type QuizStats interface {
	RecordAttempt(ctx context.Context, quizID string, percentage int) error
}

// AttemptStore persists immutable attempt records.
type AttemptStore interface {
	Insert(ctx context.Context, attempt domain.QuizAttempt) error
	Get(ctx context.Context, attemptID, userID string) (domain.QuizAttempt, error)
	ListByUser(ctx context.Context, userID, quizID string) ([]domain.QuizAttempt, error)
}

// ChallengeRecorder is the internal hook invoked after a challenge-scoped
// grading call completes.
type ChallengeRecorder interface {
	RecordCompletion(ctx context.Context, challengeID, userID, attemptID string, score, percentage int) (domain.Challenge, error)
}

// SubmitRequest is one full quiz submission. ChallengeID is set when the
// attempt belongs to a head-to-head challenge.
type SubmitRequest struct {
	QuizID      string                    `json:"quizId"`
	ChallengeID string                    `json:"challengeId,omitempty"`
	Answers     []domain.AnswerSubmission `json:"answers"`
}

// AttemptStats aggregates a user's grading history.
type AttemptStats struct {
	TotalAttempts     int `json:"totalAttempts"`
	AveragePercentage int `json:"averagePercentage"`
	TotalTimeSeconds  int `json:"totalTimeSpent"`
	BestScore         int `json:"bestScore"`
	BestPercentage    int `json:"bestPercentage"`
}

// AttemptService runs the grading pipeline: fetch the answer key, grade,
// persist the attempt, update quiz statistics, and hand challenge-scoped
// results to the state machine.
type AttemptService struct {
	attempts   AttemptStore
	quizzes    QuizSource
	stats      QuizStats
	challenges ChallengeRecorder
	now        func() time.Time
	log        *logrus.Entry
}

func NewAttemptService(attempts AttemptStore, quizzes QuizSource, stats QuizStats, challenges ChallengeRecorder) *AttemptService {
	return &AttemptService{
		attempts:   attempts,
		quizzes:    quizzes,
		stats:      stats,
		challenges: challenges,
		now:        time.Now,
		log:        logrus.WithField("component", "attempts"),
	}
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(attempts AttemptStore, quizzes QuizSource, stats QuizStats, challenges ChallengeRecorder, now func() time.Time) *AttemptService {
	s := NewAttemptService(attempts, quizzes, stats, challenges)
	s.now = now
	return s
}

// SubmitQuizAnswers grades a submission and records it. The attempt record is
// owned by this grading event and never mutated afterwards; a challenge's
// score slot references it by id.
func (s *AttemptService) SubmitQuizAnswers(ctx context.Context, userID string, req SubmitRequest) (domain.QuizAttempt, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, req.QuizID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}

	result, err := Grade(quiz, req.Answers)
	if err != nil {
		return domain.QuizAttempt{}, err
	}

	now := s.now()
	attempt := domain.QuizAttempt{
		ID:              uuid.NewString(),
		UserID:          userID,
		QuizID:          req.QuizID,
		ChallengeID:     req.ChallengeID,
		Answers:         result.Answers,
		Score:           result.Score,
		Percentage:      result.Percentage,
		TotalQuestions:  result.TotalQuestions,
		CorrectAnswers:  result.CorrectAnswers,
		DurationSeconds: result.DurationSeconds,
		CompletedAt:     now,
		CreatedAt:       now,
	}
	if err := s.attempts.Insert(ctx, attempt); err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("store attempt: %w", err)
	}
	s.log.Infof("attempt saved: %s score=%d/%d", attempt.ID, attempt.Score, quiz.TotalPoints)

	// Analytics side effect: non-fatal, but must stay a single atomic
	// storage operation so concurrent graders never lose an update.
	if err := s.stats.RecordAttempt(ctx, req.QuizID, result.Percentage); err != nil {
		s.log.WithError(err).Warnf("quiz stats update failed for %s", req.QuizID)
	}

	if req.ChallengeID != "" {
		if _, err := s.challenges.RecordCompletion(ctx, req.ChallengeID, userID, attempt.ID, result.Score, result.Percentage); err != nil {
			return domain.QuizAttempt{}, err
		}
	}
	return attempt, nil
}

// GetAttempt returns one of the user's own attempts.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID, userID string) (domain.QuizAttempt, error) {
	return s.attempts.Get(ctx, attemptID, userID)
}

// ListAttempts returns the user's attempts, optionally scoped to one quiz.
func (s *AttemptService) ListAttempts(ctx context.Context, userID, quizID string) ([]domain.QuizAttempt, error) {
	return s.attempts.ListByUser(ctx, userID, quizID)
}

// UserStats aggregates the user's attempt history.
func (s *AttemptService) UserStats(ctx context.Context, userID string) (AttemptStats, error) {
	attempts, err := s.attempts.ListByUser(ctx, userID, "")
	if err != nil {
		return AttemptStats{}, err
	}
	if len(attempts) == 0 {
		return AttemptStats{}, nil
	}

	stats := AttemptStats{TotalAttempts: len(attempts)}
	totalPercentage := 0
	for _, a := range attempts {
		totalPercentage += a.Percentage
		stats.TotalTimeSeconds += a.DurationSeconds
		if a.Score > stats.BestScore {
			stats.BestScore = a.Score
		}
		if a.Percentage > stats.BestPercentage {
			stats.BestPercentage = a.Percentage
		}
	}
	stats.AveragePercentage = roundHalfUp(float64(totalPercentage) / float64(len(attempts)))
	return stats, nil
}
