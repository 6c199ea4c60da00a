package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

const (
	// DefaultChallengeTTL is how long a pending challenge stays acceptable.
	DefaultChallengeTTL = 24 * time.Hour
	// DefaultQuestionCount is the fixed quiz size for head-to-head challenges.
	DefaultQuestionCount = 10
)

// ChallengeStore persists challenges. Every mutating method is a conditional
// single-document update: concurrent operations on the same challenge are
// serialized by the store, and the returned document always reflects the
// state after the write.
type ChallengeStore interface {
	Insert(ctx context.Context, ch domain.Challenge) error
	Get(ctx context.Context, id string) (domain.Challenge, error)
	ListByUser(ctx context.Context, userID string, status domain.ChallengeStatus) ([]domain.Challenge, error)
	// UpdateStatus transitions from -> to and returns the updated challenge.
	// It fails with ErrChallengeNotPending when the current status no longer
	// matches from, so a raced second accept/decline loses cleanly.
	UpdateStatus(ctx context.Context, id string, from, to domain.ChallengeStatus, at time.Time) (domain.Challenge, error)
	// CompleteSlot fills one participant's score slot and returns the
	// post-write document. A slot is write-once: filling it twice fails
	// with ErrAlreadyCompleted.
	CompleteSlot(ctx context.Context, id string, challengerSide bool, score domain.ChallengeScore) (domain.Challenge, error)
	// Complete transitions to COMPLETED with the given outcome, guarded on
	// both slots being filled and the status not yet terminal. Exactly one
	// of two racing callers observes won=true.
	Complete(ctx context.Context, id, winnerID string, isDraw bool, at time.Time) (ch domain.Challenge, won bool, err error)
	// ExpirePending marks every pending challenge whose deadline has passed.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

// QuizWriter persists freshly generated quizzes.
type QuizWriter interface {
	Insert(ctx context.Context, quiz domain.Quiz) error
}

// QuizGenerator is the external catalog collaborator producing question sets.
type QuizGenerator interface {
	Generate(ctx context.Context, category, difficulty string, count int) (domain.Quiz, error)
}

// Emitter delivers events to connected sessions. Delivery is best-effort and
// fire-and-forget: targets without a session are silently skipped.
type Emitter interface {
	EmitToUser(userID string, ev domain.Event)
	EmitToUsers(userIDs []string, ev domain.Event)
	EmitToRoom(room string, ev domain.Event)
}

// EventPublisher mirrors lifecycle events to an external broker for
// downstream consumers (email notifier, leaderboards). Optional.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// ChallengeConfig tunes the state machine. Zero values fall back to defaults.
type ChallengeConfig struct {
	TTL           time.Duration
	QuestionCount int
}

// ChallengeService owns the challenge lifecycle: creation, accept/decline,
// the race between the two participants' completions, and the winner
// decision. State commits strictly precede fan-out; a fan-out failure never
// rolls back or surfaces.
type ChallengeService struct {
	challenges ChallengeStore
	quizzes    QuizWriter
	generator  QuizGenerator
	emitter    Emitter
	publisher  EventPublisher
	ttl        time.Duration
	questions  int
	now        func() time.Time
	log        *logrus.Entry
}

func NewChallengeService(challenges ChallengeStore, quizzes QuizWriter, generator QuizGenerator, emitter Emitter, publisher EventPublisher, cfg ChallengeConfig) *ChallengeService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultChallengeTTL
	}
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = DefaultQuestionCount
	}
	return &ChallengeService{
		challenges: challenges,
		quizzes:    quizzes,
		generator:  generator,
		emitter:    emitter,
		publisher:  publisher,
		ttl:        cfg.TTL,
		questions:  cfg.QuestionCount,
		now:        time.Now,
		log:        logrus.WithField("component", "challenges"),
	}
}

// NewChallengeServiceWithClock is test-only for deterministic timestamps.
func NewChallengeServiceWithClock(challenges ChallengeStore, quizzes QuizWriter, generator QuizGenerator, emitter Emitter, publisher EventPublisher, cfg ChallengeConfig, now func() time.Time) *ChallengeService {
	s := NewChallengeService(challenges, quizzes, generator, emitter, publisher, cfg)
	s.now = now
	return s
}

// ChallengeRoom is the fan-out room key for one challenge.
func ChallengeRoom(challengeID string) string {
	return "challenge:" + challengeID
}

// Create issues a new challenge: a fresh quiz is generated for it and both
// score slots start zeroed and incomplete.
func (s *ChallengeService) Create(ctx context.Context, challengerID, challengedID, category, difficulty string) (domain.Challenge, error) {
	if challengerID == challengedID {
		return domain.Challenge{}, domain.ErrSelfChallenge
	}

	quiz, err := s.generator.Generate(ctx, category, difficulty, s.questions)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("generate quiz: %w", err)
	}
	if err := s.quizzes.Insert(ctx, quiz); err != nil {
		return domain.Challenge{}, fmt.Errorf("store quiz: %w", err)
	}

	now := s.now()
	ch := domain.Challenge{
		ID:              uuid.NewString(),
		ChallengerID:    challengerID,
		ChallengedID:    challengedID,
		QuizID:          quiz.ID,
		Category:        category,
		Difficulty:      difficulty,
		Status:          domain.StatusPending,
		ChallengerScore: domain.ChallengeScore{UserID: challengerID},
		ChallengedScore: domain.ChallengeScore{UserID: challengedID},
		ExpiresAt:       now.Add(s.ttl),
		CreatedAt:       now,
	}
	if err := s.challenges.Insert(ctx, ch); err != nil {
		return domain.Challenge{}, fmt.Errorf("store challenge: %w", err)
	}

	s.log.Infof("challenge created: %s (%s vs %s)", ch.ID, challengerID, challengedID)

	ev := domain.ChallengeCreated{
		ChallengeID: ch.ID,
		Challenger:  challengerID,
		Category:    category,
		Difficulty:  difficulty,
		ExpiresAt:   ch.ExpiresAt,
		Message:     "You have been challenged!",
	}
	s.emitter.EmitToUser(challengedID, ev)
	s.publish(ev)
	return ch, nil
}

// Accept moves a pending challenge to accepted. Only the challenged user may
// accept, and only while the challenge is still pending.
func (s *ChallengeService) Accept(ctx context.Context, challengeID, userID string) (domain.Challenge, error) {
	ch, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return domain.Challenge{}, err
	}
	if ch.ChallengedID != userID {
		return domain.Challenge{}, domain.ErrNotChallenged
	}
	if ch.Status != domain.StatusPending {
		return domain.Challenge{}, domain.ErrChallengeNotPending
	}

	updated, err := s.challenges.UpdateStatus(ctx, challengeID, domain.StatusPending, domain.StatusAccepted, s.now())
	if err != nil {
		return domain.Challenge{}, err
	}
	s.log.Infof("challenge accepted: %s", challengeID)

	ev := domain.ChallengeAccepted{ChallengeID: challengeID, Message: "Your challenge was accepted!"}
	s.emitter.EmitToUser(updated.ChallengerID, ev)
	s.emitter.EmitToRoom(ChallengeRoom(challengeID), ev)
	s.publish(ev)
	return updated, nil
}

// Decline moves a pending challenge to declined. Terminal.
func (s *ChallengeService) Decline(ctx context.Context, challengeID, userID string) (domain.Challenge, error) {
	ch, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return domain.Challenge{}, err
	}
	if ch.ChallengedID != userID {
		return domain.Challenge{}, domain.ErrNotChallenged
	}
	if ch.Status != domain.StatusPending {
		return domain.Challenge{}, domain.ErrChallengeNotPending
	}

	updated, err := s.challenges.UpdateStatus(ctx, challengeID, domain.StatusPending, domain.StatusDeclined, s.now())
	if err != nil {
		return domain.Challenge{}, err
	}
	s.log.Infof("challenge declined: %s", challengeID)

	ev := domain.ChallengeDeclined{ChallengeID: challengeID, Message: "Your challenge was declined"}
	s.emitter.EmitToUser(updated.ChallengerID, ev)
	s.publish(ev)
	return updated, nil
}

// Get returns a challenge to one of its participants.
func (s *ChallengeService) Get(ctx context.Context, challengeID, userID string) (domain.Challenge, error) {
	ch, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return domain.Challenge{}, err
	}
	if !ch.IsParticipant(userID) {
		return domain.Challenge{}, domain.ErrNotParticipant
	}
	return ch, nil
}

// List returns the challenges a user takes part in, optionally filtered by
// status ("" means all).
func (s *ChallengeService) List(ctx context.Context, userID string, status domain.ChallengeStatus) ([]domain.Challenge, error) {
	return s.challenges.ListByUser(ctx, userID, status)
}

// RecordCompletion records one participant's graded outcome against the
// challenge. Each caller writes only its own slot; the "are both done now"
// decision is evaluated against the document state after the write, so two
// racing completions can never both conclude the opponent is unfinished.
func (s *ChallengeService) RecordCompletion(ctx context.Context, challengeID, userID, attemptID string, score, percentage int) (domain.Challenge, error) {
	ch, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		return domain.Challenge{}, err
	}
	if !ch.IsParticipant(userID) {
		return domain.Challenge{}, domain.ErrNotParticipant
	}

	now := s.now()
	slot := domain.ChallengeScore{
		UserID:      userID,
		AttemptID:   attemptID,
		Score:       score,
		Percentage:  percentage,
		Completed:   true,
		CompletedAt: &now,
	}
	post, err := s.challenges.CompleteSlot(ctx, challengeID, userID == ch.ChallengerID, slot)
	if err != nil {
		return domain.Challenge{}, err
	}

	if !post.BothCompleted() {
		// Opponent still playing: tell them their rival finished, without
		// revealing any score.
		s.emitter.EmitToUser(post.Opponent(userID), domain.ChallengeProgress{
			ChallengeID: challengeID,
			Message:     "Your opponent has completed the quiz!",
		})
		return post, nil
	}

	winnerID, isDraw := decideWinner(post)
	final, won, err := s.challenges.Complete(ctx, challengeID, winnerID, isDraw, s.now())
	if err != nil {
		return domain.Challenge{}, err
	}
	if !won {
		// The other participant's call got there first and already emitted.
		return final, nil
	}

	s.log.Infof("challenge completed: %s winner=%q draw=%v", challengeID, winnerID, isDraw)
	ev := domain.ChallengeCompleted{
		ChallengeID: challengeID,
		WinnerID:    final.WinnerID,
		IsDraw:      final.IsDraw,
		Scores: domain.ChallengeScores{
			Challenger: final.ChallengerScore,
			Challenged: final.ChallengedScore,
		},
	}
	s.emitter.EmitToUsers([]string{final.ChallengerID, final.ChallengedID}, ev)
	s.emitter.EmitToRoom(ChallengeRoom(challengeID), ev)
	s.publish(ev)
	return final, nil
}

// ExpirePending sweeps pending challenges past their deadline into the
// expired state. Best-effort cleanup; no notification is sent.
func (s *ChallengeService) ExpirePending(ctx context.Context) (int64, error) {
	n, err := s.challenges.ExpirePending(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infof("expired %d pending challenges", n)
	}
	return n, nil
}

// decideWinner picks the participant with the strictly higher raw score.
// Equal scores are a draw with no winner.
func decideWinner(ch domain.Challenge) (winnerID string, isDraw bool) {
	switch {
	case ch.ChallengerScore.Score > ch.ChallengedScore.Score:
		return ch.ChallengerID, false
	case ch.ChallengedScore.Score > ch.ChallengerScore.Score:
		return ch.ChallengedID, false
	}
	return "", true
}

// publish mirrors an event to the broker when one is configured. Like hub
// fan-out it runs strictly after the state commit and its failure is only
// logged, never surfaced.
func (s *ChallengeService) publish(ev domain.Event) {
	if s.publisher == nil {
		return
	}
	key := strings.ReplaceAll(ev.EventName(), ":", ".")
	if err := s.publisher.Publish(key, ev); err != nil {
		s.log.WithError(err).Warnf("publish %s failed", key)
	}
}
