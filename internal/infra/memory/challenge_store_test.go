package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

func pendingChallenge(id string, expiresAt time.Time) domain.Challenge {
	return domain.Challenge{
		ID:              id,
		ChallengerID:    "alice",
		ChallengedID:    "bob",
		QuizID:          "quiz-1",
		Status:          domain.StatusPending,
		ChallengerScore: domain.ChallengeScore{UserID: "alice"},
		ChallengedScore: domain.ChallengeScore{UserID: "bob"},
		ExpiresAt:       expiresAt,
		CreatedAt:       expiresAt.Add(-time.Hour),
	}
}

func TestUpdateStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore()
	now := time.Now()
	if err := store.Insert(ctx, pendingChallenge("ch-1", now.Add(time.Hour))); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, err := store.UpdateStatus(ctx, "ch-1", domain.StatusPending, domain.StatusAccepted, now)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.StatusAccepted || updated.AcceptedAt == nil {
		t.Fatalf("unexpected state: %+v", updated)
	}

	// The from-state no longer matches; a raced second transition loses.
	if _, err := store.UpdateStatus(ctx, "ch-1", domain.StatusPending, domain.StatusDeclined, now); !errors.Is(err, domain.ErrChallengeNotPending) {
		t.Fatalf("expected ErrChallengeNotPending, got %v", err)
	}

	if _, err := store.UpdateStatus(ctx, "missing", domain.StatusPending, domain.StatusAccepted, now); !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestCompleteSlotWriteOnce(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore()
	now := time.Now()
	_ = store.Insert(ctx, pendingChallenge("ch-1", now.Add(time.Hour)))

	slot := domain.ChallengeScore{UserID: "alice", Score: 50, Completed: true, CompletedAt: &now}
	post, err := store.CompleteSlot(ctx, "ch-1", true, slot)
	if err != nil {
		t.Fatalf("complete slot: %v", err)
	}
	if !post.ChallengerScore.Completed || post.ChallengedScore.Completed {
		t.Fatalf("expected only challenger slot filled, got %+v", post)
	}

	if _, err := store.CompleteSlot(ctx, "ch-1", true, slot); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestCompleteRequiresBothSlots(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore()
	now := time.Now()
	_ = store.Insert(ctx, pendingChallenge("ch-1", now.Add(time.Hour)))

	if _, won, err := store.Complete(ctx, "ch-1", "alice", false, now); err != nil || won {
		t.Fatalf("expected no-op completion before both slots, won=%v err=%v", won, err)
	}

	slot := domain.ChallengeScore{Score: 10, Completed: true, CompletedAt: &now}
	_, _ = store.CompleteSlot(ctx, "ch-1", true, slot)
	_, _ = store.CompleteSlot(ctx, "ch-1", false, slot)

	ch, won, err := store.Complete(ctx, "ch-1", "", true, now)
	if err != nil || !won {
		t.Fatalf("expected winning completion, won=%v err=%v", won, err)
	}
	if ch.Status != domain.StatusCompleted || !ch.IsDraw {
		t.Fatalf("unexpected final state: %+v", ch)
	}

	// Exactly-once: a second racer gets the final document but won=false.
	again, won, err := store.Complete(ctx, "ch-1", "", true, now)
	if err != nil || won {
		t.Fatalf("expected lost race, won=%v err=%v", won, err)
	}
	if again.Status != domain.StatusCompleted {
		t.Fatalf("expected final state returned, got %+v", again)
	}
}

func TestExpirePendingOnlyPastDeadline(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore()
	now := time.Now()

	_ = store.Insert(ctx, pendingChallenge("expired", now.Add(-time.Minute)))
	_ = store.Insert(ctx, pendingChallenge("fresh", now.Add(time.Hour)))
	accepted := pendingChallenge("accepted", now.Add(-time.Minute))
	accepted.Status = domain.StatusAccepted
	_ = store.Insert(ctx, accepted)

	n, err := store.ExpirePending(ctx, now)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}

	ch, _ := store.Get(ctx, "expired")
	if ch.Status != domain.StatusExpired {
		t.Fatalf("expected expired, got %s", ch.Status)
	}
	ch, _ = store.Get(ctx, "fresh")
	if ch.Status != domain.StatusPending {
		t.Fatalf("expected fresh to stay pending, got %s", ch.Status)
	}
	ch, _ = store.Get(ctx, "accepted")
	if ch.Status != domain.StatusAccepted {
		t.Fatalf("expected accepted untouched, got %s", ch.Status)
	}
}

func TestListByUserFilters(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore()
	now := time.Now()

	a := pendingChallenge("a", now.Add(time.Hour))
	b := pendingChallenge("b", now.Add(time.Hour))
	b.ChallengedID = "carol"
	b.CreatedAt = a.CreatedAt.Add(time.Minute)
	c := pendingChallenge("c", now.Add(time.Hour))
	c.ChallengerID = "dave"
	c.Status = domain.StatusCompleted
	_ = store.Insert(ctx, a)
	_ = store.Insert(ctx, b)
	_ = store.Insert(ctx, c)

	all, err := store.ListByUser(ctx, "alice", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected alice in 2 challenges, got %d", len(all))
	}
	if all[0].ID != "b" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	pending, _ := store.ListByUser(ctx, "bob", domain.StatusPending)
	if len(pending) != 1 || pending[0].ID != "a" {
		t.Fatalf("expected only the pending challenge for bob, got %+v", pending)
	}
	completed, _ := store.ListByUser(ctx, "bob", domain.StatusCompleted)
	if len(completed) != 1 || completed[0].ID != "c" {
		t.Fatalf("expected the completed challenge, got %+v", completed)
	}
}
