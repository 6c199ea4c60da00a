package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

// ChallengeStore is an in-memory implementation of app.ChallengeStore.
// Each challenge carries its own mutex: operations on the same challenge
// serialize, operations on different challenges run fully in parallel.
type ChallengeStore struct {
	mu      sync.RWMutex
	entries map[string]*challengeEntry
}

type challengeEntry struct {
	mu sync.Mutex
	ch domain.Challenge
}

func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{entries: make(map[string]*challengeEntry)}
}

func (s *ChallengeStore) Insert(_ context.Context, ch domain.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[ch.ID]; exists {
		return fmt.Errorf("challenge %s already exists", ch.ID)
	}
	s.entries[ch.ID] = &challengeEntry{ch: ch}
	return nil
}

func (s *ChallengeStore) Get(_ context.Context, id string) (domain.Challenge, error) {
	entry, ok := s.entry(id)
	if !ok {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.ch, nil
}

func (s *ChallengeStore) ListByUser(_ context.Context, userID string, status domain.ChallengeStatus) ([]domain.Challenge, error) {
	s.mu.RLock()
	entries := make([]*challengeEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	var out []domain.Challenge
	for _, entry := range entries {
		entry.mu.Lock()
		ch := entry.ch
		entry.mu.Unlock()
		if !ch.IsParticipant(userID) {
			continue
		}
		if status != "" && ch.Status != status {
			continue
		}
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *ChallengeStore) UpdateStatus(_ context.Context, id string, from, to domain.ChallengeStatus, at time.Time) (domain.Challenge, error) {
	entry, ok := s.entry(id)
	if !ok {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.ch.Status != from {
		return domain.Challenge{}, domain.ErrChallengeNotPending
	}
	entry.ch.Status = to
	if to == domain.StatusAccepted {
		ts := at
		entry.ch.AcceptedAt = &ts
	}
	return entry.ch, nil
}

func (s *ChallengeStore) CompleteSlot(_ context.Context, id string, challengerSide bool, score domain.ChallengeScore) (domain.Challenge, error) {
	entry, ok := s.entry(id)
	if !ok {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	slot := &entry.ch.ChallengedScore
	if challengerSide {
		slot = &entry.ch.ChallengerScore
	}
	if slot.Completed {
		return domain.Challenge{}, domain.ErrAlreadyCompleted
	}
	*slot = score
	return entry.ch, nil
}

func (s *ChallengeStore) Complete(_ context.Context, id, winnerID string, isDraw bool, at time.Time) (domain.Challenge, bool, error) {
	entry, ok := s.entry(id)
	if !ok {
		return domain.Challenge{}, false, domain.ErrChallengeNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.ch.Status.Terminal() || !entry.ch.BothCompleted() {
		return entry.ch, false, nil
	}
	entry.ch.Status = domain.StatusCompleted
	ts := at
	entry.ch.CompletedAt = &ts
	entry.ch.WinnerID = winnerID
	entry.ch.IsDraw = isDraw
	return entry.ch, true, nil
}

func (s *ChallengeStore) ExpirePending(_ context.Context, now time.Time) (int64, error) {
	s.mu.RLock()
	entries := make([]*challengeEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	var expired int64
	for _, entry := range entries {
		entry.mu.Lock()
		if entry.ch.Status == domain.StatusPending && !entry.ch.ExpiresAt.After(now) {
			entry.ch.Status = domain.StatusExpired
			expired++
		}
		entry.mu.Unlock()
	}
	return expired, nil
}

func (s *ChallengeStore) entry(id string) (*challengeEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	return entry, ok
}
