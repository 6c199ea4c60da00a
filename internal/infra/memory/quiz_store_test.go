package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

func TestRecordAttemptFoldsAverage(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore()
	_ = store.Insert(ctx, domain.Quiz{ID: "quiz-1"})

	for _, pct := range []int{80, 60} {
		if err := store.RecordAttempt(ctx, "quiz-1", pct); err != nil {
			t.Fatalf("record %d: %v", pct, err)
		}
	}

	quiz, _ := store.GetQuiz(ctx, "quiz-1")
	if quiz.TimesAttempted != 2 || quiz.AverageScore != 70 {
		t.Fatalf("expected attempts=2 avg=70, got attempts=%d avg=%d", quiz.TimesAttempted, quiz.AverageScore)
	}
}

func TestRecordAttemptRoundsHalfUp(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore()
	_ = store.Insert(ctx, domain.Quiz{ID: "quiz-1"})

	// 85 then 90: (85 + 90) / 2 = 87.5 rounds to 88.
	_ = store.RecordAttempt(ctx, "quiz-1", 85)
	_ = store.RecordAttempt(ctx, "quiz-1", 90)

	quiz, _ := store.GetQuiz(ctx, "quiz-1")
	if quiz.AverageScore != 88 {
		t.Fatalf("expected half-up rounding to 88, got %d", quiz.AverageScore)
	}
}

func TestRecordAttemptUnknownQuiz(t *testing.T) {
	store := NewQuizStore()
	if err := store.RecordAttempt(context.Background(), "missing", 50); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestRecordAttemptConcurrentCounters(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore()
	_ = store.Insert(ctx, domain.Quiz{ID: "quiz-1"})

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.RecordAttempt(ctx, "quiz-1", 50); err != nil {
				t.Errorf("record: %v", err)
			}
		}()
	}
	wg.Wait()

	quiz, _ := store.GetQuiz(ctx, "quiz-1")
	if quiz.TimesAttempted != workers {
		t.Fatalf("lost updates: expected %d attempts, got %d", workers, quiz.TimesAttempted)
	}
	if quiz.AverageScore != 50 {
		t.Fatalf("expected stable average 50, got %d", quiz.AverageScore)
	}
}
