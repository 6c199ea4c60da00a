package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/omaks45/Brainiac-backend/internal/domain"
	"github.com/omaks45/Brainiac-backend/internal/infra/memory"
)

type countingLoader struct {
	store *memory.QuizStore
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.store.GetQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{Text: "q1", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2, Points: 10},
			{Text: "q2", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 0, Points: 15},
			{Text: "q3", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 3, Points: 20},
		},
		TotalPoints: 45,
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newCacheFixture(t *testing.T) (*QuizKeyCache, *countingLoader, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store := memory.NewQuizStore()
	if err := store.Insert(context.Background(), sampleQuiz()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	loader := &countingLoader{store: store}
	return NewQuizKeyCache(newClient(mr), loader, time.Minute), loader, mr
}

func TestQuizKeyCacheHitsLoaderOnce(t *testing.T) {
	cache, loader, _ := newCacheFixture(t)
	ctx := context.Background()

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestQuizKeyCachePreservesAnswerKey(t *testing.T) {
	cache, _, _ := newCacheFixture(t)
	ctx := context.Background()

	// Warm the cache, then re-read through it.
	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("warm: %v", err)
	}
	cached, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("cached get: %v", err)
	}

	want := sampleQuiz()
	if len(cached.Questions) != len(want.Questions) {
		t.Fatalf("expected %d questions, got %d", len(want.Questions), len(cached.Questions))
	}
	for i, q := range want.Questions {
		if cached.Questions[i].CorrectIndex != q.CorrectIndex {
			t.Fatalf("question %d: expected correct index %d, got %d", i, q.CorrectIndex, cached.Questions[i].CorrectIndex)
		}
		if cached.Questions[i].Points != q.Points {
			t.Fatalf("question %d: expected %d points, got %d", i, q.Points, cached.Questions[i].Points)
		}
	}
}

func TestQuizKeyCacheEntriesExpire(t *testing.T) {
	cache, loader, mr := newCacheFixture(t)
	ctx := context.Background()

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("warm: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after TTL, loader calls=%d", loader.calls)
	}
}

func TestQuizKeyCacheMissingQuiz(t *testing.T) {
	cache, _, _ := newCacheFixture(t)
	if _, err := cache.GetQuiz(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}
