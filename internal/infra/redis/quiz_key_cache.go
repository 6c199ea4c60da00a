package redis

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

// QuizLoader fetches full quiz content from the backing document store.
type QuizLoader interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizKeyCache caches the answer key in Redis (hash per quiz) and falls back
// to the loader on cache miss. The cached form carries only what grading
// needs:
//
//	HSET quiz:{quizID}:answers {questionIndex} {correctIndex}
//	HSET quiz:{quizID}:points  {questionIndex} {points}
type QuizKeyCache struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizKeyCache(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizKeyCache {
	return &QuizKeyCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizKeyCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	answerKey := c.answersKey(quizID)
	pointKey := c.pointsKey(quizID)

	answers, err := c.client.HGetAll(ctx, answerKey).Result()
	if err == nil && len(answers) > 0 {
		points, _ := c.client.HGetAll(ctx, pointKey).Result()
		return buildQuizFromCache(quizID, answers, points), nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		answers, err := c.client.HGetAll(ctx, answerKey).Result()
		if err == nil && len(answers) > 0 {
			points, _ := c.client.HGetAll(ctx, pointKey).Result()
			return buildQuizFromCache(quizID, answers, points), nil
		}

		quiz, err := c.loader.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		for i, q := range quiz.Questions {
			field := strconv.Itoa(i)
			pipe.HSet(ctx, answerKey, field, q.CorrectIndex)
			pipe.HSet(ctx, pointKey, field, q.Points)
		}
		if ttl > 0 {
			pipe.Expire(ctx, answerKey, ttl)
			pipe.Expire(ctx, pointKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizKeyCache) answersKey(quizID string) string {
	return "quiz:" + quizID + ":answers"
}

func (c *QuizKeyCache) pointsKey(quizID string) string {
	return "quiz:" + quizID + ":points"
}

// buildQuizFromCache reassembles the lightweight grading view. Question text
// and options are not cached in this form.
func buildQuizFromCache(quizID string, answers, points map[string]string) domain.Quiz {
	questions := make([]domain.Question, len(answers))
	for field, correct := range answers {
		idx, err := strconv.Atoi(field)
		if err != nil || idx < 0 || idx >= len(questions) {
			continue
		}
		correctIdx, _ := strconv.Atoi(correct)
		questions[idx].CorrectIndex = correctIdx
		if raw, ok := points[field]; ok {
			if p, err := strconv.Atoi(raw); err == nil && p > 0 {
				questions[idx].Points = p
			}
		}
	}
	return domain.Quiz{ID: quizID, Questions: questions}
}

func (c *QuizKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
