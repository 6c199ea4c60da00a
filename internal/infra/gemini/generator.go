package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultMinInterval = 2 * time.Second
)

// generatedQuestion is the shape the model is asked to return.
type generatedQuestion struct {
	QuestionText       string   `json:"questionText"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

type request struct {
	ctx        context.Context
	category   string
	difficulty string
	count      int
	reply      chan response
}

type response struct {
	quiz domain.Quiz
	err  error
}

// Generator produces quizzes through the Gemini API. All calls go through a
// single consumer goroutine so concurrent challenge creations cannot burst
// past the provider's rate limit; consecutive API calls are spaced by at
// least minInterval.
type Generator struct {
	client      *genai.Client
	model       string
	minInterval time.Duration
	requests    chan request
	done        chan struct{}
	log         *logrus.Entry
}

func NewGenerator(ctx context.Context, model string, minInterval time.Duration, log *logrus.Entry) (*Generator, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	g := &Generator{
		client:      client,
		model:       model,
		minInterval: minInterval,
		requests:    make(chan request),
		done:        make(chan struct{}),
		log:         log,
	}
	go g.consume()
	return g, nil
}

func (g *Generator) Close() {
	close(g.done)
}

func (g *Generator) Generate(ctx context.Context, category, difficulty string, count int) (domain.Quiz, error) {
	req := request{
		ctx:        ctx,
		category:   category,
		difficulty: difficulty,
		count:      count,
		reply:      make(chan response, 1),
	}
	select {
	case g.requests <- req:
	case <-ctx.Done():
		return domain.Quiz{}, ctx.Err()
	case <-g.done:
		return domain.Quiz{}, domain.ErrGenerationUnavailable
	}

	select {
	case res := <-req.reply:
		return res.quiz, res.err
	case <-ctx.Done():
		return domain.Quiz{}, ctx.Err()
	}
}

func (g *Generator) consume() {
	var lastCall time.Time
	for {
		select {
		case req := <-g.requests:
			if wait := g.minInterval - time.Since(lastCall); wait > 0 {
				select {
				case <-time.After(wait):
				case <-g.done:
					req.reply <- response{err: domain.ErrGenerationUnavailable}
					continue
				}
			}
			lastCall = time.Now()
			quiz, err := g.generate(req.ctx, req.category, req.difficulty, req.count)
			req.reply <- response{quiz: quiz, err: err}
		case <-g.done:
			return
		}
	}
}

func (g *Generator) generate(ctx context.Context, category, difficulty string, count int) (domain.Quiz, error) {
	prompt := buildPrompt(category, difficulty, count)

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		g.log.WithError(err).WithField("category", category).Error("gemini call failed")
		return domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}

	raw := strings.TrimSpace(result.Text())
	if raw == "" {
		return domain.Quiz{}, fmt.Errorf("%w: empty model response", domain.ErrGenerationUnavailable)
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.Trim(raw, "`")

	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(raw), &generated); err != nil {
		g.log.WithError(err).Error("gemini returned unparseable quiz")
		return domain.Quiz{}, fmt.Errorf("%w: decode response: %v", domain.ErrGenerationUnavailable, err)
	}
	if len(generated) < count {
		return domain.Quiz{}, fmt.Errorf("%w: got %d questions, want %d", domain.ErrGenerationUnavailable, len(generated), count)
	}

	points, timeLimit := difficultyTier(difficulty)
	questions := make([]domain.Question, 0, count)
	total := 0
	for _, q := range generated[:count] {
		if err := validateQuestion(q); err != nil {
			return domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
		}
		questions = append(questions, domain.Question{
			Text:             q.QuestionText,
			Options:          q.Options,
			CorrectIndex:     q.CorrectAnswerIndex,
			Explanation:      q.Explanation,
			Points:           points,
			TimeLimitSeconds: timeLimit,
		})
		total += points
	}

	return domain.Quiz{
		ID:          uuid.NewString(),
		Title:       fmt.Sprintf("%s Challenge (%s)", category, difficulty),
		Category:    category,
		Difficulty:  difficulty,
		Questions:   questions,
		TotalPoints: total,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func validateQuestion(q generatedQuestion) error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return fmt.Errorf("question with empty text")
	}
	if len(q.Options) != domain.OptionCount {
		return fmt.Errorf("question %q has %d options, want %d", q.QuestionText, len(q.Options), domain.OptionCount)
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= domain.OptionCount {
		return fmt.Errorf("question %q has correct index %d out of range", q.QuestionText, q.CorrectAnswerIndex)
	}
	return nil
}

// difficultyTier maps difficulty to per-question points and time limit.
func difficultyTier(difficulty string) (points, timeLimitSeconds int) {
	switch strings.ToLower(difficulty) {
	case "hard":
		return 20, 60
	case "medium":
		return 15, 45
	default:
		return 10, 30
	}
}
