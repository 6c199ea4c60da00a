package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

// AttemptStore persists one immutable document per grading event.
type AttemptStore struct {
	col *mongo.Collection
}

func NewAttemptStore(db *mongo.Database) *AttemptStore {
	return &AttemptStore{col: db.Collection("attempts")}
}

func (s *AttemptStore) Insert(ctx context.Context, attempt domain.QuizAttempt) error {
	if _, err := s.col.InsertOne(ctx, attempt); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, attemptID, userID string) (domain.QuizAttempt, error) {
	var attempt domain.QuizAttempt
	err := s.col.FindOne(ctx, bson.M{"_id": attemptID, "userId": userID}).Decode(&attempt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("load attempt: %w", err)
	}
	return attempt, nil
}

func (s *AttemptStore) ListByUser(ctx context.Context, userID, quizID string) ([]domain.QuizAttempt, error) {
	filter := bson.M{"userId": userID}
	if quizID != "" {
		filter["quizId"] = quizID
	}

	cur, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.QuizAttempt
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode attempts: %w", err)
	}
	return out, nil
}
