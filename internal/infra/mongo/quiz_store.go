package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

// QuizStore persists generated quizzes and their aggregate statistics.
type QuizStore struct {
	col *mongo.Collection
}

func NewQuizStore(db *mongo.Database) *QuizStore {
	return &QuizStore{col: db.Collection("quizzes")}
}

func (s *QuizStore) Insert(ctx context.Context, quiz domain.Quiz) error {
	if _, err := s.col.InsertOne(ctx, quiz); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.col.FindOne(ctx, bson.M{"_id": quizID}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

// RecordAttempt folds one new percentage into the quiz statistics with a
// single aggregation-pipeline update. Both expressions evaluate against the
// pre-update document, so newAvg = round((avg*n + p)/(n+1)) with n being the
// counter before the increment, and there is no read-modify-write window for
// concurrent graders to race through.
func (s *QuizStore) RecordAttempt(ctx context.Context, quizID string, percentage int) error {
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "averageScore", Value: bson.D{{Key: "$floor", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$divide", Value: bson.A{
					bson.D{{Key: "$add", Value: bson.A{
						bson.D{{Key: "$multiply", Value: bson.A{"$averageScore", "$timesAttempted"}}},
						percentage,
					}}},
					bson.D{{Key: "$add", Value: bson.A{"$timesAttempted", 1}}},
				}}},
				0.5,
			}}}}}},
			{Key: "timesAttempted", Value: bson.D{{Key: "$add", Value: bson.A{"$timesAttempted", 1}}}},
		}}},
	}

	res, err := s.col.UpdateByID(ctx, quizID, update)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}
