package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates the indexes the query paths rely on: participant
// lookups by status, the expiry sweep, and attempt history/score queries.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	challengeIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "challengerId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "challengedId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}},
	}
	if _, err := db.Collection("challenges").Indexes().CreateMany(ctx, challengeIndexes); err != nil {
		return fmt.Errorf("challenge indexes: %w", err)
	}

	attemptIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "quizId", Value: 1}, {Key: "score", Value: -1}}},
	}
	if _, err := db.Collection("attempts").Indexes().CreateMany(ctx, attemptIndexes); err != nil {
		return fmt.Errorf("attempt indexes: %w", err)
	}

	quizIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "difficulty", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := db.Collection("quizzes").Indexes().CreateMany(ctx, quizIndexes); err != nil {
		return fmt.Errorf("quiz indexes: %w", err)
	}
	return nil
}
