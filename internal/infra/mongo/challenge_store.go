package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/omaks45/Brainiac-backend/internal/domain"
)

// ChallengeStore persists challenges as single documents with both score
// slots embedded. Every mutation is a conditional FindOneAndUpdate, so the
// document itself is the unit of mutual exclusion: concurrent operations on
// one challenge linearize at the server, operations on different challenges
// never contend.
type ChallengeStore struct {
	col *mongo.Collection
}

func NewChallengeStore(db *mongo.Database) *ChallengeStore {
	return &ChallengeStore{col: db.Collection("challenges")}
}

func (s *ChallengeStore) Insert(ctx context.Context, ch domain.Challenge) error {
	if _, err := s.col.InsertOne(ctx, ch); err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}
	return nil
}

func (s *ChallengeStore) Get(ctx context.Context, id string) (domain.Challenge, error) {
	var ch domain.Challenge
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&ch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	return ch, nil
}

func (s *ChallengeStore) ListByUser(ctx context.Context, userID string, status domain.ChallengeStatus) ([]domain.Challenge, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"challengerId": userID},
		bson.M{"challengedId": userID},
	}}
	if status != "" {
		filter["status"] = status
	}

	cur, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Challenge
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode challenges: %w", err)
	}
	return out, nil
}

func (s *ChallengeStore) UpdateStatus(ctx context.Context, id string, from, to domain.ChallengeStatus, at time.Time) (domain.Challenge, error) {
	set := bson.M{"status": to}
	if to == domain.StatusAccepted {
		set["acceptedAt"] = at
	}

	var updated domain.Challenge
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// The caller verified existence already; no match means the status
		// moved on under a raced operation.
		return domain.Challenge{}, domain.ErrChallengeNotPending
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("update challenge status: %w", err)
	}
	return updated, nil
}

func (s *ChallengeStore) CompleteSlot(ctx context.Context, id string, challengerSide bool, score domain.ChallengeScore) (domain.Challenge, error) {
	field := "challengedScore"
	if challengerSide {
		field = "challengerScore"
	}

	var updated domain.Challenge
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, field + ".completed": false},
		bson.M{"$set": bson.M{field: score}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return domain.Challenge{}, getErr
		}
		return domain.Challenge{}, domain.ErrAlreadyCompleted
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("complete score slot: %w", err)
	}
	return updated, nil
}

func (s *ChallengeStore) Complete(ctx context.Context, id, winnerID string, isDraw bool, at time.Time) (domain.Challenge, bool, error) {
	set := bson.M{
		"status":      domain.StatusCompleted,
		"completedAt": at,
		"isDraw":      isDraw,
	}
	if winnerID != "" {
		set["winnerId"] = winnerID
	}

	var updated domain.Challenge
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{
			"_id":                      id,
			"status":                   bson.M{"$in": bson.A{domain.StatusPending, domain.StatusAccepted}},
			"challengerScore.completed": true,
			"challengedScore.completed": true,
		},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Another participant's completion call won the transition.
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return domain.Challenge{}, false, getErr
		}
		return current, false, nil
	}
	if err != nil {
		return domain.Challenge{}, false, fmt.Errorf("complete challenge: %w", err)
	}
	return updated, true, nil
}

func (s *ChallengeStore) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"status": domain.StatusPending, "expiresAt": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"status": domain.StatusExpired}},
	)
	if err != nil {
		return 0, fmt.Errorf("expire challenges: %w", err)
	}
	return res.ModifiedCount, nil
}
