package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mediakeep/mediakeep/internal/domain"
)

// statsDocumentID keys the one counters document. Every read and write
// filters on it: an upsert against an unindexed empty filter is not
// duplicate-safe, and two concurrent first-ever increments would each
// insert their own document and split the singleton. Filtering on _id makes
// the upsert race-free because _id is always uniquely indexed.
const statsDocumentID = "stats"

func statsFilter() bson.M {
	return bson.M{"_id": statsDocumentID}
}

func decrementFilter(counter domain.Counter) bson.M {
	// Conditional on the counter being positive: a replayed decrement
	// matches nothing instead of going negative.
	return bson.M{
		"_id":           statsDocumentID,
		string(counter): bson.M{"$gt": 0},
	}
}

// StatsRepository keeps the counters in a single document so every bump is
// one atomic $inc.
type StatsRepository struct {
	database *mongo.Database
}

func NewStatsRepository(database *mongo.Database) *StatsRepository {
	return &StatsRepository{database: database}
}

func (r *StatsRepository) collection() *mongo.Collection {
	return r.database.Collection(statsCollection)
}

func (r *StatsRepository) Increment(ctx context.Context, counter domain.Counter) error {
	_, err := r.collection().UpdateOne(ctx, statsFilter(), bson.M{
		"$inc": bson.M{string(counter): 1},
		"$set": bson.M{"last_updated": time.Now()},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", counter, err)
	}
	return nil
}

func (r *StatsRepository) Decrement(ctx context.Context, counter domain.Counter) error {
	_, err := r.collection().UpdateOne(ctx, decrementFilter(counter), bson.M{
		"$inc": bson.M{string(counter): -1},
		"$set": bson.M{"last_updated": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to decrement %s: %w", counter, err)
	}
	return nil
}

func (r *StatsRepository) Snapshot(ctx context.Context) (*domain.StatsSnapshot, error) {
	var snapshot domain.StatsSnapshot
	err := r.collection().FindOne(ctx, statsFilter()).Decode(&snapshot)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Lazily created; before the first increment the snapshot is
			// all zeroes.
			return &domain.StatsSnapshot{}, nil
		}
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	return &snapshot, nil
}

type UserRepository struct {
	database *mongo.Database
}

func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{database: database}
}

func (r *UserRepository) Record(ctx context.Context, user *domain.User) (bool, error) {
	result, err := r.database.Collection(usersCollection).UpdateOne(ctx, bson.M{
		"user_id": user.UserID,
	}, bson.M{
		"$setOnInsert": user,
	}, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("failed to record user: %w", err)
	}
	return result.UpsertedCount > 0, nil
}
