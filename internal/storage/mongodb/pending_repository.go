package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mediakeep/mediakeep/internal/domain"
)

type PendingRepository struct {
	database *mongo.Database
}

func NewPendingRepository(database *mongo.Database) *PendingRepository {
	return &PendingRepository{database: database}
}

func (r *PendingRepository) collection() *mongo.Collection {
	return r.database.Collection(pendingCollection)
}

func (r *PendingRepository) Insert(ctx context.Context, action *domain.PendingAction) error {
	if _, err := r.collection().InsertOne(ctx, action); err != nil {
		return fmt.Errorf("failed to insert pending action: %w", err)
	}
	return nil
}

// Resolve is the compare-and-swap: the filter only matches an issued action,
// so when several callbacks race for the same token exactly one update
// succeeds and the rest see ErrNoDocuments.
func (r *PendingRepository) Resolve(ctx context.Context, token string) (*domain.PendingAction, error) {
	filter := bson.M{
		"token":  token,
		"status": domain.PendingStatusIssued,
	}
	update := bson.M{
		"$set": bson.M{"status": domain.PendingStatusResolved},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var action domain.PendingAction
	err := r.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&action)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve pending action: %w", err)
	}
	return &action, nil
}

func (r *PendingRepository) FindByToken(ctx context.Context, token string) (*domain.PendingAction, error) {
	var action domain.PendingAction
	err := r.collection().FindOne(ctx, bson.M{"token": token}).Decode(&action)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pending action: %w", err)
	}
	return &action, nil
}
