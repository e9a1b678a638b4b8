package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mediakeep/mediakeep/internal/domain"
)

type AdminRepository struct {
	database *mongo.Database
}

func NewAdminRepository(database *mongo.Database) *AdminRepository {
	return &AdminRepository{database: database}
}

func (r *AdminRepository) collection() *mongo.Collection {
	return r.database.Collection(adminsCollection)
}

func (r *AdminRepository) Insert(ctx context.Context, entry *domain.AdminEntry) error {
	if _, err := r.collection().InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert admin: %w", err)
	}
	return nil
}

func (r *AdminRepository) Exists(ctx context.Context, userID int64) (bool, error) {
	count, err := r.collection().CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, fmt.Errorf("failed to count admins: %w", err)
	}
	return count > 0, nil
}

func (r *AdminRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	result, err := r.collection().DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, fmt.Errorf("failed to delete admin: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]*domain.AdminEntry, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}})

	cursor, err := r.collection().Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*domain.AdminEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode admins: %w", err)
	}
	return entries, nil
}
