package mongodb

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mediakeep/mediakeep/internal/domain"
)

type FileRepository struct {
	database *mongo.Database
}

func NewFileRepository(database *mongo.Database) *FileRepository {
	return &FileRepository{database: database}
}

func (r *FileRepository) collection() *mongo.Collection {
	return r.database.Collection(filesCollection)
}

func (r *FileRepository) Insert(ctx context.Context, file *domain.FileRecord) error {
	if _, err := r.collection().InsertOne(ctx, file); err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}
	return nil
}

func (r *FileRepository) FindByID(ctx context.Context, id string) (*domain.FileRecord, error) {
	var file domain.FileRecord
	err := r.collection().FindOne(ctx, bson.M{"id": id}).Decode(&file)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find file: %w", err)
	}
	return &file, nil
}

func (r *FileRepository) Search(ctx context.Context, keyword string, limit int64) ([]*domain.FileRecord, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}

	filter := bson.M{
		"$or": []bson.M{
			{"name": pattern},
			{"description": pattern},
			{"tags": keyword},
		},
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "uploaded_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection().Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}
	defer cursor.Close(ctx)

	var files []*domain.FileRecord
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}
	return files, nil
}

func (r *FileRepository) SetName(ctx context.Context, id string, name string) (bool, error) {
	return r.setField(ctx, id, "name", name)
}

func (r *FileRepository) SetDescription(ctx context.Context, id string, description string) (bool, error) {
	return r.setField(ctx, id, "description", description)
}

func (r *FileRepository) setField(ctx context.Context, id, field, value string) (bool, error) {
	result, err := r.collection().UpdateOne(ctx, bson.M{"id": id}, bson.M{
		"$set": bson.M{field: value},
	})
	if err != nil {
		return false, fmt.Errorf("failed to update file %s: %w", field, err)
	}
	return result.MatchedCount > 0, nil
}

func (r *FileRepository) AddTag(ctx context.Context, id string, tag string) (domain.TagMutation, error) {
	result, err := r.collection().UpdateOne(ctx, bson.M{"id": id}, bson.M{
		"$addToSet": bson.M{"tags": tag},
	})
	if err != nil {
		return "", fmt.Errorf("failed to add tag: %w", err)
	}
	return tagMutation(result), nil
}

func (r *FileRepository) RemoveTag(ctx context.Context, id string, tag string) (domain.TagMutation, error) {
	result, err := r.collection().UpdateOne(ctx, bson.M{"id": id}, bson.M{
		"$pull": bson.M{"tags": tag},
	})
	if err != nil {
		return "", fmt.Errorf("failed to remove tag: %w", err)
	}
	return tagMutation(result), nil
}

func tagMutation(result *mongo.UpdateResult) domain.TagMutation {
	switch {
	case result.MatchedCount == 0:
		return domain.TagMutationNoRecord
	case result.ModifiedCount == 0:
		return domain.TagMutationNoChange
	default:
		return domain.TagMutationApplied
	}
}

func (r *FileRepository) IncrementDownload(ctx context.Context, id string) (bool, error) {
	result, err := r.collection().UpdateOne(ctx, bson.M{"id": id}, bson.M{
		"$inc": bson.M{"download_count": 1},
	})
	if err != nil {
		return false, fmt.Errorf("failed to increment download count: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *FileRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.collection().DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete file: %w", err)
	}
	return result.DeletedCount > 0, nil
}
