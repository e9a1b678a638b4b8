package domain

import (
	"context"
	"time"
)

type MediaKind string

const (
	MediaKindDocument MediaKind = "document"
	MediaKindPhoto    MediaKind = "photo"
	MediaKindVideo    MediaKind = "video"
	MediaKindAudio    MediaKind = "audio"
	MediaKindVoice    MediaKind = "voice"
)

// FileRecord is a cataloged media artifact. ContentRef is the transport's
// file identifier and is never inspected; the bytes live outside the system.
type FileRecord struct {
	ID            string    `bson:"id"`
	ContentRef    string    `bson:"content_ref"`
	Name          string    `bson:"name"`
	Description   string    `bson:"description"`
	Kind          MediaKind `bson:"kind"`
	Tags          []string  `bson:"tags"`
	UploadedBy    int64     `bson:"uploaded_by"`
	UploadedAt    time.Time `bson:"uploaded_at"`
	DownloadCount int64     `bson:"download_count"`
}

func (f *FileRecord) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TagMutation reports what a tag add/remove actually did to the stored set.
type TagMutation string

const (
	TagMutationApplied  TagMutation = "applied"
	TagMutationNoChange TagMutation = "no_change"
	TagMutationNoRecord TagMutation = "no_record"
)

type FileRepository interface {
	Insert(ctx context.Context, file *FileRecord) error
	FindByID(ctx context.Context, id string) (*FileRecord, error)
	Search(ctx context.Context, keyword string, limit int64) ([]*FileRecord, error)
	SetName(ctx context.Context, id string, name string) (bool, error)
	SetDescription(ctx context.Context, id string, description string) (bool, error)
	AddTag(ctx context.Context, id string, tag string) (TagMutation, error)
	RemoveTag(ctx context.Context, id string, tag string) (TagMutation, error)
	IncrementDownload(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}
