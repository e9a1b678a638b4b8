package domain

import (
	"context"
	"time"
)

type AdminOrigin string

const (
	// AdminOriginBootstrap marks admins configured at startup. They cannot
	// be removed through the registry.
	AdminOriginBootstrap AdminOrigin = "bootstrap"
	AdminOriginDynamic   AdminOrigin = "dynamic"
)

type AdminEntry struct {
	UserID  int64       `bson:"user_id"`
	Origin  AdminOrigin `bson:"origin"`
	AddedBy int64       `bson:"added_by,omitempty"`
	AddedAt time.Time   `bson:"added_at"`
}

// AdminRepository stores dynamic admin entries only; the bootstrap set is
// configuration, not data.
type AdminRepository interface {
	Insert(ctx context.Context, entry *AdminEntry) error
	Exists(ctx context.Context, userID int64) (bool, error)
	Delete(ctx context.Context, userID int64) (bool, error)
	List(ctx context.Context) ([]*AdminEntry, error)
}
