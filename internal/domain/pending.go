package domain

import (
	"context"
	"time"
)

type PendingKind string

const (
	PendingKindDelete   PendingKind = "confirm_delete"
	PendingKindDownload PendingKind = "confirm_download"
)

type PendingStatus string

const (
	PendingStatusIssued   PendingStatus = "issued"
	PendingStatusResolved PendingStatus = "resolved"
)

// PendingAction is a confirmation prompt awaiting exactly one resolving
// callback. The token travels inside the callback payload; the first
// resolution wins and every later callback for the same token is a no-op.
type PendingAction struct {
	Token    string        `bson:"token"`
	Kind     PendingKind   `bson:"kind"`
	FileID   string        `bson:"file_id"`
	IssuedBy int64         `bson:"issued_by"`
	IssuedAt time.Time     `bson:"issued_at"`
	Status   PendingStatus `bson:"status"`
}

type PendingRepository interface {
	Insert(ctx context.Context, action *PendingAction) error
	// Resolve flips the action from issued to resolved and returns it.
	// Returns nil when no issued action exists for the token, which is how
	// a duplicate callback is detected.
	Resolve(ctx context.Context, token string) (*PendingAction, error)
	FindByToken(ctx context.Context, token string) (*PendingAction, error)
}
