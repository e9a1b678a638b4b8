package domain

import (
	"context"
	"time"
)

type Counter string

const (
	CounterFiles     Counter = "total_files"
	CounterDownloads Counter = "total_downloads"
	CounterSearches  Counter = "total_searches"
	CounterUsers     Counter = "total_users"
)

// StatsSnapshot is the singleton counters document. It is created lazily on
// first use and mutated in place for the lifetime of the system.
type StatsSnapshot struct {
	TotalFiles     int64     `bson:"total_files"`
	TotalDownloads int64     `bson:"total_downloads"`
	TotalSearches  int64     `bson:"total_searches"`
	TotalUsers     int64     `bson:"total_users"`
	LastUpdated    time.Time `bson:"last_updated"`
}

// User is a caller seen by the system, recorded on first contact.
type User struct {
	UserID    int64     `bson:"user_id"`
	Username  string    `bson:"username,omitempty"`
	FirstName string    `bson:"first_name,omitempty"`
	LastName  string    `bson:"last_name,omitempty"`
	JoinedAt  time.Time `bson:"joined_at"`
}

type StatsRepository interface {
	// Increment bumps the counter by one and refreshes last_updated,
	// creating the singleton document if it does not exist yet.
	Increment(ctx context.Context, counter Counter) error
	// Decrement lowers the counter by one with a floor at zero.
	Decrement(ctx context.Context, counter Counter) error
	Snapshot(ctx context.Context) (*StatsSnapshot, error)
}

type UserRepository interface {
	// Record inserts the user if this id has never been seen. Returns true
	// on first contact.
	Record(ctx context.Context, user *User) (bool, error)
}
