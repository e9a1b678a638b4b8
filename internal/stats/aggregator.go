// Package stats owns the singleton counter snapshot and the user directory.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mediakeep/mediakeep/internal/domain"
)

type Aggregator struct {
	stats domain.StatsRepository
	users domain.UserRepository
}

func NewAggregator(statsRepo domain.StatsRepository, userRepo domain.UserRepository) *Aggregator {
	return &Aggregator{
		stats: statsRepo,
		users: userRepo,
	}
}

func (a *Aggregator) Increment(ctx context.Context, counter domain.Counter) error {
	if err := a.stats.Increment(ctx, counter); err != nil {
		return fmt.Errorf("failed to increment %s: %w", counter, err)
	}
	return nil
}

// Decrement is used only when a confirmed delete retires a file; it floors
// at zero so a replay can never drive a counter negative.
func (a *Aggregator) Decrement(ctx context.Context, counter domain.Counter) error {
	if err := a.stats.Decrement(ctx, counter); err != nil {
		return fmt.Errorf("failed to decrement %s: %w", counter, err)
	}
	return nil
}

func (a *Aggregator) Snapshot(ctx context.Context) (*domain.StatsSnapshot, error) {
	snapshot, err := a.stats.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats snapshot: %w", err)
	}
	return snapshot, nil
}

// RecordUser stores the user on first contact and bumps the users counter
// exactly once per user id. Returns true when this was the first contact.
func (a *Aggregator) RecordUser(ctx context.Context, user *domain.User) (bool, error) {
	if user.JoinedAt.IsZero() {
		user.JoinedAt = time.Now()
	}

	firstSeen, err := a.users.Record(ctx, user)
	if err != nil {
		return false, fmt.Errorf("failed to record user %d: %w", user.UserID, err)
	}
	if !firstSeen {
		return false, nil
	}

	if err := a.Increment(ctx, domain.CounterUsers); err != nil {
		return true, err
	}

	log.Debug().Int64("user_id", user.UserID).Msg("New user recorded")

	return true, nil
}
