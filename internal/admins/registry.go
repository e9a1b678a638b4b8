// Package admins tracks the authorization set. Bootstrap admins come from
// configuration and are immutable; dynamic admins are stored entries that can
// be added and removed at runtime.
package admins

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mediakeep/mediakeep/internal/domain"
)

type AddOutcome string

const (
	AddOutcomeAdded        AddOutcome = "added"
	AddOutcomeAlreadyAdmin AddOutcome = "already_admin"
)

type RemoveOutcome string

const (
	RemoveOutcomeRemoved  RemoveOutcome = "removed"
	RemoveOutcomeNotAdmin RemoveOutcome = "not_admin"
	// RemoveOutcomeProtected is returned for bootstrap admins no matter who
	// asks; the protection is a property of the entry, not of the caller.
	RemoveOutcomeProtected RemoveOutcome = "protected"
)

type Registry struct {
	repo      domain.AdminRepository
	bootstrap []int64
}

func NewRegistry(repo domain.AdminRepository, bootstrapIDs []int64) *Registry {
	return &Registry{
		repo:      repo,
		bootstrap: bootstrapIDs,
	}
}

func (r *Registry) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if r.isBootstrap(userID) {
		return true, nil
	}

	exists, err := r.repo.Exists(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to look up admin %d: %w", userID, err)
	}
	return exists, nil
}

// Add inserts a dynamic admin entry. The requester's own authorization is
// checked by the dispatcher before this is called.
func (r *Registry) Add(ctx context.Context, userID, requestedBy int64) (AddOutcome, error) {
	isAdmin, err := r.IsAdmin(ctx, userID)
	if err != nil {
		return "", err
	}
	if isAdmin {
		return AddOutcomeAlreadyAdmin, nil
	}

	entry := &domain.AdminEntry{
		UserID:  userID,
		Origin:  domain.AdminOriginDynamic,
		AddedBy: requestedBy,
		AddedAt: time.Now(),
	}
	if err := r.repo.Insert(ctx, entry); err != nil {
		return "", fmt.Errorf("failed to insert admin %d: %w", userID, err)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("added_by", requestedBy).
		Msg("Admin added")

	return AddOutcomeAdded, nil
}

func (r *Registry) Remove(ctx context.Context, userID int64) (RemoveOutcome, error) {
	if r.isBootstrap(userID) {
		return RemoveOutcomeProtected, nil
	}

	removed, err := r.repo.Delete(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to remove admin %d: %w", userID, err)
	}
	if !removed {
		return RemoveOutcomeNotAdmin, nil
	}

	log.Info().Int64("user_id", userID).Msg("Admin removed")

	return RemoveOutcomeRemoved, nil
}

// List returns bootstrap entries first, in configuration order, followed by
// dynamic entries ordered by when they were added.
func (r *Registry) List(ctx context.Context) ([]*domain.AdminEntry, error) {
	entries := make([]*domain.AdminEntry, 0, len(r.bootstrap))
	for _, userID := range r.bootstrap {
		entries = append(entries, &domain.AdminEntry{
			UserID: userID,
			Origin: domain.AdminOriginBootstrap,
		})
	}

	dynamic, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}

	return append(entries, dynamic...), nil
}

func (r *Registry) isBootstrap(userID int64) bool {
	for _, id := range r.bootstrap {
		if id == userID {
			return true
		}
	}
	return false
}
