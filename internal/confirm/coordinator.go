// Package confirm drives the two-step confirmation flow for destructive and
// delivery actions. Every prompt is a stored PendingAction keyed by an
// opaque token; callbacks are asynchronous and may be delivered more than
// once, so resolution is compare-and-swap: the first callback wins and every
// later one is a no-op.
package confirm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/mediakeep/mediakeep/internal/admins"
	"github.com/mediakeep/mediakeep/internal/catalog"
	"github.com/mediakeep/mediakeep/internal/domain"
	"github.com/mediakeep/mediakeep/internal/stats"
)

type Choice string

const (
	ChoiceAccept Choice = "yes"
	ChoiceReject Choice = "no"
)

type Outcome string

const (
	// OutcomeDeleted: the target file was removed and the files counter
	// decremented.
	OutcomeDeleted Outcome = "deleted"
	// OutcomeCancelled: the prompt was rejected; nothing was mutated.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeDeliver: counters are updated and the caller should now send
	// the artifact to the chat.
	OutcomeDeliver Outcome = "deliver"
	// OutcomeNotFound: the token is unknown or the target file vanished
	// between prompt and callback.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeAlreadyResolved: a duplicate callback for a consumed token.
	OutcomeAlreadyResolved Outcome = "already_resolved"
	// OutcomeDenied: the resolver lost admin rights since the prompt.
	OutcomeDenied Outcome = "denied"
)

type Resolution struct {
	Outcome Outcome
	Action  *domain.PendingAction
	// File is the target record as of resolution. Set for OutcomeDeleted
	// and OutcomeDeliver.
	File *domain.FileRecord
}

type Coordinator struct {
	pending  domain.PendingRepository
	catalog  *catalog.Catalog
	registry *admins.Registry
	stats    *stats.Aggregator
}

func NewCoordinator(pending domain.PendingRepository, cat *catalog.Catalog, registry *admins.Registry, aggregator *stats.Aggregator) *Coordinator {
	return &Coordinator{
		pending:  pending,
		catalog:  cat,
		registry: registry,
		stats:    aggregator,
	}
}

// Issue stores a pending action and returns the token to embed in the
// prompt's callback payload. An unresolved token is harmless and simply
// never resolves.
func (c *Coordinator) Issue(ctx context.Context, kind domain.PendingKind, fileID string, issuedBy int64) (string, error) {
	action := &domain.PendingAction{
		Token:    xid.New().String(),
		Kind:     kind,
		FileID:   fileID,
		IssuedBy: issuedBy,
		IssuedAt: time.Now(),
		Status:   domain.PendingStatusIssued,
	}

	if err := c.pending.Insert(ctx, action); err != nil {
		return "", fmt.Errorf("failed to store pending action: %w", err)
	}

	log.Debug().
		Str("token", action.Token).
		Str("kind", string(kind)).
		Str("file_id", fileID).
		Msg("Confirmation issued")

	return action.Token, nil
}

// Resolve consumes the token. The issued→resolved transition is atomic in
// the store, so concurrent or repeated callbacks observe exactly one
// winner. The target file and the resolver's authorization are re-checked
// here because both may have changed since the prompt was shown. The token
// is consumed even when that re-check denies the resolver: a prompt is
// single-shot, and a denied or rejected one must be reissued rather than
// left live for someone else to answer.
func (c *Coordinator) Resolve(ctx context.Context, token string, choice Choice, resolvedBy int64) (*Resolution, error) {
	action, err := c.pending.Resolve(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pending action: %w", err)
	}
	if action == nil {
		existing, err := c.pending.FindByToken(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("failed to look up pending action: %w", err)
		}
		if existing == nil {
			return &Resolution{Outcome: OutcomeNotFound}, nil
		}
		return &Resolution{Outcome: OutcomeAlreadyResolved, Action: existing}, nil
	}

	isAdmin, err := c.registry.IsAdmin(ctx, resolvedBy)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return &Resolution{Outcome: OutcomeDenied, Action: action}, nil
	}

	if choice == ChoiceReject {
		return &Resolution{Outcome: OutcomeCancelled, Action: action}, nil
	}

	file, err := c.catalog.Find(ctx, action.FileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		// Deleted by someone else between prompt and callback.
		return &Resolution{Outcome: OutcomeNotFound, Action: action}, nil
	}

	switch action.Kind {
	case domain.PendingKindDelete:
		return c.resolveDelete(ctx, action, file)
	case domain.PendingKindDownload:
		return c.resolveDownload(ctx, action, file)
	default:
		return nil, fmt.Errorf("unknown pending action kind %q", action.Kind)
	}
}

func (c *Coordinator) resolveDelete(ctx context.Context, action *domain.PendingAction, file *domain.FileRecord) (*Resolution, error) {
	outcome, err := c.catalog.Delete(ctx, action.FileID)
	if err != nil {
		return nil, err
	}
	if outcome == catalog.UpdateOutcomeNotFound {
		return &Resolution{Outcome: OutcomeNotFound, Action: action}, nil
	}

	if err := c.stats.Decrement(ctx, domain.CounterFiles); err != nil {
		return nil, err
	}

	return &Resolution{Outcome: OutcomeDeleted, Action: action, File: file}, nil
}

// resolveDownload updates counters before the caller attempts delivery; the
// count records attempted access and is not rolled back on a failed send.
func (c *Coordinator) resolveDownload(ctx context.Context, action *domain.PendingAction, file *domain.FileRecord) (*Resolution, error) {
	outcome, err := c.catalog.IncrementDownload(ctx, action.FileID)
	if err != nil {
		return nil, err
	}
	if outcome == catalog.UpdateOutcomeNotFound {
		return &Resolution{Outcome: OutcomeNotFound, Action: action}, nil
	}

	if err := c.stats.Increment(ctx, domain.CounterDownloads); err != nil {
		return nil, err
	}

	file.DownloadCount++

	return &Resolution{Outcome: OutcomeDeliver, Action: action, File: file}, nil
}
