// Package catalog owns file records and their tag sets.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/mediakeep/mediakeep/internal/domain"
	"github.com/mediakeep/mediakeep/internal/stats"
)

const DefaultSearchLimit = 10

type UpdateOutcome string

const (
	UpdateOutcomeApplied  UpdateOutcome = "applied"
	UpdateOutcomeNotFound UpdateOutcome = "not_found"
)

type TagOutcome string

const (
	TagOutcomeAdded          TagOutcome = "added"
	TagOutcomeAlreadyPresent TagOutcome = "already_present"
	TagOutcomeRemoved        TagOutcome = "removed"
	TagOutcomeAbsent         TagOutcome = "absent"
	TagOutcomeNotFound       TagOutcome = "not_found"
)

type Catalog struct {
	files domain.FileRepository
	stats *stats.Aggregator
}

func NewCatalog(files domain.FileRepository, aggregator *stats.Aggregator) *Catalog {
	return &Catalog{
		files: files,
		stats: aggregator,
	}
}

type RegisterParams struct {
	ContentRef       string
	Kind             domain.MediaKind
	UploadedBy       int64
	DeclaredFilename string
	Caption          string
}

// Register catalogs a new artifact. The name comes from the declared
// filename when the transport supplies one, otherwise it is synthesized from
// the media kind and upload time. Tags are extracted from the caption and
// the caption itself becomes the description, tag markers included.
func (c *Catalog) Register(ctx context.Context, p RegisterParams) (*domain.FileRecord, error) {
	if strings.TrimSpace(p.ContentRef) == "" {
		return nil, fmt.Errorf("content reference is required")
	}

	now := time.Now()

	name := p.DeclaredFilename
	if name == "" {
		name = fmt.Sprintf("%s_%s", p.Kind, now.Format("20060102150405"))
	}

	file := &domain.FileRecord{
		ID:          xid.New().String(),
		ContentRef:  p.ContentRef,
		Name:        name,
		Description: p.Caption,
		Kind:        p.Kind,
		Tags:        domain.ExtractTags(p.Caption),
		UploadedBy:  p.UploadedBy,
		UploadedAt:  now,
	}

	if err := c.files.Insert(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to insert file: %w", err)
	}

	if err := c.stats.Increment(ctx, domain.CounterFiles); err != nil {
		return nil, err
	}

	log.Info().
		Str("file_id", file.ID).
		Str("kind", string(file.Kind)).
		Int64("uploaded_by", file.UploadedBy).
		Strs("tags", file.Tags).
		Msg("File registered")

	return file, nil
}

// Find returns nil without error when no record exists for the id.
func (c *Catalog) Find(ctx context.Context, id string) (*domain.FileRecord, error) {
	file, err := c.files.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find file %s: %w", id, err)
	}
	return file, nil
}

// Search matches a case-insensitive substring of name or description, or an
// exact member of the tag set, newest uploads first. An empty keyword
// matches nothing.
func (c *Catalog) Search(ctx context.Context, keyword string, limit int64) ([]*domain.FileRecord, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	results, err := c.files.Search(ctx, strings.ToLower(keyword), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}
	return results, nil
}

func (c *Catalog) Rename(ctx context.Context, id, newName string) (UpdateOutcome, error) {
	matched, err := c.files.SetName(ctx, id, newName)
	if err != nil {
		return "", fmt.Errorf("failed to rename file %s: %w", id, err)
	}
	if !matched {
		return UpdateOutcomeNotFound, nil
	}
	return UpdateOutcomeApplied, nil
}

func (c *Catalog) SetDescription(ctx context.Context, id, description string) (UpdateOutcome, error) {
	matched, err := c.files.SetDescription(ctx, id, description)
	if err != nil {
		return "", fmt.Errorf("failed to update description of file %s: %w", id, err)
	}
	if !matched {
		return UpdateOutcomeNotFound, nil
	}
	return UpdateOutcomeApplied, nil
}

func (c *Catalog) AddTag(ctx context.Context, id, tag string) (TagOutcome, error) {
	tag = domain.NormalizeTag(tag)
	if tag == "" {
		return "", fmt.Errorf("tag is required")
	}

	mutation, err := c.files.AddTag(ctx, id, tag)
	if err != nil {
		return "", fmt.Errorf("failed to add tag to file %s: %w", id, err)
	}

	switch mutation {
	case domain.TagMutationApplied:
		return TagOutcomeAdded, nil
	case domain.TagMutationNoChange:
		return TagOutcomeAlreadyPresent, nil
	default:
		return TagOutcomeNotFound, nil
	}
}

func (c *Catalog) RemoveTag(ctx context.Context, id, tag string) (TagOutcome, error) {
	tag = domain.NormalizeTag(tag)

	mutation, err := c.files.RemoveTag(ctx, id, tag)
	if err != nil {
		return "", fmt.Errorf("failed to remove tag from file %s: %w", id, err)
	}

	switch mutation {
	case domain.TagMutationApplied:
		return TagOutcomeRemoved, nil
	case domain.TagMutationNoChange:
		return TagOutcomeAbsent, nil
	default:
		return TagOutcomeNotFound, nil
	}
}

// IncrementDownload bumps only the per-file counter. The global downloads
// counter is the caller's concern so the two can be reasoned about
// independently.
func (c *Catalog) IncrementDownload(ctx context.Context, id string) (UpdateOutcome, error) {
	matched, err := c.files.IncrementDownload(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to increment downloads of file %s: %w", id, err)
	}
	if !matched {
		return UpdateOutcomeNotFound, nil
	}
	return UpdateOutcomeApplied, nil
}

// Delete removes the record together with its tag set in one store
// operation, so no reader can observe a half-deleted file.
func (c *Catalog) Delete(ctx context.Context, id string) (UpdateOutcome, error) {
	deleted, err := c.files.Delete(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to delete file %s: %w", id, err)
	}
	if !deleted {
		return UpdateOutcomeNotFound, nil
	}

	log.Info().Str("file_id", id).Msg("File deleted")

	return UpdateOutcomeApplied, nil
}
