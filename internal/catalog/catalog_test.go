package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediakeep/mediakeep/internal/domain"
	"github.com/mediakeep/mediakeep/internal/stats"
	"github.com/mediakeep/mediakeep/internal/storage/memory"
)

type fixture struct {
	catalog *Catalog
	stats   *stats.Aggregator
}

func newFixture() *fixture {
	aggregator := stats.NewAggregator(memory.NewStatsStore(), memory.NewUserStore())
	return &fixture{
		catalog: NewCatalog(memory.NewFileStore(), aggregator),
		stats:   aggregator,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	file, err := f.catalog.Register(ctx, RegisterParams{
		ContentRef:       "tg-abc123",
		Kind:             domain.MediaKindPhoto,
		UploadedBy:       100,
		DeclaredFilename: "",
		Caption:          "trip photo #vacation #2024",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, file.ID)
	assert.Equal(t, "tg-abc123", file.ContentRef)
	assert.Equal(t, []string{"vacation", "2024"}, file.Tags)
	// The description keeps the caption verbatim, tag markers included.
	assert.Equal(t, "trip photo #vacation #2024", file.Description)
	// No declared filename, so the name is synthesized from the kind.
	assert.Contains(t, file.Name, "photo_")
	assert.Zero(t, file.DownloadCount)
	assert.WithinDuration(t, time.Now(), file.UploadedAt, time.Minute)

	snapshot, err := f.stats.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.TotalFiles)
}

func TestRegisterUsesDeclaredFilename(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	file, err := f.catalog.Register(ctx, RegisterParams{
		ContentRef:       "tg-doc",
		Kind:             domain.MediaKindDocument,
		UploadedBy:       100,
		DeclaredFilename: "report.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", file.Name)
	assert.Empty(t, file.Tags)
	assert.Empty(t, file.Description)
}

func TestRegisterRequiresContentRef(t *testing.T) {
	f := newFixture()
	_, err := f.catalog.Register(context.Background(), RegisterParams{
		Kind: domain.MediaKindDocument,
	})
	require.Error(t, err)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	file, err := f.catalog.Register(ctx, RegisterParams{
		ContentRef:       "tg-report",
		Kind:             domain.MediaKindDocument,
		UploadedBy:       100,
		DeclaredFilename: "report.pdf",
		Caption:          "Q3 numbers #finance",
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		keyword string
		hits    int
	}{
		{name: "tag match", keyword: "finance", hits: 1},
		{name: "tag match is case insensitive", keyword: "FINANCE", hits: 1},
		{name: "description substring", keyword: "Q3", hits: 1},
		{name: "name substring", keyword: "report", hits: 1},
		{name: "no match", keyword: "payroll", hits: 0},
		{name: "empty keyword matches nothing", keyword: "", hits: 0},
		{name: "whitespace keyword matches nothing", keyword: "   ", hits: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := f.catalog.Search(ctx, tt.keyword, 0)
			require.NoError(t, err)
			require.Len(t, results, tt.hits)
			if tt.hits > 0 {
				assert.Equal(t, file.ID, results[0].ID)
			}
		})
	}
}

func TestSearchOrdersNewestFirstAndCapsResults(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	var last *domain.FileRecord
	for i := 0; i < 12; i++ {
		file, err := f.catalog.Register(ctx, RegisterParams{
			ContentRef: "tg-batch",
			Kind:       domain.MediaKindDocument,
			UploadedBy: 100,
			Caption:    "#batch",
		})
		require.NoError(t, err)
		last = file
		time.Sleep(time.Millisecond)
	}

	results, err := f.catalog.Search(ctx, "batch", 0)
	require.NoError(t, err)
	require.Len(t, results, DefaultSearchLimit)
	assert.Equal(t, last.ID, results[0].ID)
}

func TestTagLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	file, err := f.catalog.Register(ctx, RegisterParams{
		ContentRef: "tg-1",
		Kind:       domain.MediaKindVideo,
		UploadedBy: 100,
	})
	require.NoError(t, err)

	outcome, err := f.catalog.AddTag(ctx, file.ID, "Demo")
	require.NoError(t, err)
	assert.Equal(t, TagOutcomeAdded, outcome)

	// Adding again is an idempotent no-op, not an error; the stored set has
	// exactly one copy.
	outcome, err = f.catalog.AddTag(ctx, file.ID, "demo")
	require.NoError(t, err)
	assert.Equal(t, TagOutcomeAlreadyPresent, outcome)

	stored, err := f.catalog.Find(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, stored.Tags)

	outcome, err = f.catalog.RemoveTag(ctx, file.ID, "DEMO")
	require.NoError(t, err)
	assert.Equal(t, TagOutcomeRemoved, outcome)

	outcome, err = f.catalog.RemoveTag(ctx, file.ID, "demo")
	require.NoError(t, err)
	assert.Equal(t, TagOutcomeAbsent, outcome)

	outcome, err = f.catalog.AddTag(ctx, "missing", "demo")
	require.NoError(t, err)
	assert.Equal(t, TagOutcomeNotFound, outcome)
}

func TestRenameAndDescribe(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	file, err := f.catalog.Register(ctx, RegisterParams{
		ContentRef: "tg-1",
		Kind:       domain.MediaKindAudio,
		UploadedBy: 100,
	})
	require.NoError(t, err)

	outcome, err := f.catalog.Rename(ctx, file.ID, "intro.mp3")
	require.NoError(t, err)
	assert.Equal(t, UpdateOutcomeApplied, outcome)

	outcome, err = f.catalog.SetDescription(ctx, file.ID, "episode intro")
	require.NoError(t, err)
	assert.Equal(t, UpdateOutcomeApplied, outcome)

	stored, err := f.catalog.Find(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "intro.mp3", stored.Name)
	assert.Equal(t, "episode intro", stored.Description)

	outcome, err = f.catalog.Rename(ctx, "missing", "x")
	require.NoError(t, err)
	assert.Equal(t, UpdateOutcomeNotFound, outcome)
}

func TestDeleteRemovesRecordAndTags(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	file, err := f.catalog.Register(ctx, RegisterParams{
		ContentRef: "tg-1",
		Kind:       domain.MediaKindDocument,
		UploadedBy: 100,
		Caption:    "#finance",
	})
	require.NoError(t, err)

	outcome, err := f.catalog.Delete(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, UpdateOutcomeApplied, outcome)

	stored, err := f.catalog.Find(ctx, file.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	// Search can never surface a deleted record, by name or by tag.
	results, err := f.catalog.Search(ctx, "finance", 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	outcome, err = f.catalog.Delete(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, UpdateOutcomeNotFound, outcome)
}

func TestIncrementDownload(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	file, err := f.catalog.Register(ctx, RegisterParams{
		ContentRef: "tg-1",
		Kind:       domain.MediaKindDocument,
		UploadedBy: 100,
	})
	require.NoError(t, err)

	outcome, err := f.catalog.IncrementDownload(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, UpdateOutcomeApplied, outcome)

	stored, err := f.catalog.Find(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.DownloadCount)

	// The global downloads counter is untouched; notifying the aggregator
	// is the caller's job.
	snapshot, err := f.stats.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), snapshot.TotalDownloads)

	outcome, err = f.catalog.IncrementDownload(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, UpdateOutcomeNotFound, outcome)
}
