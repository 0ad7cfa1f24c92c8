package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratumkb/stratum/ai/mock"
	"github.com/stratumkb/stratum/core"
	"github.com/stratumkb/stratum/storage"
	"github.com/stratumkb/stratum/storage/badger"
)

func newTestPipeline(t *testing.T, provider *mock.MockProvider, opts ...Option) (*Pipeline, storage.DocumentRepository, storage.ChunkRepository) {
	t.Helper()

	docs, chunks, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	base := []Option{
		WithChunker(NewChunker(WithTokenCounter(wordCounter), WithMaxTokens(8), WithOverlap(0))),
		WithRetryPolicy(2, time.Millisecond),
	}
	p, err := NewPipeline(docs, provider, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(p.Release)

	return p, docs, chunks
}

func mockProvider() *mock.MockProvider {
	return mock.NewMockProvider().(*mock.MockProvider)
}

func testSource(level core.Level, tenant, suite, module string) Source {
	return Source{
		Level:          level,
		TenantID:       tenant,
		SuiteID:        suite,
		ModuleID:       module,
		Title:          "billing runbook",
		SourceType:     core.SourceTypeUpload,
		SourceURI:      "s3://docs/billing-runbook.md",
		Classification: core.ClassificationInternal,
		Version:        "v1",
		Tags:           []string{"billing"},
		IngestedBy:     "tester",
	}
}

func TestIngest(t *testing.T) {
	p, docs, chunks := newTestPipeline(t, mockProvider())
	ctx := context.Background()

	content := "one two three four five six\n\nseven eight nine ten eleven twelve"
	id, err := p.Ingest(ctx, content, testSource(core.LevelEntity, "tenant-1", "suite-a", "mod-x"))
	require.NoError(t, err)
	require.NotZero(t, id)

	doc, err := docs.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusActive, doc.Status)
	assert.Equal(t, 2, doc.ChunkCount)
	assert.False(t, doc.IngestedAt.IsZero())

	stored, err := chunks.GetChunks(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for i, chunk := range stored {
		assert.Equal(t, i, chunk.Ord)
		assert.Len(t, chunk.Vector, 384)
	}
}

func TestIngest_InvalidScope(t *testing.T) {
	p, _, _ := newTestPipeline(t, mockProvider())

	// Platform documents must use the global tenant.
	_, err := p.Ingest(context.Background(), "some content here",
		testSource(core.LevelPlatform, "tenant-1", "", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidScope)
}

func TestIngest_EmptyContent(t *testing.T) {
	p, _, _ := newTestPipeline(t, mockProvider())

	_, err := p.Ingest(context.Background(), "  \n\n ",
		testSource(core.LevelEntity, "tenant-1", "", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyContent)
}

func TestIngest_EmbeddingFailureIsAtomic(t *testing.T) {
	provider := mockProvider()
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}

	p, docs, _ := newTestPipeline(t, provider)
	ctx := context.Background()

	_, err := p.Ingest(ctx, "one two three\n\nfour five six",
		testSource(core.LevelEntity, "tenant-1", "", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmbeddingFailure)

	// Nothing committed.
	listed, err := docs.ListDocuments(ctx, storage.DocumentFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestIngest_DimensionMismatch(t *testing.T) {
	provider := mockProvider()
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0.1, 0.2, 0.3}, nil
	}

	p, _, _ := newTestPipeline(t, provider)

	_, err := p.Ingest(context.Background(), "one two three",
		testSource(core.LevelEntity, "tenant-1", "", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestUpdate(t *testing.T) {
	p, docs, chunks := newTestPipeline(t, mockProvider())
	ctx := context.Background()

	oldID, err := p.Ingest(ctx, "old content for the runbook",
		testSource(core.LevelEntity, "tenant-1", "", ""))
	require.NoError(t, err)

	oldChunks, err := chunks.GetChunks(ctx, oldID)
	require.NoError(t, err)

	newID, err := p.Update(ctx, oldID, "fresh content for the runbook", "v2")
	require.NoError(t, err)
	require.NotEqual(t, oldID, newID)

	old, err := docs.GetDocument(ctx, oldID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusDeprecated, old.Status)
	assert.False(t, old.DeprecatedAt.IsZero())

	// Deprecated document's chunks are untouched.
	stillThere, err := chunks.GetChunks(ctx, oldID)
	require.NoError(t, err)
	assert.Equal(t, oldChunks, stillThere)

	replacement, err := docs.GetDocument(ctx, newID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusActive, replacement.Status)
	assert.Equal(t, oldID, replacement.Replaces)
	assert.Equal(t, "v2", replacement.Version)
	assert.Equal(t, old.TenantID, replacement.TenantID)
	assert.Equal(t, old.Level, replacement.Level)
}

func TestUpdate_EmbeddingFailureLeavesOldActive(t *testing.T) {
	provider := mockProvider()
	p, docs, _ := newTestPipeline(t, provider)
	ctx := context.Background()

	id, err := p.Ingest(ctx, "original content", testSource(core.LevelEntity, "tenant-1", "", ""))
	require.NoError(t, err)

	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}

	_, err = p.Update(ctx, id, "replacement content", "v2")
	require.Error(t, err)

	doc, err := docs.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusActive, doc.Status)
}

func TestDelete(t *testing.T) {
	p, docs, _ := newTestPipeline(t, mockProvider())
	ctx := context.Background()

	id, err := p.Ingest(ctx, "content to delete", testSource(core.LevelEntity, "tenant-1", "", ""))
	require.NoError(t, err)

	// First delete deprecates.
	require.NoError(t, p.Delete(ctx, id))
	doc, err := docs.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusDeprecated, doc.Status)

	// Within the grace period a second delete is a no-op.
	require.NoError(t, p.Delete(ctx, id))
	_, err = docs.GetDocument(ctx, id)
	require.NoError(t, err)

	// Past the grace period the document is removed for real.
	p.now = func() time.Time { return time.Now().UTC().Add(31 * 24 * time.Hour) }
	require.NoError(t, p.Delete(ctx, id))
	_, err = docs.GetDocument(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReap(t *testing.T) {
	p, docs, _ := newTestPipeline(t, mockProvider())
	ctx := context.Background()

	src := testSource(core.LevelEntity, "tenant-1", "", "")
	src.Title = "doc one"
	id1, err := p.Ingest(ctx, "first document content", src)
	require.NoError(t, err)

	src.Title = "doc two"
	id2, err := p.Ingest(ctx, "second document content", src)
	require.NoError(t, err)

	src.Title = "doc three"
	id3, err := p.Ingest(ctx, "third document content", src)
	require.NoError(t, err)

	require.NoError(t, p.Delete(ctx, id1))
	require.NoError(t, p.Delete(ctx, id2))

	// Nothing is past grace yet.
	reaped, err := p.Reap(ctx)
	require.NoError(t, err)
	assert.Zero(t, reaped)

	p.now = func() time.Time { return time.Now().UTC().Add(31 * 24 * time.Hour) }
	reaped, err = p.Reap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, reaped)

	_, err = docs.GetDocument(ctx, id1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = docs.GetDocument(ctx, id2)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Active documents are never reaped.
	doc, err := docs.GetDocument(ctx, id3)
	require.NoError(t, err)
	assert.Equal(t, core.StatusActive, doc.Status)
}

func TestIngest_EmitsEvent(t *testing.T) {
	var got []Event
	sink := eventRecorder{events: &got}

	p, _, _ := newTestPipeline(t, mockProvider(), WithEventSink(sink))

	id, err := p.Ingest(context.Background(), "one two three four",
		testSource(core.LevelModule, "tenant-1", "suite-a", "mod-x"))
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].DocumentID)
	assert.Equal(t, core.LevelModule, got[0].Level)
	assert.Equal(t, "suite-a", got[0].SuiteID)
	assert.Equal(t, 1, got[0].ChunkCount)
	assert.False(t, got[0].At.IsZero())
}

type eventRecorder struct {
	events *[]Event
}

func (r eventRecorder) OnIngest(event Event) {
	*r.events = append(*r.events, event)
}
