package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stratumkb/stratum/core"
	"github.com/stratumkb/stratum/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChunks_OrdOrder(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	chunks := []*core.Chunk{
		{Ord: 2, Content: "third", Vector: []float32{0, 0, 1}},
		{Ord: 0, Content: "first", Vector: []float32{1, 0, 0}},
		{Ord: 1, Content: "second", Vector: []float32{0, 1, 0}},
	}
	doc := newTestDocument(core.LevelPlatform, core.GlobalTenant, "", "")
	added, err := docRepo.AddDocument(ctx, doc, chunks)
	require.NoError(t, err)

	got, err := chunkRepo.GetChunks(ctx, added.Id)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)
	assert.Equal(t, "third", got[2].Content)
}

func TestUpdateChunkMeta(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	doc := newTestDocument(core.LevelPlatform, core.GlobalTenant, "", "")
	added, err := docRepo.AddDocument(ctx, doc, newTestChunks([]float32{1, 0, 0}))
	require.NoError(t, err)

	meta := map[string]string{core.MetaKeyPage: "7", core.MetaKeySection: "Appendix A"}
	require.NoError(t, chunkRepo.UpdateChunkMeta(ctx, added.Id, 0, meta))

	got, err := chunkRepo.GetChunks(ctx, added.Id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, meta, got[0].Meta)
	// Content and vector stay untouched.
	assert.Equal(t, "chunk content", got[0].Content)
	assert.Equal(t, []float32{1, 0, 0}, got[0].Vector)

	t.Run("missing chunk", func(t *testing.T) {
		err := chunkRepo.UpdateChunkMeta(ctx, added.Id, 9, meta)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestSearchLevel_ScopeFiltering(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	query := []float32{1, 0, 0}

	inScope := newTestDocument(core.LevelModule, core.GlobalTenant, "fedsuite", "fedreconcile")
	inScopeAdded, err := docRepo.AddDocument(ctx, inScope, newTestChunks([]float32{1, 0, 0}))
	require.NoError(t, err)

	otherModule := newTestDocument(core.LevelModule, core.GlobalTenant, "fedsuite", "fedledger")
	_, err = docRepo.AddDocument(ctx, otherModule, newTestChunks([]float32{1, 0, 0}))
	require.NoError(t, err)

	hits, err := chunkRepo.SearchLevel(ctx, core.LevelModule,
		core.Scope{SuiteID: "fedsuite", ModuleID: "fedreconcile"}, query, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, inScopeAdded.Id, hits[0].Document.Id)
	assert.InDelta(t, 1.0, float64(hits[0].Similarity), 1e-6)
}

func TestSearchLevel_TenantIsolation(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	query := []float32{1, 0, 0}

	t1 := newTestDocument(core.LevelEntity, "tenant-1", "", "")
	t1.Classification = core.ClassificationTenantPrivate
	_, err = docRepo.AddDocument(ctx, t1, newTestChunks([]float32{1, 0, 0}))
	require.NoError(t, err)

	hits, err := chunkRepo.SearchLevel(ctx, core.LevelEntity,
		core.Scope{TenantID: "tenant-2"}, query, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "tenant-2 must never see tenant-1 chunks")

	hits, err = chunkRepo.SearchLevel(ctx, core.LevelEntity,
		core.Scope{TenantID: "tenant-1"}, query, 0.5, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearchLevel_ExcludesInactive(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	query := []float32{1, 0, 0}

	doc := newTestDocument(core.LevelSuite, core.GlobalTenant, "fedsuite", "")
	added, err := docRepo.AddDocument(ctx, doc, newTestChunks([]float32{1, 0, 0}))
	require.NoError(t, err)

	hits, err := chunkRepo.SearchLevel(ctx, core.LevelSuite, core.Scope{SuiteID: "fedsuite"}, query, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.NoError(t, docRepo.SetStatus(ctx, added.Id, core.StatusDeprecated, time.Now().UTC()))

	hits, err = chunkRepo.SearchLevel(ctx, core.LevelSuite, core.Scope{SuiteID: "fedsuite"}, query, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchLevel_ThresholdAndLimit(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	doc := newTestDocument(core.LevelPlatform, core.GlobalTenant, "", "")
	chunks := newTestChunks(
		[]float32{1, 0, 0},       // similarity 1.0
		[]float32{0.9, 0.1, 0},   // high
		[]float32{0.5, 0.5, 0.5}, // medium
		[]float32{0, 1, 0},       // orthogonal, below floor
	)
	_, err = docRepo.AddDocument(ctx, doc, chunks)
	require.NoError(t, err)

	query := []float32{1, 0, 0}

	t.Run("floor filters weak hits", func(t *testing.T) {
		hits, err := chunkRepo.SearchLevel(ctx, core.LevelPlatform, core.Scope{}, query, 0.5, 10)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		// Ordered by similarity descending.
		assert.True(t, hits[0].Similarity >= hits[1].Similarity)
		assert.True(t, hits[1].Similarity >= hits[2].Similarity)
	})

	t.Run("limit caps results", func(t *testing.T) {
		hits, err := chunkRepo.SearchLevel(ctx, core.LevelPlatform, core.Scope{}, query, 0.5, 2)
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})

	t.Run("no qualifying hits is empty not error", func(t *testing.T) {
		hits, err := chunkRepo.SearchLevel(ctx, core.LevelPlatform, core.Scope{}, []float32{0, 0, 1}, 0.99, 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("invalid query parameters", func(t *testing.T) {
		_, err := chunkRepo.SearchLevel(ctx, core.LevelPlatform, core.Scope{}, nil, 0.5, 10)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})
}
