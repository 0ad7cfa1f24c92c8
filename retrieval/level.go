package retrieval

import (
	"context"
	"log/slog"

	"github.com/stratumkb/stratum/core"
	"github.com/stratumkb/stratum/storage"
)

// LevelSearcher runs a similarity query against a single hierarchy level.
// It is stateless and safe for concurrent, redundant calls.
type LevelSearcher interface {
	SearchLevel(ctx context.Context, level core.Level, queryVector []float32, scope core.Scope, k int) ([]*core.SearchHit, error)
}

// LevelRetriever is the storage-backed LevelSearcher. It is the only
// retrieval component that touches the underlying index structure.
type LevelRetriever struct {
	chunks        storage.ChunkRepository
	minSimilarity float32
	logger        *slog.Logger
}

var _ LevelSearcher = (*LevelRetriever)(nil)

// NewLevelRetriever creates a level retriever over the chunk repository,
// applying the config's similarity floor to every query.
func NewLevelRetriever(chunks storage.ChunkRepository, cfg Config) (*LevelRetriever, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}

	return &LevelRetriever{
		chunks:        chunks,
		minSimilarity: cfg.MinSimilarity,
		logger:        slog.Default().With("component", "level-retriever"),
	}, nil
}

// SearchLevel finds active chunks at exactly the given level whose owning
// document matches the scope, ordered by raw similarity descending. An
// empty result is not an error.
func (r *LevelRetriever) SearchLevel(ctx context.Context, level core.Level, queryVector []float32, scope core.Scope, k int) ([]*core.SearchHit, error) {
	hits, err := r.chunks.SearchLevel(ctx, level, scope, queryVector, r.minSimilarity, k)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("level query complete", "level", level, "hits", len(hits), "k", k)
	return hits, nil
}
