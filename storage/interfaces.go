package storage

import (
	"context"
	"time"

	"github.com/stratumkb/stratum/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentFilter narrows a ListDocuments call. Zero values match everything.
type DocumentFilter struct {
	Status   core.Status // 0 matches any status
	Level    core.Level  // 0 matches any level
	TenantID string
	SuiteID  string
	ModuleID string
}

// DocumentRepository provides operations for managing documents and their
// owned chunks. A document and its chunks are written and removed together;
// there is no way to persist a partially chunked document.
type DocumentRepository interface {
	Repository

	// AddDocument writes a document and all of its chunks in a single
	// transaction. For documents with ID=0, generates a new ID from
	// sequence. The chunk Ord values must be exactly 0..len(chunks)-1;
	// otherwise ErrOrdGap is returned and nothing is written.
	// Returns the document with ID and timestamps populated.
	AddDocument(ctx context.Context, doc *core.Document, chunks []*core.Chunk) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments retrieves documents matching the filter, ordered by
	// ingestion time descending.
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]*core.Document, error)

	// SetStatus transitions a document's status, enforcing the forward-only
	// lifecycle. When transitioning to deprecated, records the deprecation
	// time. Returns ErrNotFound if the document doesn't exist and
	// core.ErrInvalidTransition for backwards transitions.
	SetStatus(ctx context.Context, id core.ID, status core.Status, at time.Time) error

	// DeleteDocument hard-deletes a document and cascades to all of its
	// chunks and index entries. Returns ErrNotFound if the document
	// doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error
}

// ChunkRepository provides read access to chunks and the scoped similarity
// search that level retrieval is built on.
type ChunkRepository interface {
	Repository

	// GetChunks retrieves all chunks of a document in Ord order.
	// Returns an empty slice if the document has no chunks.
	GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// UpdateChunkMeta replaces the meta annotations of a single chunk.
	// Chunk content and vectors are immutable once written; meta is the
	// only mutable field. Returns ErrNotFound if the chunk doesn't exist.
	UpdateChunkMeta(ctx context.Context, documentID core.ID, ord int, meta map[string]string) error

	// SearchLevel finds chunks similar to the query vector among documents
	// at exactly the given level whose scope identifiers match the filter
	// for that level and whose status is active.
	// Returns hits with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first). Returns an empty slice,
	// not an error, when nothing qualifies.
	SearchLevel(ctx context.Context, level core.Level, scope core.Scope, vector []float32, minSimilarity float32, limit int) ([]*core.SearchHit, error)
}
