package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/stratumkb/stratum/core"
	"github.com/stratumkb/stratum/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close is a no-op; the backend is closed by its owner.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetChunks retrieves all chunks of a document in ord order.
func (r *ChunkRepository) GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkKey(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// BigEndian ord in the key makes iteration order the ord order.
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateChunkMeta replaces a chunk's meta annotations. Content and vector
// are immutable once written.
func (r *ChunkRepository) UpdateChunkMeta(ctx context.Context, documentID core.ID, ord int, meta map[string]string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(documentID, ord)
		item, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var chunk *core.Chunk
		err = item.Value(func(val []byte) error {
			var err error
			chunk, err = storage.UnmarshalChunk(val)
			return err
		})
		if err != nil {
			return err
		}

		chunk.Meta = meta
		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SearchLevel finds chunks similar to the query vector among active
// documents at exactly the given level matching the scope filter.
func (r *ChunkRepository) SearchLevel(ctx context.Context, level core.Level, scope core.Scope, vector []float32, minSimilarity float32, limit int) ([]*core.SearchHit, error) {
	if err := core.ValidateLevel(level); err != nil {
		return nil, err
	}
	if len(vector) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.SearchHit
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Collect candidate documents from the scope index.
		docIDs, err := scopedDocumentIDs(tx, level, scope)
		if err != nil {
			return err
		}

		for _, docID := range docIDs {
			if err := ctx.Err(); err != nil {
				return err
			}

			doc, err := readDocument(tx, makeDocumentKey(docID))
			if err != nil {
				return err
			}
			if doc == nil || doc.Status != core.StatusActive {
				continue
			}

			if err := scanChunkSimilarity(tx, doc, vector, minSimilarity, &results); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SearchHit) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scopedDocumentIDs reads the scope index for a (level, scope) pair.
func scopedDocumentIDs(tx *badger.Txn, level core.Level, scope core.Scope) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeScopePrefix(level, scope)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var id core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// scanChunkSimilarity scores every chunk of a document against the query
// vector and appends qualifying hits.
func scanChunkSimilarity(tx *badger.Txn, doc *core.Document, vector []float32, minSimilarity float32, results *[]*core.SearchHit) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialChunkKey(doc.Id)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var chunk *core.Chunk
		err := iter.Item().Value(func(val []byte) error {
			var err error
			chunk, err = storage.UnmarshalChunk(val)
			return err
		})
		if err != nil {
			return err
		}
		if chunk == nil || len(chunk.Vector) == 0 {
			continue
		}

		similarity := cosineSimilarity(vector, chunk.Vector)
		if similarity >= minSimilarity {
			*results = append(*results, &core.SearchHit{
				Chunk:      chunk,
				Document:   doc,
				Similarity: similarity,
			})
		}
	}
	return nil
}
