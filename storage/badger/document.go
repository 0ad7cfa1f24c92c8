package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stratumkb/stratum/core"
	"github.com/stratumkb/stratum/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocument writes a document and all of its chunks in one transaction.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document, chunks []*core.Chunk) (*core.Document, error) {
	if err := validateOrds(chunks); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if doc.Id == 0 {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			doc.Id = core.ID(nextID)
		}

		now := time.Now().UTC()
		if doc.IngestedAt.IsZero() {
			doc.IngestedAt = now
		}
		doc.UpdatedAt = now
		doc.ChunkCount = len(chunks)

		// Store primary record
		key := makeDocumentKey(doc.Id)
		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}

		// Update scope index
		if err := tx.Set(makeScopeKey(doc), storage.MarshalID(doc.Id)); err != nil {
			return err
		}

		// Store chunks, all or nothing
		for _, chunk := range chunks {
			chunk.DocumentID = doc.Id
			chunkKey := makeChunkKey(doc.Id, chunk.Ord)
			if err := tx.Set(chunkKey, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListDocuments retrieves documents matching the filter, newest first.
func (r *DocumentRepository) ListDocuments(ctx context.Context, filter storage.DocumentFilter) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc == nil || !matchesFilter(doc, filter) {
				continue
			}
			results = append(results, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Document) int {
		if a.IngestedAt.After(b.IngestedAt) {
			return -1
		}
		if a.IngestedAt.Before(b.IngestedAt) {
			return 1
		}
		return int(b.Id) - int(a.Id)
	})

	return results, nil
}

// SetStatus transitions a document's status, enforcing forward-only moves.
func (r *DocumentRepository) SetStatus(ctx context.Context, id core.ID, status core.Status, at time.Time) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		if doc.Status == status {
			return nil
		}
		if err := core.ValidateTransition(doc.Status, status); err != nil {
			return err
		}

		doc.Status = status
		doc.UpdatedAt = at
		if status == core.StatusDeprecated {
			doc.DeprecatedAt = at
		}

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteDocument hard-deletes a document, its chunks, and its index entries.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		// Delete scope index entry
		if err := tx.Delete(makeScopeKey(doc)); err != nil {
			return err
		}

		// Cascade to chunks
		chunkKeys, err := collectChunkKeys(tx, id)
		if err != nil {
			return err
		}
		for _, chunkKey := range chunkKeys {
			if err := tx.Delete(chunkKey); err != nil {
				return err
			}
		}

		// Delete primary record
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readDocument reads and unmarshals a document, returning nil if the key
// does not exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// collectChunkKeys gathers the keys of every chunk owned by a document.
// Keys are copied because they outlive the iterator.
func collectChunkKeys(tx *badger.Txn, documentID core.ID) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialChunkKey(documentID)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}

// validateOrds checks that chunk ords are exactly 0..N-1.
func validateOrds(chunks []*core.Chunk) error {
	seen := make([]bool, len(chunks))
	for _, chunk := range chunks {
		if chunk.Ord < 0 || chunk.Ord >= len(chunks) || seen[chunk.Ord] {
			return storage.ErrOrdGap
		}
		seen[chunk.Ord] = true
	}
	return nil
}

// matchesFilter reports whether a document satisfies a listing filter.
func matchesFilter(doc *core.Document, filter storage.DocumentFilter) bool {
	if filter.Status != 0 && doc.Status != filter.Status {
		return false
	}
	if filter.Level != 0 && doc.Level != filter.Level {
		return false
	}
	if filter.TenantID != "" && doc.TenantID != filter.TenantID {
		return false
	}
	if filter.SuiteID != "" && doc.SuiteID != filter.SuiteID {
		return false
	}
	if filter.ModuleID != "" && doc.ModuleID != filter.ModuleID {
		return false
	}
	return true
}
