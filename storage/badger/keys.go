package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/stratumkb/stratum/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "docrec"
	documentIDSeq  = "docrecseq"
	chunkPrefix    = "churec"
	scopePrefix    = "docscp"
)

// sep separates variable-length scope fields inside composite keys. Scope
// identifiers must not contain NUL bytes.
const sep = byte(0)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:documentID:ord, fixed-width BigEndian so chunks of one
// document sort in ord order.
func makeChunkKey(documentID core.ID, ord int) []byte {
	prefix := chunkPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(ord))
	return buf
}

// makePartialChunkKey generates a prefix covering all chunks of a document.
func makePartialChunkKey(documentID core.ID) []byte {
	prefix := chunkPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// scopeFields returns the identifiers that participate in the scope index
// for a level: nothing for platform, suite for suite, suite+module for
// module, tenant for entity.
func scopeFields(level core.Level, scope core.Scope) []string {
	switch level {
	case core.LevelSuite:
		return []string{scope.SuiteID}
	case core.LevelModule:
		return []string{scope.SuiteID, scope.ModuleID}
	case core.LevelEntity:
		return []string{scope.TenantID}
	}
	return nil
}

// makeScopePrefix generates the scope index prefix for a (level, scope)
// pair. Format: prefix:level, then each scope field NUL-terminated.
func makeScopePrefix(level core.Level, scope core.Scope) []byte {
	fields := scopeFields(level, scope)
	size := len(scopePrefix) + 2
	for _, f := range fields {
		size += len(f) + 1
	}
	buf := make([]byte, 0, size)
	buf = append(buf, scopePrefix...)
	buf = append(buf, ':', byte(level))
	for _, f := range fields {
		buf = append(buf, f...)
		buf = append(buf, sep)
	}
	return buf
}

// makeScopeKey generates the scope index key for a document.
// Format: scope prefix + documentID (BigEndian).
func makeScopeKey(doc *core.Document) []byte {
	scope := core.Scope{TenantID: doc.TenantID, SuiteID: doc.SuiteID, ModuleID: doc.ModuleID}
	prefix := makeScopePrefix(doc.Level, scope)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(doc.Id))
	return buf
}
