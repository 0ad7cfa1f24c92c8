package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// GlobalTenant is the sentinel tenant identifier for platform-wide documents
// that are not owned by any single tenant.
const GlobalTenant = "global"

// Level indicates the breadth of applicability of a Document within the
// scope hierarchy. Levels are ordered from broadest (platform) to
// narrowest (entity); a higher value means a more specific level.
type Level int

const (
	// LevelPlatform applies to every tenant on the platform.
	LevelPlatform Level = iota + 1
	// LevelSuite applies to all modules within one product suite.
	LevelSuite
	// LevelModule applies to one module within a suite.
	LevelModule
	// LevelEntity applies to a single tenant.
	LevelEntity
)

// Levels lists all valid levels from narrowest to broadest, the order in
// which retrieval queries them by default.
var Levels = []Level{LevelEntity, LevelModule, LevelSuite, LevelPlatform}

func (l Level) String() string {
	switch l {
	case LevelPlatform:
		return "platform"
	case LevelSuite:
		return "suite"
	case LevelModule:
		return "module"
	case LevelEntity:
		return "entity"
	}
	return "unknown"
}

// Broader returns the next broader level, or false if l is already the
// broadest level (or invalid).
func (l Level) Broader() (Level, bool) {
	if l <= LevelPlatform || l > LevelEntity {
		return 0, false
	}
	return l - 1, true
}

// Classification controls who may see a Document's chunks.
type Classification int

const (
	// ClassificationPublic is visible to every caller.
	ClassificationPublic Classification = iota + 1
	// ClassificationInternal is visible to authenticated callers only.
	ClassificationInternal
	// ClassificationTenantPrivate is visible only to the owning tenant.
	ClassificationTenantPrivate
)

func (c Classification) String() string {
	switch c {
	case ClassificationPublic:
		return "public"
	case ClassificationInternal:
		return "internal"
	case ClassificationTenantPrivate:
		return "tenant_private"
	}
	return "unknown"
}

// Status tracks a Document through its lifecycle. Transitions only move
// forward: active, then deprecated, then deleted.
type Status int

const (
	StatusActive Status = iota + 1
	StatusDeprecated
	StatusDeleted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusDeprecated:
		return "deprecated"
	case StatusDeleted:
		return "deleted"
	}
	return "unknown"
}

// SourceType records how a document's text reached the engine.
type SourceType int

const (
	SourceTypeUpload SourceType = iota + 1
	SourceTypeURL
	SourceTypeAPI
)

func (s SourceType) String() string {
	switch s {
	case SourceTypeUpload:
		return "upload"
	case SourceTypeURL:
		return "url"
	case SourceTypeAPI:
		return "api"
	}
	return "unknown"
}

// Recognized Chunk.Meta keys.
const (
	// MetaKeyPage is the page number the chunk was extracted from.
	MetaKeyPage = "page"
	// MetaKeySection is the heading path of the chunk.
	MetaKeySection = "section"
)

// Document represents one ingested source text, the unit of ownership for
// chunks. A Document exclusively owns its Chunks; deleting a Document
// cascades to all of them.
type Document struct {
	Id             ID
	TenantID       string // GlobalTenant for platform-wide documents
	Level          Level
	SuiteID        string // set when Level is suite, module, or entity
	ModuleID       string // set when Level is module or entity
	Title          string
	SourceType     SourceType
	SourceURI      string
	Classification Classification
	Version        string
	Tags           []string
	Status         Status
	Replaces       ID  // document this one supersedes, 0 if none
	ChunkCount     int // number of chunks written for this document
	IngestedBy     string
	IngestedAt     time.Time
	DeprecatedAt   time.Time // zero until the document is deprecated
	UpdatedAt      time.Time
}

// Chunk is a bounded span of a Document's text, embedded independently for
// similarity search. For a given document the Ord values are exactly
// 0..ChunkCount-1 with no gaps or duplicates.
type Chunk struct {
	DocumentID ID
	Ord        int
	Content    string
	Meta       map[string]string // recognized keys: page, section
	Vector     []float32
}

// Scope identifies the position in the hierarchy a query or document
// belongs to.
type Scope struct {
	TenantID string
	SuiteID  string
	ModuleID string
}

// Caller describes the identity on whose behalf a retrieval runs.
type Caller struct {
	TenantID      string
	SuiteID       string
	ModuleID      string
	Authenticated bool
}

// Scope returns the caller's position in the hierarchy.
func (c Caller) Scope() Scope {
	return Scope{TenantID: c.TenantID, SuiteID: c.SuiteID, ModuleID: c.ModuleID}
}

// SearchHit is a single chunk returned by a level query, before boosting.
type SearchHit struct {
	Chunk      *Chunk
	Document   *Document
	Similarity float32
}

// ResultChunk is a ranked retrieval result annotated with the level that
// contributed it and its boosted score.
type ResultChunk struct {
	Chunk         *Chunk
	Document      *Document
	Level         Level
	RawSimilarity float32
	AdjustedScore float32
}
