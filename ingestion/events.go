package ingestion

import (
	"time"

	"github.com/stratumkb/stratum/core"
)

// Event describes a completed ingestion write. Consumed by coverage
// tracking; emitted after the document and its chunks are committed.
type Event struct {
	DocumentID core.ID
	Level      core.Level
	TenantID   string
	SuiteID    string
	ModuleID   string
	ChunkCount int
	Replaces   core.ID
	At         time.Time
}

// EventSink receives ingestion events. Implementations must be
// thread-safe; sinks are invoked synchronously on the ingestion path and
// should return quickly.
type EventSink interface {
	OnIngest(event Event)
}

// noopSink discards all events.
type noopSink struct{}

func (noopSink) OnIngest(Event) {}
