package main

import (
	"fmt"
	"io"

	"github.com/stratumkb/stratum/core"
	"github.com/stratumkb/stratum/retrieval"
)

// printMonitor writes the request state machine and per-level results to
// the given writer. Used by retrieve --verbose.
type printMonitor struct {
	out io.Writer
}

var _ retrieval.RetrieveMonitor = (*printMonitor)(nil)

func (m *printMonitor) Start(query string, levels []core.Level) {
	fmt.Fprintf(m.out, "retrieve %q across %d levels\n", query, len(levels))
}

func (m *printMonitor) StateChange(state retrieval.State) {
	fmt.Fprintf(m.out, "state: %s\n", state)
}

func (m *printMonitor) CacheHit(results []core.ResultChunk) {
	fmt.Fprintf(m.out, "cache hit: %d chunks\n", len(results))
}

func (m *printMonitor) LevelResult(level core.Level, hits int, err error) {
	if err != nil {
		fmt.Fprintf(m.out, "level %s failed: %v\n", level, err)
		return
	}
	fmt.Fprintf(m.out, "level %s: %d hits\n", level, hits)
}

func (m *printMonitor) Expanded(from, to core.Level) {
	fmt.Fprintf(m.out, "expanding %s -> %s\n", from, to)
}

func (m *printMonitor) TriggerTermMatched(level core.Level) {
	fmt.Fprintf(m.out, "trigger term matched, forcing %s\n", level)
}

func (m *printMonitor) Finish(results []core.ResultChunk) {
	fmt.Fprintf(m.out, "done: %d chunks after filtering\n", len(results))
}
