package retrieval

import "github.com/stratumkb/stratum/core"

// State names the phases a retrieve call moves through. The state machine
// is request-scoped and never persisted; observers see it through the
// RetrieveMonitor hooks.
type State int

const (
	StatePending State = iota
	StateLevelQueriesInflight
	StateExpansionCheck
	StateMerged
	StateAccessFiltered
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateLevelQueriesInflight:
		return "level_queries_inflight"
	case StateExpansionCheck:
		return "expansion_check"
	case StateMerged:
		return "merged"
	case StateAccessFiltered:
		return "access_filtered"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// RetrieveMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during
// a retrieve call.
type RetrieveMonitor interface {
	Start(query string, levels []core.Level)
	StateChange(state State)
	CacheHit(results []core.ResultChunk)
	LevelResult(level core.Level, hits int, err error)
	Expanded(from, to core.Level)
	TriggerTermMatched(level core.Level)
	Finish(results []core.ResultChunk)
}

// noopMonitor is a no-op implementation of RetrieveMonitor
type noopMonitor struct{}

var _ RetrieveMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ []core.Level)            {}
func (n *noopMonitor) StateChange(_ State)                       {}
func (n *noopMonitor) CacheHit(_ []core.ResultChunk)             {}
func (n *noopMonitor) LevelResult(_ core.Level, _ int, _ error)  {}
func (n *noopMonitor) Expanded(_, _ core.Level)                  {}
func (n *noopMonitor) TriggerTermMatched(_ core.Level)           {}
func (n *noopMonitor) Finish(_ []core.ResultChunk)               {}
