// Copyright 2026 Stratum Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/stratumkb/stratum/ai"
	"github.com/stratumkb/stratum/core"
)

// Request is one retrieve call.
type Request struct {
	// Query is the natural-language query text.
	Query string

	// Caller scopes and authorizes the request.
	Caller core.Caller

	// Levels restricts which hierarchy levels are queried. Empty means
	// all four, narrowest first.
	Levels []core.Level

	// Strict turns any level-query failure into ErrPartialRetrieval
	// instead of the default fail-open behavior.
	Strict bool
}

// Coordinator fans a query out across hierarchy levels, boosts and merges
// the hits, applies the access filter, and serves the ranked tail through
// a best-effort cache. It holds no mutable state shared between requests
// apart from the cache and the drift sample ring.
type Coordinator struct {
	searcher LevelSearcher
	embedder ai.Embedder
	cfg      Config
	cache    *Cache
	samples  *sampleRing
	logger   *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithCache attaches a result cache. Without one (or with a nil cache)
// every request recomputes.
func WithCache(cache *Cache) CoordinatorOption {
	return func(c *Coordinator) error {
		c.cache = cache
		return nil
	}
}

// NewCoordinator creates a retrieval coordinator.
func NewCoordinator(
	searcher LevelSearcher,
	provider ai.Provider,
	cfg Config,
	opts ...CoordinatorOption,
) (*Coordinator, error) {
	if searcher == nil {
		return nil, ErrLevelSearcherRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	c := &Coordinator{
		searcher: searcher,
		embedder: provider.Embedder(),
		cfg:      cfg,
		samples:  newSampleRing(cfg.DriftSampleSize),
		logger:   slog.Default().With("component", "coordinator"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Retrieve runs the full retrieval flow and returns the ranked results.
func (c *Coordinator) Retrieve(ctx context.Context, req Request) ([]core.ResultChunk, error) {
	return c.RetrieveWithMonitor(ctx, req, nil)
}

// RetrieveWithMonitor runs Retrieve with observation hooks. The monitor
// receives a callback on every state transition and intermediate result.
func (c *Coordinator) RetrieveWithMonitor(ctx context.Context, req Request, monitor RetrieveMonitor) ([]core.ResultChunk, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	levels := req.Levels
	if len(levels) == 0 {
		levels = slices.Clone(core.Levels)
	}
	for _, level := range levels {
		if err := core.ValidateLevel(level); err != nil {
			return nil, err
		}
	}

	monitor.Start(req.Query, levels)
	monitor.StateChange(StatePending)

	scope := req.Caller.Scope()
	key := cacheKey(req.Query, scope, levels, c.cfg.BoostsVersion)
	if cached, ok := c.cache.Get(key); ok {
		c.logger.Debug("serving cached results", "query", req.Query)
		monitor.CacheHit(cached)
		monitor.StateChange(StateDone)
		return slices.Clone(cached), nil
	}

	queryVector, err := c.embedder.EmbedText(ctx, req.Query)
	if err != nil {
		c.logger.Error("error generating embedding for query", "query", req.Query, "err", err)
		return nil, err
	}
	if c.cfg.EmbeddingDim > 0 && len(queryVector) != c.cfg.EmbeddingDim {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, want %d",
			core.ErrDimensionMismatch, len(queryVector), c.cfg.EmbeddingDim)
	}

	// Fan the initial level queries out in parallel.
	monitor.StateChange(StateLevelQueriesInflight)
	hitsByLevel, failures := c.queryLevels(ctx, levels, queryVector, scope, monitor)

	if err := ctx.Err(); err != nil {
		// Partial results computed so far are discarded, not returned
		// truncated.
		return nil, err
	}

	// Expansion runs strictly after the initial batch completes.
	monitor.StateChange(StateExpansionCheck)
	c.expand(ctx, req.Query, levels, hitsByLevel, failures, queryVector, scope, monitor)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(failures) > 0 {
		if req.Strict {
			return nil, &PartialError{Failed: failures}
		}
		for level, ferr := range failures {
			c.logger.Warn("level query failed, proceeding fail-open", "level", level, "err", ferr)
		}
	}

	monitor.StateChange(StateMerged)
	merged := c.merge(hitsByLevel)

	monitor.StateChange(StateAccessFiltered)
	visible := merged[:0]
	for _, rc := range merged {
		if IsVisible(rc.Document, req.Caller) {
			visible = append(visible, rc)
		}
	}

	if len(visible) > c.cfg.TopN {
		visible = visible[:c.cfg.TopN]
	}
	results := slices.Clone(visible)

	c.cache.Set(key, results)
	if len(results) > 0 {
		c.samples.Add(querySample{query: req.Query, topSimilarity: results[0].RawSimilarity})
	}

	monitor.Finish(results)
	monitor.StateChange(StateDone)
	return results, nil
}

// queryLevels issues one level query per requested level concurrently,
// each with its own timeout and result budget.
func (c *Coordinator) queryLevels(
	ctx context.Context,
	levels []core.Level,
	queryVector []float32,
	scope core.Scope,
	monitor RetrieveMonitor,
) (map[core.Level][]*core.SearchHit, map[core.Level]error) {
	var mu sync.Mutex
	hitsByLevel := make(map[core.Level][]*core.SearchHit, len(levels))
	failures := make(map[core.Level]error)

	var wg sync.WaitGroup
	for _, level := range levels {
		level := level
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := c.queryLevel(ctx, level, queryVector, scope)

			mu.Lock()
			defer mu.Unlock()
			monitor.LevelResult(level, len(hits), err)
			if err != nil {
				failures[level] = err
				return
			}
			hitsByLevel[level] = hits
		}()
	}
	wg.Wait()

	return hitsByLevel, failures
}

func (c *Coordinator) queryLevel(ctx context.Context, level core.Level, queryVector []float32, scope core.Scope) ([]*core.SearchHit, error) {
	k := c.cfg.LevelK[level]
	if k <= 0 {
		k = c.cfg.TopN
	}

	levelCtx := ctx
	if c.cfg.LevelTimeout > 0 {
		var cancel context.CancelFunc
		levelCtx, cancel = context.WithTimeout(ctx, c.cfg.LevelTimeout)
		defer cancel()
	}

	return c.searcher.SearchLevel(levelCtx, level, queryVector, scope, k)
}

// expand tops thin narrow levels up from the next broader level, and
// forces the platform level in when the query matches a cross-domain
// trigger term. Expansion queries run sequentially, never pipelined ahead
// of the initial batch.
func (c *Coordinator) expand(
	ctx context.Context,
	query string,
	levels []core.Level,
	hitsByLevel map[core.Level][]*core.SearchHit,
	failures map[core.Level]error,
	queryVector []float32,
	scope core.Scope,
	monitor RetrieveMonitor,
) {
	queried := make(map[core.Level]bool, len(levels))
	for _, level := range levels {
		queried[level] = true
	}

	runExtra := func(to core.Level) {
		queried[to] = true
		hits, err := c.queryLevel(ctx, to, queryVector, scope)
		monitor.LevelResult(to, len(hits), err)
		if err != nil {
			failures[to] = err
			return
		}
		hitsByLevel[to] = hits
	}

	// Only the narrow levels trigger sufficiency expansion.
	for _, level := range []core.Level{core.LevelEntity, core.LevelModule} {
		if !queried[level] || failures[level] != nil {
			continue
		}
		if len(hitsByLevel[level]) >= c.cfg.MinRequired {
			continue
		}

		// Walk broader until we find a level not already covered.
		next, ok := level.Broader()
		for ok && queried[next] {
			next, ok = next.Broader()
		}
		if !ok {
			continue
		}

		c.logger.Debug("expanding to broader level",
			"from", level, "to", next, "hits", len(hitsByLevel[level]), "minRequired", c.cfg.MinRequired)
		monitor.Expanded(level, next)
		runExtra(next)
	}

	if !queried[core.LevelPlatform] && matchesTriggerTerms(query, c.cfg.TriggerTerms) {
		c.logger.Debug("trigger term matched, forcing platform level", "query", query)
		monitor.TriggerTermMatched(core.LevelPlatform)
		runExtra(core.LevelPlatform)
	}
}

// merge boosts every hit by its level's specificity bonus and sorts the
// combined list: adjusted score descending, then level specificity, then
// document recency, then document ID, then chunk ordinal for total
// determinism. Levels are collected in fixed order and the sort is stable
// so the output never depends on map iteration order.
func (c *Coordinator) merge(hitsByLevel map[core.Level][]*core.SearchHit) []core.ResultChunk {
	total := 0
	for _, hits := range hitsByLevel {
		total += len(hits)
	}

	merged := make([]core.ResultChunk, 0, total)
	for _, level := range core.Levels {
		boost := c.cfg.Boosts[level]
		for _, hit := range hitsByLevel[level] {
			merged = append(merged, core.ResultChunk{
				Chunk:         hit.Chunk,
				Document:      hit.Document,
				Level:         level,
				RawSimilarity: hit.Similarity,
				AdjustedScore: hit.Similarity + boost,
			})
		}
	}

	slices.SortStableFunc(merged, func(a, b core.ResultChunk) int {
		switch {
		case a.AdjustedScore > b.AdjustedScore:
			return -1
		case a.AdjustedScore < b.AdjustedScore:
			return 1
		}
		// Narrower level wins a tie (entity > module > suite > platform).
		switch {
		case a.Level > b.Level:
			return -1
		case a.Level < b.Level:
			return 1
		}
		if !a.Document.IngestedAt.Equal(b.Document.IngestedAt) {
			if a.Document.IngestedAt.After(b.Document.IngestedAt) {
				return -1
			}
			return 1
		}
		switch {
		case a.Document.Id > b.Document.Id:
			return -1
		case a.Document.Id < b.Document.Id:
			return 1
		}
		// Same document, same score: chunk ordinal decides.
		return a.Chunk.Ord - b.Chunk.Ord
	})

	return merged
}

// sampleSnapshot exposes the recorded query samples to the drift check.
func (c *Coordinator) sampleSnapshot() []querySample {
	return c.samples.Snapshot()
}
