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
	"time"

	"github.com/stratumkb/stratum/ai"
	"github.com/stratumkb/stratum/core"
)

// Config carries the retrieval parameters. It is an immutable value: it is
// passed into the coordinator at construction and never mutated afterwards.
// Changing a parameter means constructing a new Config (and bumping
// BoostsVersion when ranking-relevant knobs change, so cached results keyed
// on the old parameters expire naturally).
type Config struct {
	// Boosts is the specificity bonus added to raw similarity per level.
	Boosts map[core.Level]float32

	// LevelK is the per-level result budget for level queries.
	LevelK map[core.Level]int

	// MinRequired is the chunk count below which a narrow level triggers
	// expansion to the next broader level.
	MinRequired int

	// MinSimilarity is the raw similarity floor for level queries.
	MinSimilarity float32

	// TopN is the size of the final ranked result list.
	TopN int

	// LevelTimeout bounds each individual level query.
	LevelTimeout time.Duration

	// CacheTTL is the result cache retention. Zero disables caching.
	CacheTTL time.Duration

	// TriggerTerms force the platform level into every query whose text
	// matches one of them, regardless of lower-level sufficiency.
	TriggerTerms []string

	// EmbeddingDim is the expected query vector dimensionality.
	EmbeddingDim int

	// BoostsVersion participates in cache keys.
	BoostsVersion string

	// AccuracyFloor is the minimum accuracy-check pass rate before the
	// quality monitor flags the report.
	AccuracyFloor float64

	// DriftTolerance is the maximum relative drop of mean top-1 similarity
	// against the baseline before a drift check flags.
	DriftTolerance float64

	// DriftSampleSize bounds the in-memory query sample ring.
	DriftSampleSize int
}

// ConfigOption is a functional option for building a Config.
type ConfigOption func(*Config)

// WithBoosts replaces the per-level score boosts.
func WithBoosts(boosts map[core.Level]float32) ConfigOption {
	return func(c *Config) {
		if len(boosts) > 0 {
			c.Boosts = copyMap(boosts)
		}
	}
}

// WithLevelK replaces the per-level result budgets.
func WithLevelK(k map[core.Level]int) ConfigOption {
	return func(c *Config) {
		if len(k) > 0 {
			c.LevelK = copyMap(k)
		}
	}
}

// WithMinRequired sets the expansion threshold.
func WithMinRequired(n int) ConfigOption {
	return func(c *Config) {
		if n > 0 {
			c.MinRequired = n
		}
	}
}

// WithMinSimilarity sets the raw similarity floor.
func WithMinSimilarity(floor float32) ConfigOption {
	return func(c *Config) {
		if floor >= 0 {
			c.MinSimilarity = floor
		}
	}
}

// WithTopN sets the final result list size.
func WithTopN(n int) ConfigOption {
	return func(c *Config) {
		if n > 0 {
			c.TopN = n
		}
	}
}

// WithLevelTimeout sets the per-level query timeout.
func WithLevelTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		if timeout > 0 {
			c.LevelTimeout = timeout
		}
	}
}

// WithCacheTTL sets the result cache retention. Zero disables caching.
func WithCacheTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) {
		if ttl >= 0 {
			c.CacheTTL = ttl
		}
	}
}

// WithTriggerTerms replaces the cross-domain trigger terms.
func WithTriggerTerms(terms ...string) ConfigOption {
	return func(c *Config) {
		c.TriggerTerms = append([]string(nil), terms...)
	}
}

// WithEmbeddingDim sets the expected query vector dimensionality.
func WithEmbeddingDim(dim int) ConfigOption {
	return func(c *Config) {
		if dim > 0 {
			c.EmbeddingDim = dim
		}
	}
}

// WithBoostsVersion sets the ranking parameter version used in cache keys.
func WithBoostsVersion(version string) ConfigOption {
	return func(c *Config) {
		if version != "" {
			c.BoostsVersion = version
		}
	}
}

// WithAccuracyFloor sets the minimum accuracy-check pass rate.
func WithAccuracyFloor(floor float64) ConfigOption {
	return func(c *Config) {
		if floor > 0 && floor <= 1 {
			c.AccuracyFloor = floor
		}
	}
}

// WithDriftTolerance sets the maximum tolerated relative similarity drop.
func WithDriftTolerance(tolerance float64) ConfigOption {
	return func(c *Config) {
		if tolerance > 0 && tolerance < 1 {
			c.DriftTolerance = tolerance
		}
	}
}

// DefaultConfig returns the default retrieval parameters.
func DefaultConfig() Config {
	return Config{
		Boosts: map[core.Level]float32{
			core.LevelEntity:   0.15,
			core.LevelModule:   0.10,
			core.LevelSuite:    0.05,
			core.LevelPlatform: 0.0,
		},
		LevelK: map[core.Level]int{
			core.LevelEntity:   3,
			core.LevelModule:   5,
			core.LevelSuite:    5,
			core.LevelPlatform: 2,
		},
		MinRequired:     3,
		MinSimilarity:   0.5,
		TopN:            10,
		LevelTimeout:    2 * time.Second,
		CacheTTL:        time.Hour,
		TriggerTerms:    []string{"compliance", "regulatory"},
		EmbeddingDim:    ai.DefaultDim,
		BoostsVersion:   "v1",
		AccuracyFloor:   0.9,
		DriftTolerance:  0.1,
		DriftSampleSize: 256,
	}
}

// NewConfig builds a Config from the defaults and the provided options.
func NewConfig(opts ...ConfigOption) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
