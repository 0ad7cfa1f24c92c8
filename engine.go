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


package stratum

import (
	"log/slog"

	"github.com/stratumkb/stratum/ai"
	"github.com/stratumkb/stratum/ai/openai"
	"github.com/stratumkb/stratum/ingestion"
	"github.com/stratumkb/stratum/retrieval"
	"github.com/stratumkb/stratum/storage"
	"github.com/stratumkb/stratum/storage/badger"
)

// Engine assembles the storage backend, the embedding provider, and the
// retrieval configuration, and hands out wired pipelines and coordinators.
type Engine struct {
	backend  *badger.Backend
	docs     storage.DocumentRepository
	chunks   storage.ChunkRepository
	provider ai.Provider
	cache    *retrieval.Cache
	cfg      retrieval.Config
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	cfg      retrieval.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithRetrievalConfig sets the retrieval parameters.
func WithRetrievalConfig(cfg retrieval.Config) EngineOption {
	return func(o *engineOptions) {
		o.cfg = cfg
	}
}

// WithProvider injects a pre-built AI provider instead of constructing the
// OpenAI-compatible one. Used by tests with the mock provider.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the backend in memory, without touching disk.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// NewEngine opens the storage backend at filePath and wires the engine.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		cfg:      retrieval.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	docs, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunks := badger.NewChunkRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	engine := &Engine{
		backend:  backend,
		docs:     docs,
		chunks:   chunks,
		provider: provider,
		cfg:      options.cfg,
		logger:   slog.Default(),
	}

	// Cache failures are not fatal; retrieval degrades to recompute.
	if options.cfg.CacheTTL > 0 {
		cache, err := retrieval.NewCache(options.cfg.CacheTTL)
		if err != nil {
			engine.logger.Warn("result cache unavailable, recomputing every request", "err", err)
		} else {
			engine.cache = cache
		}
	}

	return engine, nil
}

// Close releases the provider, the cache, and the storage backend.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	e.cache.Close()

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository returns the document repository.
func (e *Engine) DocumentRepository() storage.DocumentRepository {
	return e.docs
}

// ChunkRepository returns the chunk repository.
func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunks
}

// Config returns the retrieval configuration the engine was built with.
func (e *Engine) Config() retrieval.Config {
	return e.cfg
}

// NewIngestionPipeline creates an ingestion pipeline over the engine's
// storage and provider. The embedding dimensionality follows the engine's
// retrieval configuration unless overridden by an option.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{ingestion.WithEmbeddingDim(e.cfg.EmbeddingDim)}
	return ingestion.NewPipeline(e.docs, e.provider, append(base, opts...)...)
}

// NewCoordinator creates a retrieval coordinator over the engine's chunk
// store, sharing the engine's result cache.
func (e *Engine) NewCoordinator(opts ...retrieval.CoordinatorOption) (*retrieval.Coordinator, error) {
	retriever, err := retrieval.NewLevelRetriever(e.chunks, e.cfg)
	if err != nil {
		return nil, err
	}

	base := []retrieval.CoordinatorOption{retrieval.WithCache(e.cache)}
	return retrieval.NewCoordinator(retriever, e.provider, e.cfg, append(base, opts...)...)
}

// NewQualityMonitor creates a quality monitor bound to a coordinator.
func (e *Engine) NewQualityMonitor(coordinator *retrieval.Coordinator) (*retrieval.QualityMonitor, error) {
	return retrieval.NewQualityMonitor(coordinator, e.cfg)
}
