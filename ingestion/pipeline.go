package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stratumkb/stratum/ai"
	"github.com/stratumkb/stratum/core"
	"github.com/stratumkb/stratum/storage"
)

// DefaultGracePeriod is how long a deprecated document is retained before
// the reaper may hard-delete it.
const DefaultGracePeriod = 30 * 24 * time.Hour

// DefaultRetryAttempts bounds embedding retries per chunk.
const DefaultRetryAttempts = 3

// DefaultRetryBaseDelay is the initial backoff delay between embedding retries.
const DefaultRetryBaseDelay = 200 * time.Millisecond

// lockStripes is the size of the striped mutex table used to serialize
// writes per conceptual document.
const lockStripes = 64

// Source carries the ingestion metadata for a document: where it sits in
// the hierarchy, who may see it, and where it came from.
type Source struct {
	Level          core.Level
	TenantID       string
	SuiteID        string
	ModuleID       string
	Title          string
	SourceType     core.SourceType
	SourceURI      string
	Classification core.Classification
	Version        string
	Tags           []string
	IngestedBy     string
}

// Pipeline orchestrates document ingestion: chunking, embedding, and the
// atomic document+chunk write. It also owns the document lifecycle
// operations (update, delete, reap).
type Pipeline struct {
	docs     storage.DocumentRepository
	embedder ai.Embedder
	pool     *ants.Pool
	chunker  *Chunker
	sink     EventSink

	locks [lockStripes]sync.Mutex

	grace       time.Duration
	maxAttempts int
	baseDelay   time.Duration
	dim         int

	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent chunk embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunker replaces the default chunker.
func WithChunker(chunker *Chunker) Option {
	return func(p *Pipeline) error {
		if chunker != nil {
			p.chunker = chunker
		}
		return nil
	}
}

// WithEventSink registers a sink for ingestion events.
func WithEventSink(sink EventSink) Option {
	return func(p *Pipeline) error {
		if sink != nil {
			p.sink = sink
		}
		return nil
	}
}

// WithGracePeriod sets how long deprecated documents are retained before
// the reaper may remove them.
func WithGracePeriod(grace time.Duration) Option {
	return func(p *Pipeline) error {
		if grace > 0 {
			p.grace = grace
		}
		return nil
	}
}

// WithRetryPolicy sets the embedding retry budget per chunk.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		if baseDelay > 0 {
			p.baseDelay = baseDelay
		}
		return nil
	}
}

// WithEmbeddingDim sets the required vector dimensionality.
// Default is ai.DefaultDim.
func WithEmbeddingDim(dim int) Option {
	return func(p *Pipeline) error {
		if dim > 0 {
			p.dim = dim
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	docs storage.DocumentRepository,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		docs:        docs,
		embedder:    provider.Embedder(),
		pool:        pool,
		sink:        noopSink{},
		grace:       DefaultGracePeriod,
		maxAttempts: DefaultRetryAttempts,
		baseDelay:   DefaultRetryBaseDelay,
		dim:         ai.DefaultDim,
		now:         time.Now,
		logger:      slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Chunker constructed last so an option-supplied one wins without
	// paying for the default tokenizer load.
	if p.chunker == nil {
		p.chunker = NewChunker()
	}

	return p, nil
}

// Ingest validates, chunks, embeds, and writes a document atomically.
// Either the document and every chunk are committed together or nothing is.
// Returns the new document's ID.
func (p *Pipeline) Ingest(ctx context.Context, content string, source Source) (core.ID, error) {
	doc, err := p.documentFromSource(source)
	if err != nil {
		return 0, err
	}

	lock := p.lockFor(conceptualKey(source.TenantID, source.SuiteID, source.ModuleID, source.Title))
	lock.Lock()
	defer lock.Unlock()

	added, err := p.ingestLocked(ctx, content, doc)
	if err != nil {
		return 0, err
	}
	return added.Id, nil
}

// Update deprecates the existing document and ingests a replacement with
// the given content and version. The deprecated document's chunks are never
// touched. Returns the replacement's ID.
func (p *Pipeline) Update(ctx context.Context, documentID core.ID, content string, version string) (core.ID, error) {
	old, err := p.docs.GetDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	lock := p.lockFor(conceptualKey(old.TenantID, old.SuiteID, old.ModuleID, old.Title))
	lock.Lock()
	defer lock.Unlock()

	replacement := &core.Document{
		TenantID:       old.TenantID,
		Level:          old.Level,
		SuiteID:        old.SuiteID,
		ModuleID:       old.ModuleID,
		Title:          old.Title,
		SourceType:     old.SourceType,
		SourceURI:      old.SourceURI,
		Classification: old.Classification,
		Version:        version,
		Tags:           old.Tags,
		Status:         core.StatusActive,
		Replaces:       old.Id,
		IngestedBy:     old.IngestedBy,
	}

	// Embed before deprecating so a provider failure leaves the old
	// document untouched.
	texts, vectors, err := p.chunkAndEmbed(ctx, content)
	if err != nil {
		return 0, err
	}

	if err := p.docs.SetStatus(ctx, old.Id, core.StatusDeprecated, p.now()); err != nil {
		return 0, err
	}

	added, err := p.writeDocument(ctx, replacement, texts, vectors)
	if err != nil {
		return 0, err
	}
	return added.Id, nil
}

// Delete hard-deletes a document that is already deprecated and past the
// grace period; otherwise it marks the document deprecated so the reaper
// finishes the job later.
func (p *Pipeline) Delete(ctx context.Context, documentID core.ID) error {
	doc, err := p.docs.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	lock := p.lockFor(conceptualKey(doc.TenantID, doc.SuiteID, doc.ModuleID, doc.Title))
	lock.Lock()
	defer lock.Unlock()

	switch doc.Status {
	case core.StatusDeprecated:
		if p.now().Sub(doc.DeprecatedAt) >= p.grace {
			p.logger.Info("hard-deleting document past grace period", "id", doc.Id)
			return p.docs.DeleteDocument(ctx, documentID)
		}
		// Already scheduled for reaping
		return nil
	case core.StatusActive:
		return p.docs.SetStatus(ctx, documentID, core.StatusDeprecated, p.now())
	default:
		return fmt.Errorf("%w: document %d has status %s", core.ErrInvalidTransition, doc.Id, doc.Status)
	}
}

// Reap hard-deletes every deprecated document whose grace period has
// elapsed, cascading to its chunks. Returns the number of documents removed.
func (p *Pipeline) Reap(ctx context.Context) (int, error) {
	docs, err := p.docs.ListDocuments(ctx, storage.DocumentFilter{Status: core.StatusDeprecated})
	if err != nil {
		return 0, err
	}

	cutoff := p.now().Add(-p.grace)
	reaped := 0
	for _, doc := range docs {
		if doc.DeprecatedAt.After(cutoff) {
			continue
		}
		if err := p.docs.DeleteDocument(ctx, doc.Id); err != nil {
			return reaped, err
		}
		p.logger.Info("reaped document", "id", doc.Id, "deprecatedAt", doc.DeprecatedAt)
		reaped++
	}
	return reaped, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func (p *Pipeline) documentFromSource(source Source) (*core.Document, error) {
	doc := &core.Document{
		TenantID:       source.TenantID,
		Level:          source.Level,
		SuiteID:        source.SuiteID,
		ModuleID:       source.ModuleID,
		Title:          source.Title,
		SourceType:     source.SourceType,
		SourceURI:      source.SourceURI,
		Classification: source.Classification,
		Version:        source.Version,
		Tags:           source.Tags,
		Status:         core.StatusActive,
		IngestedBy:     source.IngestedBy,
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Pipeline) ingestLocked(ctx context.Context, content string, doc *core.Document) (*core.Document, error) {
	texts, vectors, err := p.chunkAndEmbed(ctx, content)
	if err != nil {
		return nil, err
	}
	return p.writeDocument(ctx, doc, texts, vectors)
}

func (p *Pipeline) chunkAndEmbed(ctx context.Context, content string) ([]string, [][]float32, error) {
	texts := p.chunker.Split(content)
	if len(texts) == 0 {
		return nil, nil, core.ErrEmptyContent
	}

	vectors, err := p.embedTexts(ctx, texts)
	if err != nil {
		return nil, nil, err
	}
	return texts, vectors, nil
}

// embedTexts fans chunk embedding out on the worker pool. Each chunk gets
// its own retry budget; any chunk exhausting it fails the whole batch.
func (p *Pipeline) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	errs := make([]error, len(texts))

	var wg sync.WaitGroup
	for i, text := range texts {
		i, text := i, text
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			errs[i] = RetryWithBackoff(ctx, func() error {
				vector, err := p.embedder.EmbedText(ctx, text)
				if err != nil {
					return err
				}
				vectors[i] = vector
				return nil
			}, p.maxAttempts, p.baseDelay)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			p.logger.Error("embedding failed after retries", "chunk", i, "err", err)
			return nil, fmt.Errorf("%w: chunk %d: %w", core.ErrEmbeddingFailure, i, err)
		}
		if len(vectors[i]) != p.dim {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, want %d",
				core.ErrDimensionMismatch, i, len(vectors[i]), p.dim)
		}
	}
	return vectors, nil
}

func (p *Pipeline) writeDocument(ctx context.Context, doc *core.Document, texts []string, vectors [][]float32) (*core.Document, error) {
	chunks := make([]*core.Chunk, len(texts))
	for i := range texts {
		chunks[i] = &core.Chunk{
			Ord:     i,
			Content: texts[i],
			Vector:  vectors[i],
		}
	}

	added, err := p.docs.AddDocument(ctx, doc, chunks)
	if err != nil {
		return nil, err
	}

	p.logger.Info("ingested document",
		"id", added.Id, "level", added.Level, "tenant", added.TenantID, "chunks", len(chunks))

	p.sink.OnIngest(Event{
		DocumentID: added.Id,
		Level:      added.Level,
		TenantID:   added.TenantID,
		SuiteID:    added.SuiteID,
		ModuleID:   added.ModuleID,
		ChunkCount: len(chunks),
		Replaces:   added.Replaces,
		At:         added.IngestedAt,
	})

	return added, nil
}

func (p *Pipeline) lockFor(key uint64) *sync.Mutex {
	return &p.locks[key%lockStripes]
}

// conceptualKey identifies a document independent of its stored ID, so
// concurrent ingest/update calls for the same document serialize even
// before an ID exists.
func conceptualKey(tenantID, suiteID, moduleID, title string) uint64 {
	return uint64(core.IDFromContent(tenantID + "\x00" + suiteID + "\x00" + moduleID + "\x00" + title))
}
