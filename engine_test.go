package stratum

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratumkb/stratum/ai/mock"
	"github.com/stratumkb/stratum/core"
	"github.com/stratumkb/stratum/ingestion"
	"github.com/stratumkb/stratum/retrieval"
	"github.com/stratumkb/stratum/storage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	engine, err := NewEngine("", WithInMemory(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestEngine_IngestAndRetrieve(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	pipeline, err := engine.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	id, err := pipeline.Ingest(ctx, "Quarterly close requires ledger sign-off by the controller.", ingestion.Source{
		Level:          core.LevelModule,
		TenantID:       "tenant-1",
		SuiteID:        "finsuite",
		ModuleID:       "ledger",
		Title:          "close checklist",
		SourceType:     core.SourceTypeUpload,
		Classification: core.ClassificationInternal,
		Version:        "v1",
		IngestedBy:     "tester",
	})
	require.NoError(t, err)

	coordinator, err := engine.NewCoordinator()
	require.NoError(t, err)

	results, err := coordinator.Retrieve(ctx, retrieval.Request{
		Query: "Quarterly close requires ledger sign-off by the controller.",
		Caller: core.Caller{
			TenantID:      "tenant-1",
			SuiteID:       "finsuite",
			ModuleID:      "ledger",
			Authenticated: true,
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, id, results[0].Document.Id)
	assert.Equal(t, core.LevelModule, results[0].Level)
}

func TestEngine_Repositories(t *testing.T) {
	engine := newTestEngine(t)

	require.NotNil(t, engine.DocumentRepository())
	require.NotNil(t, engine.ChunkRepository())

	listed, err := engine.DocumentRepository().ListDocuments(context.Background(), storage.DocumentFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestEngine_QualityMonitor(t *testing.T) {
	engine := newTestEngine(t)

	coordinator, err := engine.NewCoordinator()
	require.NoError(t, err)

	q, err := engine.NewQualityMonitor(coordinator)
	require.NoError(t, err)

	_, err = q.DriftCheck(context.Background())
	assert.ErrorIs(t, err, retrieval.ErrNoSamples)
}
