package storage

import (
	"testing"
	"time"

	"github.com/stratumkb/stratum/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			id, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	doc := &core.Document{
		Id:             17,
		TenantID:       core.GlobalTenant,
		Level:          core.LevelModule,
		SuiteID:        "fedsuite",
		ModuleID:       "fedreconcile",
		Title:          "GTAS submission formats",
		SourceType:     core.SourceTypeUpload,
		SourceURI:      "uploads/gtas.pdf",
		Classification: core.ClassificationInternal,
		Version:        "1",
		Tags:           []string{"gtas"},
		Status:         core.StatusActive,
		ChunkCount:     2,
		IngestedBy:     "admin",
		IngestedAt:     time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC),
	}

	data := MarshalDocument(doc)
	require.NotEmpty(t, data)

	got, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Id, got.Id)
	assert.Equal(t, doc.Level, got.Level)
	assert.Equal(t, doc.SuiteID, got.SuiteID)
	assert.Equal(t, doc.ModuleID, got.ModuleID)
	assert.Equal(t, doc.Status, got.Status)
	assert.True(t, got.IngestedAt.Equal(doc.IngestedAt))
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	chunk := &core.Chunk{
		DocumentID: 17,
		Ord:        0,
		Content:    "GTAS submission requires Treasury Account Symbol format ###-####",
		Meta:       map[string]string{core.MetaKeyPage: "3"},
		Vector:     []float32{0.5, -0.25, 0.125},
	}

	data := MarshalChunk(chunk)
	require.NotEmpty(t, data)

	got, err := UnmarshalChunk(data)
	require.NoError(t, err)
	assert.Equal(t, chunk.DocumentID, got.DocumentID)
	assert.Equal(t, chunk.Ord, got.Ord)
	assert.Equal(t, chunk.Content, got.Content)
	assert.Equal(t, chunk.Meta, got.Meta)
	assert.Equal(t, chunk.Vector, got.Vector)
}

func TestUnmarshalDocument_Truncated(t *testing.T) {
	doc := &core.Document{
		Id:             1,
		TenantID:       "acme",
		Level:          core.LevelEntity,
		SourceType:     core.SourceTypeAPI,
		Classification: core.ClassificationTenantPrivate,
		Status:         core.StatusActive,
	}
	data := MarshalDocument(doc)

	_, err := UnmarshalDocument(data[:len(data)/2])
	assert.Error(t, err)
}
