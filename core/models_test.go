package core

import (
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "GTAS submission requires Treasury Account Symbol format, repeated consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)
			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestLevel_Broader(t *testing.T) {
	tests := []struct {
		name   string
		level  Level
		want   Level
		wantOK bool
	}{
		{"entity widens to module", LevelEntity, LevelModule, true},
		{"module widens to suite", LevelModule, LevelSuite, true},
		{"suite widens to platform", LevelSuite, LevelPlatform, true},
		{"platform has no broader level", LevelPlatform, 0, false},
		{"invalid level", Level(42), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.level.Broader()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Broader() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	if LevelEntity.String() != "entity" || LevelPlatform.String() != "platform" {
		t.Errorf("Level.String() returned unexpected names")
	}
	if Level(0).String() != "unknown" {
		t.Errorf("Level.String() for invalid value should be unknown")
	}
}

func TestDocumentMUS_Roundtrip(t *testing.T) {
	doc := Document{
		Id:             42,
		TenantID:       "acme",
		Level:          LevelEntity,
		SuiteID:        "fedsuite",
		ModuleID:       "fedreconcile",
		Title:          "Reconciliation runbook",
		SourceType:     SourceTypeURL,
		SourceURI:      "https://kb.example.com/runbook",
		Classification: ClassificationTenantPrivate,
		Version:        "3",
		Tags:           []string{"runbook", "reconciliation"},
		Status:         StatusDeprecated,
		Replaces:       7,
		ChunkCount:     5,
		IngestedBy:     "ops@acme",
		IngestedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		DeprecatedAt:   time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
	}

	buf := make([]byte, DocumentMUS.Size(doc))
	n := DocumentMUS.Marshal(doc, buf)
	if n != len(buf) {
		t.Fatalf("Marshal wrote %d bytes, Size predicted %d", n, len(buf))
	}

	got, n, err := DocumentMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if n != len(buf) {
		t.Errorf("Unmarshal consumed %d bytes, want %d", n, len(buf))
	}
	if got.Id != doc.Id || got.TenantID != doc.TenantID || got.Level != doc.Level ||
		got.Title != doc.Title || got.Status != doc.Status || got.Replaces != doc.Replaces ||
		!got.DeprecatedAt.Equal(doc.DeprecatedAt) || len(got.Tags) != len(doc.Tags) {
		t.Errorf("roundtrip mismatch: got %+v", got)
	}
}

func TestChunkMUS_Roundtrip(t *testing.T) {
	chunk := Chunk{
		DocumentID: 42,
		Ord:        3,
		Content:    "GTAS submission requires Treasury Account Symbol format ###-####",
		Meta:       map[string]string{MetaKeyPage: "12", MetaKeySection: "Submissions > Formats"},
		Vector:     []float32{0.1, 0.2, 0.3},
	}

	buf := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, buf)

	got, _, err := ChunkMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if got.DocumentID != chunk.DocumentID || got.Ord != chunk.Ord || got.Content != chunk.Content {
		t.Errorf("roundtrip mismatch: got %+v", got)
	}
	if got.Meta[MetaKeyPage] != "12" || len(got.Vector) != 3 {
		t.Errorf("roundtrip lost meta or vector: %+v", got)
	}
}

func TestDocumentMUS_RejectsBadEnum(t *testing.T) {
	doc := Document{
		TenantID:       GlobalTenant,
		Level:          LevelPlatform,
		SourceType:     SourceTypeUpload,
		Classification: ClassificationPublic,
		Status:         StatusActive,
	}
	buf := make([]byte, DocumentMUS.Size(doc))
	DocumentMUS.Marshal(doc, buf)

	// Corrupt the level byte (tenant "global" is 6 bytes + 1 length byte,
	// preceded by a 1-byte id).
	bad := Document{
		TenantID:       GlobalTenant,
		Level:          Level(99),
		SourceType:     SourceTypeUpload,
		Classification: ClassificationPublic,
		Status:         StatusActive,
	}
	badBuf := make([]byte, DocumentMUS.Size(bad))
	DocumentMUS.Marshal(bad, badBuf)
	if _, _, err := DocumentMUS.Unmarshal(badBuf); err == nil {
		t.Errorf("Unmarshal accepted an invalid level")
	}
}
