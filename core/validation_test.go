package core

import (
	"errors"
	"testing"
)

func TestValidateScope(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		tenantID string
		suiteID  string
		moduleID string
		wantErr  error
	}{
		{
			name:     "valid platform scope",
			level:    LevelPlatform,
			tenantID: GlobalTenant,
			wantErr:  nil,
		},
		{
			name:     "platform with real tenant",
			level:    LevelPlatform,
			tenantID: "acme",
			wantErr:  ErrInvalidScope,
		},
		{
			name:     "platform with suite id",
			level:    LevelPlatform,
			tenantID: GlobalTenant,
			suiteID:  "fedsuite",
			wantErr:  ErrInvalidScope,
		},
		{
			name:     "valid suite scope",
			level:    LevelSuite,
			tenantID: GlobalTenant,
			suiteID:  "fedsuite",
			wantErr:  nil,
		},
		{
			name:     "suite without suite id",
			level:    LevelSuite,
			tenantID: GlobalTenant,
			wantErr:  ErrInvalidScope,
		},
		{
			name:     "suite with module id",
			level:    LevelSuite,
			tenantID: GlobalTenant,
			suiteID:  "fedsuite",
			moduleID: "fedreconcile",
			wantErr:  ErrInvalidScope,
		},
		{
			name:     "valid module scope",
			level:    LevelModule,
			tenantID: GlobalTenant,
			suiteID:  "fedsuite",
			moduleID: "fedreconcile",
			wantErr:  nil,
		},
		{
			name:     "module without module id",
			level:    LevelModule,
			tenantID: GlobalTenant,
			suiteID:  "fedsuite",
			wantErr:  ErrInvalidScope,
		},
		{
			name:     "valid entity scope",
			level:    LevelEntity,
			tenantID: "acme",
			wantErr:  nil,
		},
		{
			name:     "entity with global tenant",
			level:    LevelEntity,
			tenantID: GlobalTenant,
			wantErr:  ErrInvalidScope,
		},
		{
			name:     "empty tenant",
			level:    LevelSuite,
			tenantID: "",
			suiteID:  "fedsuite",
			wantErr:  ErrInvalidScope,
		},
		{
			name:    "invalid level",
			level:   Level(99),
			wantErr: ErrInvalidLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScope(tt.level, tt.tenantID, tt.suiteID, tt.moduleID)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateScope() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateScope() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	valid := &Document{
		TenantID:       GlobalTenant,
		Level:          LevelSuite,
		SuiteID:        "fedsuite",
		Title:          "GTAS overview",
		SourceType:     SourceTypeUpload,
		Classification: ClassificationInternal,
		Status:         StatusActive,
	}
	if err := ValidateDocument(valid); err != nil {
		t.Fatalf("ValidateDocument() unexpected error: %v", err)
	}

	t.Run("nil document", func(t *testing.T) {
		if err := ValidateDocument(nil); !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("ValidateDocument(nil) error = %v, want %v", err, ErrInvalidDocument)
		}
	})

	t.Run("bad classification", func(t *testing.T) {
		doc := *valid
		doc.Classification = Classification(0)
		if err := ValidateDocument(&doc); !errors.Is(err, ErrInvalidClassification) {
			t.Errorf("ValidateDocument() error = %v, want %v", err, ErrInvalidClassification)
		}
	})

	t.Run("bad source type", func(t *testing.T) {
		doc := *valid
		doc.SourceType = SourceType(7)
		if err := ValidateDocument(&doc); !errors.Is(err, ErrInvalidSourceType) {
			t.Errorf("ValidateDocument() error = %v, want %v", err, ErrInvalidSourceType)
		}
	})

	t.Run("bad scope", func(t *testing.T) {
		doc := *valid
		doc.ModuleID = "fedreconcile" // suite-level docs cannot carry one
		if err := ValidateDocument(&doc); !errors.Is(err, ErrInvalidScope) {
			t.Errorf("ValidateDocument() error = %v, want %v", err, ErrInvalidScope)
		}
	})
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr error
	}{
		{"active to deprecated", StatusActive, StatusDeprecated, nil},
		{"deprecated to deleted", StatusDeprecated, StatusDeleted, nil},
		{"active to deleted skips deprecation", StatusActive, StatusDeleted, ErrInvalidTransition},
		{"deprecated to active", StatusDeprecated, StatusActive, ErrInvalidTransition},
		{"deleted is terminal", StatusDeleted, StatusDeleted, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateTransition() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTransition() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
