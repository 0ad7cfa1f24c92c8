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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Level, Classification, SourceType, and Status must be valid values
//   - the scoping invariants for the document's level must hold
//
// NOT validated (populated by the pipeline):
//   - ID (0 is valid before the database sequence assigns one)
//   - ChunkCount and timestamps
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if err := ValidateClassification(doc.Classification); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := ValidateSourceType(doc.SourceType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return ValidateScope(doc.Level, doc.TenantID, doc.SuiteID, doc.ModuleID)
}

// ValidateScope checks the scoping invariants that tie a level to its
// identifiers:
//   - platform: tenant is the global sentinel, no suite or module
//   - suite: suite set, no module
//   - module: suite and module both set
//   - entity: tenant is a real tenant, not the global sentinel
func ValidateScope(level Level, tenantID, suiteID, moduleID string) error {
	if err := ValidateLevel(level); err != nil {
		return err
	}
	if tenantID == "" {
		return fmt.Errorf("%w: tenant id is empty", ErrInvalidScope)
	}

	switch level {
	case LevelPlatform:
		if tenantID != GlobalTenant {
			return fmt.Errorf("%w: platform documents must use the global tenant", ErrInvalidScope)
		}
		if suiteID != "" || moduleID != "" {
			return fmt.Errorf("%w: platform documents cannot carry suite or module ids", ErrInvalidScope)
		}
	case LevelSuite:
		if suiteID == "" {
			return fmt.Errorf("%w: suite documents require a suite id", ErrInvalidScope)
		}
		if moduleID != "" {
			return fmt.Errorf("%w: suite documents cannot carry a module id", ErrInvalidScope)
		}
	case LevelModule:
		if suiteID == "" || moduleID == "" {
			return fmt.Errorf("%w: module documents require both suite and module ids", ErrInvalidScope)
		}
	case LevelEntity:
		if tenantID == GlobalTenant {
			return fmt.Errorf("%w: entity documents require a real tenant id", ErrInvalidScope)
		}
	}

	return nil
}

// ValidateLevel validates that a Level has a valid value.
func ValidateLevel(level Level) error {
	if level < LevelPlatform || level > LevelEntity {
		return fmt.Errorf("%w: value %d", ErrInvalidLevel, level)
	}
	return nil
}

// ValidateClassification validates that a Classification has a valid value.
func ValidateClassification(c Classification) error {
	if c < ClassificationPublic || c > ClassificationTenantPrivate {
		return fmt.Errorf("%w: value %d", ErrInvalidClassification, c)
	}
	return nil
}

// ValidateStatus validates that a Status has a valid value.
func ValidateStatus(s Status) error {
	if s < StatusActive || s > StatusDeleted {
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, s)
	}
	return nil
}

// ValidateSourceType validates that a SourceType has a valid value.
func ValidateSourceType(s SourceType) error {
	if s < SourceTypeUpload || s > SourceTypeAPI {
		return fmt.Errorf("%w: value %d", ErrInvalidSourceType, s)
	}
	return nil
}

// ValidateTransition checks that a status change follows the forward-only
// lifecycle: active to deprecated, deprecated to deleted.
func ValidateTransition(from, to Status) error {
	if err := ValidateStatus(from); err != nil {
		return err
	}
	if err := ValidateStatus(to); err != nil {
		return err
	}
	if to-from != 1 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
