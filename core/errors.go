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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidScope indicates document metadata violates the scoping
	// invariants for its level.
	ErrInvalidScope = errors.New("invalid scope metadata")

	// ErrEmptyContent indicates the content to ingest is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidLevel indicates an invalid Level value.
	ErrInvalidLevel = errors.New("invalid level")

	// ErrInvalidClassification indicates an invalid Classification value.
	ErrInvalidClassification = errors.New("invalid classification")

	// ErrInvalidStatus indicates an invalid Status value.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidSourceType indicates an invalid SourceType value.
	ErrInvalidSourceType = errors.New("invalid source type")

	// ErrInvalidTransition indicates a status transition that is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDimensionMismatch indicates an embedding whose dimensionality does
	// not match the platform-wide configuration.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingFailure indicates the embedding provider failed for a
	// chunk even after retries; the whole ingestion is rolled back.
	ErrEmbeddingFailure = errors.New("embedding failed after retries")

	// ErrProviderUnavailable indicates the embedding provider could not be
	// reached.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrRateLimited indicates the embedding provider rejected the request
	// due to rate limiting.
	ErrRateLimited = errors.New("embedding provider rate limited")
)
