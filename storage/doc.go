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


// Package storage provides the storage abstraction layer for stratum.
//
// This package defines repository interfaces that decouple storage
// implementation from retrieval and ingestion logic. It allows different
// storage backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	store, err := badger.NewStore(path)  // returns storage interfaces
//
// Internal package constructors may return concrete types since they're
// only used within the implementation package.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DocumentRepository: document lifecycle, atomic document+chunk writes,
//     cascading deletes, admin listing
//   - ChunkRepository: chunk reads, meta annotation edits, and the scoped
//     vector similarity search level retrieval is built on
//
// Ownership is strictly one-directional: a Document owns its Chunks, chunks
// are stored keyed by (documentID, ord), and deleting a document cascades
// to every chunk it owns. Documents never hold in-memory pointers to their
// chunks.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines. Retrieval only ever reads;
// ingestion serializes writes per document above this layer.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and
// timeout support.
package storage
