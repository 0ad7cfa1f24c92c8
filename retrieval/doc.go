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


// Package retrieval implements scoped, hierarchy-aware retrieval.
//
// A query fans out across the hierarchy levels (entity, module, suite,
// platform) in parallel. Each level query is an independent similarity
// search with its own result budget and timeout. Hits are boosted by a
// per-level specificity bonus, merged, sorted deterministically, filtered
// by the caller's visibility, and truncated to the final result size.
//
// When a narrow level returns too few chunks the coordinator expands to
// the next broader level; cross-domain trigger terms in the query force
// the platform level in unconditionally. Level failures degrade the
// result (fail-open) unless the caller asks for strict semantics, in
// which case the request fails with ErrPartialRetrieval.
//
// Ranked results are served through a best-effort TTL cache. The
// QualityMonitor provides advisory accuracy and drift checks that run
// through the same coordinator but never block serving.
package retrieval
