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


package retrieval

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/stratumkb/stratum/core"
)

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrLevelSearcherRequired is returned when a level searcher is not provided.
	ErrLevelSearcherRequired = errors.New("level searcher required")

	// ErrProviderRequired is returned when an AI provider is not provided.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrCoordinatorRequired is returned when a coordinator is not provided.
	ErrCoordinatorRequired = errors.New("coordinator required")

	// ErrEmptyQuery is returned when a retrieve call carries no query text.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrPartialRetrieval is returned in strict mode when one or more level
	// queries failed. Match with errors.Is; the concrete error is a
	// *PartialError carrying the failed levels.
	ErrPartialRetrieval = errors.New("partial retrieval")

	// ErrNoSamples is returned by a drift check when no query samples have
	// been recorded yet.
	ErrNoSamples = errors.New("no query samples recorded")
)

// PartialError reports the levels whose queries failed during a strict
// retrieve call. It matches ErrPartialRetrieval via errors.Is.
type PartialError struct {
	Failed map[core.Level]error
}

func (e *PartialError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for level := range e.Failed {
		names = append(names, level.String())
	}
	slices.Sort(names)
	return fmt.Sprintf("partial retrieval: %d level queries failed (%s)",
		len(e.Failed), strings.Join(names, ", "))
}

func (e *PartialError) Is(target error) bool {
	return target == ErrPartialRetrieval
}
