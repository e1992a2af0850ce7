// Copyright 2024 BINARY Members
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

package committable

import (
	"sync"

	"github.com/B1NARY-GR0UP/omid/types"
)

// MemoryTable is a non-durable Table for tests.
type MemoryTable struct {
	mu        sync.RWMutex
	entries   map[types.Timestamp]types.Timestamp
	aborted   map[types.Timestamp]bool
	watermark types.Timestamp
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{
		entries: make(map[types.Timestamp]types.Timestamp),
		aborted: make(map[types.Timestamp]bool),
	}
}

func (t *MemoryTable) Put(start, commit types.Timestamp) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[start] = commit
	return nil
}

func (t *MemoryTable) Get(start types.Timestamp) (types.Timestamp, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	commit, ok := t.entries[start]
	return commit, ok, nil
}

func (t *MemoryTable) Invalidate(start types.Timestamp) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aborted[start] = true
	delete(t.entries, start)
	return nil
}

func (t *MemoryTable) IsInvalidated(start types.Timestamp) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.aborted[start]
}

func (t *MemoryTable) LowWatermarkCheckpoint(watermark types.Timestamp) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if watermark > t.watermark {
		t.watermark = watermark
	}
	return nil
}
