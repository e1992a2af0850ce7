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

package oracle

import (
	"path/filepath"
	"testing"

	"github.com/B1NARY-GR0UP/omid/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{Batch: 10, Threshold: 2}
}

// TestNextStrictlyMonotonic is P1: for a, b := next(), next() in program
// order, b > a, holds for many consecutive calls including across a
// batch boundary.
func TestNextStrictlyMonotonic(t *testing.T) {
	o, err := New(NewMemoryStorage(), logger.GetLogger(), testConfig())
	require.NoError(t, err)
	defer o.Stop()

	var prev uint64
	for i := 0; i < 1000; i++ {
		ts := o.Next()
		assert.Greater(t, uint64(ts), prev)
		prev = uint64(ts)
	}
}

func TestLastReflectsMostRecentNext(t *testing.T) {
	o, err := New(NewMemoryStorage(), logger.GetLogger(), testConfig())
	require.NoError(t, err)
	defer o.Stop()

	assert.Equal(t, uint64(0), uint64(o.Last()))
	ts := o.Next()
	assert.Equal(t, ts, o.Last())
}

// TestNoReuseAfterCrash is P2: after a simulated crash-restart (a fresh
// Oracle over the same durable storage), the first next() exceeds any
// value produced before the "crash".
func TestNoReuseAfterCrash(t *testing.T) {
	dir := t.TempDir()
	storage, err := OpenFileStorage(filepath.Join(dir, "counter"))
	require.NoError(t, err)

	o1, err := New(storage, logger.GetLogger(), testConfig())
	require.NoError(t, err)

	var maxBeforeCrash uint64
	for i := 0; i < 25; i++ {
		ts := o1.Next()
		if uint64(ts) > maxBeforeCrash {
			maxBeforeCrash = uint64(ts)
		}
	}
	o1.Stop()
	require.NoError(t, storage.Close())

	// "restart": reopen storage and build a fresh Oracle over it.
	storage2, err := OpenFileStorage(filepath.Join(dir, "counter"))
	require.NoError(t, err)
	defer storage2.Close()

	o2, err := New(storage2, logger.GetLogger(), testConfig())
	require.NoError(t, err)
	defer o2.Stop()

	first := o2.Next()
	assert.Greater(t, uint64(first), maxBeforeCrash)
}

func TestMonotonicAcrossManyBatches(t *testing.T) {
	o, err := New(NewMemoryStorage(), logger.GetLogger(), Config{Batch: 4, Threshold: 1})
	require.NoError(t, err)
	defer o.Stop()

	seen := make(map[uint64]bool)
	var prev uint64
	for i := 0; i < 500; i++ {
		ts := uint64(o.Next())
		assert.False(t, seen[ts], "timestamp %d reused", ts)
		seen[ts] = true
		assert.Greater(t, ts, prev)
		prev = ts
	}
}
