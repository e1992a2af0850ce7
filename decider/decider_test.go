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

package decider

import (
	"errors"
	"testing"

	"github.com/B1NARY-GR0UP/omid/cache"
	"github.com/B1NARY-GR0UP/omid/committable"
	"github.com/B1NARY-GR0UP/omid/oracle"
	"github.com/B1NARY-GR0UP/omid/pkg/logger"
	"github.com/B1NARY-GR0UP/omid/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDecider(t *testing.T) (*Decider, *cache.Cache) {
	t.Helper()
	c := cache.New(cache.Config{Sets: 4, Ways: 2})
	o, err := oracle.New(oracle.NewMemoryStorage(), logger.GetLogger(), oracle.Config{Batch: 100, Threshold: 10})
	require.NoError(t, err)
	t.Cleanup(o.Stop)
	tbl := committable.NewMemoryTable()
	d := New(c, o, tbl, Config{QueueDepth: 8})
	t.Cleanup(d.Stop)
	return d, c
}

// TestDeciderCommitsDisjointWrites is scenario 1: two transactions
// writing disjoint rows both commit.
func TestDeciderCommitsDisjointWrites(t *testing.T) {
	d, _ := newTestDecider(t)

	r1 := d.Submit(Request{StartTs: 1, Writes: []types.Fingerprint{10}})
	assert.True(t, r1.Committed)

	r2 := d.Submit(Request{StartTs: 2, Writes: []types.Fingerprint{20}})
	assert.True(t, r2.Committed)
	assert.Greater(t, uint64(r2.CommitTs), uint64(r1.CommitTs))
}

// TestDeciderAbortsWriteWriteConflict is scenario 2: two transactions
// that both started before either committed, writing the same row —
// the second to reach the decider aborts with conflict.
func TestDeciderAbortsWriteWriteConflict(t *testing.T) {
	d, _ := newTestDecider(t)

	start1 := d.oracle.Next()
	start2 := d.oracle.Next()

	r1 := d.Submit(Request{StartTs: start1, Writes: []types.Fingerprint{42}})
	require.True(t, r1.Committed)

	// a second transaction that started before r1 committed, writing the
	// same row, must lose.
	r2 := d.Submit(Request{StartTs: start2, Writes: []types.Fingerprint{42}})
	assert.False(t, r2.Committed)
	assert.Equal(t, types.AbortConflict, r2.AbortReason)
}

// TestDeciderAllowsNonConflictingOverlap: a transaction that began
// after the conflicting write's commit timestamp sees no conflict.
func TestDeciderAllowsNonConflictingOverlap(t *testing.T) {
	d, _ := newTestDecider(t)

	r1 := d.Submit(Request{StartTs: 1, Writes: []types.Fingerprint{42}})
	require.True(t, r1.Committed)

	r2 := d.Submit(Request{StartTs: r1.CommitTs + 1, Writes: []types.Fingerprint{42}})
	assert.True(t, r2.Committed)
}

// TestDeciderTooOldOnAbsentRead is P4 / scenario 4's read-side
// counterpart: once the low watermark has passed a transaction's
// start, a read of a row absent from the cache cannot be admitted.
func TestDeciderTooOldOnAbsentRead(t *testing.T) {
	d, _ := newTestDecider(t)

	// Fill one set (fingerprints 0, 4, 8, 12 all land in set 0 of 4) past
	// its associativity (ways=2) with committed writes so the low
	// watermark advances strictly past start_ts=1.
	for i := 0; i < 4; i++ {
		r := d.Submit(Request{StartTs: types.Timestamp(i + 1), Writes: []types.Fingerprint{types.Fingerprint(i * 4)}})
		require.True(t, r.Committed)
	}
	require.Greater(t, uint64(d.LowWatermark()), uint64(1))

	r := d.Submit(Request{StartTs: 1, Reads: []types.Fingerprint{999}})
	assert.False(t, r.Committed)
	assert.Equal(t, types.AbortTooOld, r.AbortReason)
}

// TestDeciderElderOnEvictedWrite is scenario 4: fill a set past
// associativity with committed entries so a row's slot is evicted and
// the low watermark advances past an in-flight write's start_ts; that
// write still commits, but comes back elder with the row flagged for
// reincarnation.
func TestDeciderElderOnEvictedWrite(t *testing.T) {
	c := cache.New(cache.Config{Sets: 1, Ways: 2})
	o, err := oracle.New(oracle.NewMemoryStorage(), logger.GetLogger(), oracle.Config{Batch: 100, Threshold: 10})
	require.NoError(t, err)
	t.Cleanup(o.Stop)
	tbl := committable.NewMemoryTable()
	d := New(c, o, tbl, Config{QueueDepth: 8})
	t.Cleanup(d.Stop)

	const row types.Fingerprint = 7

	r0 := d.Submit(Request{StartTs: 1, Writes: []types.Fingerprint{row}})
	require.True(t, r0.Committed)

	// three more commits into the same one-set, two-way cache: the
	// second fills the spare way, the third evicts row's slot, and the
	// fourth evicts again, pushing the low watermark strictly past
	// row's start_ts=1.
	r1 := d.Submit(Request{StartTs: 2, Writes: []types.Fingerprint{8}})
	require.True(t, r1.Committed)
	r2 := d.Submit(Request{StartTs: 3, Writes: []types.Fingerprint{9}})
	require.True(t, r2.Committed)
	r2b := d.Submit(Request{StartTs: 4, Writes: []types.Fingerprint{10}})
	require.True(t, r2b.Committed)

	require.Equal(t, types.NoTimestamp, c.Get(row))
	require.Greater(t, uint64(d.LowWatermark()), uint64(1))

	// row's transaction, which started at ts=1, now commits — elder.
	r3 := d.Submit(Request{StartTs: 1, Writes: []types.Fingerprint{row}})
	assert.True(t, r3.Committed)
	assert.True(t, r3.Elder)
	assert.Contains(t, r3.ConflictRows, row)
}

type failingTable struct{ committable.Table }

func (failingTable) Put(types.Timestamp, types.Timestamp) error { return errors.New("disk full") }

// TestDeciderAbortsOnDurabilityFailureWithoutCacheMutation: a
// commit-table write failure aborts the transaction and leaves the
// cache untouched.
func TestDeciderAbortsOnDurabilityFailureWithoutCacheMutation(t *testing.T) {
	c := cache.New(cache.Config{Sets: 4, Ways: 2})
	o, err := oracle.New(oracle.NewMemoryStorage(), logger.GetLogger(), oracle.Config{Batch: 100, Threshold: 10})
	require.NoError(t, err)
	t.Cleanup(o.Stop)
	d := New(c, o, failingTable{}, Config{QueueDepth: 8})
	t.Cleanup(d.Stop)

	r := d.Submit(Request{StartTs: 1, Writes: []types.Fingerprint{1}})
	assert.False(t, r.Committed)
	assert.Equal(t, types.AbortDurability, r.AbortReason)
	assert.Equal(t, types.NoTimestamp, c.Get(1))
}

// TestDeciderLowWatermarkNeverDecreases is P6.
func TestDeciderLowWatermarkNeverDecreases(t *testing.T) {
	d, _ := newTestDecider(t)
	var last types.Timestamp
	for i := 0; i < 50; i++ {
		r := d.Submit(Request{StartTs: types.Timestamp(i + 1), Writes: []types.Fingerprint{types.Fingerprint(i % 3)}})
		require.True(t, r.Committed)
		wm := d.LowWatermark()
		assert.GreaterOrEqual(t, uint64(wm), uint64(last))
		last = wm
	}
}
