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

package client

import (
	"errors"

	"github.com/B1NARY-GR0UP/omid/decider"
	"github.com/B1NARY-GR0UP/omid/types"
)

var (
	ErrReadOnlyTxn  = errors.New("client: transaction is read-only")
	ErrDiscardedTxn = errors.New("client: transaction has been discarded")
	ErrEmptyKey     = errors.New("client: row key is empty")
)

// Txn is one snapshot-isolated transaction against a single partition.
type Txn struct {
	partition *Partition
	manager   *Manager

	startTs   types.Timestamp
	discarded bool
	committed bool

	writes  []types.RowKeyFamily
	readsFp map[types.Fingerprint]struct{}
}

// StartTs returns the snapshot timestamp this transaction reads at.
func (t *Txn) StartTs() types.Timestamp { return t.startTs }

// Put stages rkf in the write-set and writes a speculative, unresolved
// version to the store at start_ts.
func (t *Txn) Put(rkf types.RowKeyFamily) error {
	if t.discarded {
		return ErrDiscardedTxn
	}
	if len(rkf.Row) == 0 {
		return ErrEmptyKey
	}

	if err := t.partition.Store.WriteSpeculative(rkf, t.startTs); err != nil {
		return err
	}
	t.writes = append(t.writes, rkf)
	return nil
}

// Get resolves (table, row, family, qualifier) as of this transaction's
// start timestamp, filtering to versions whose shadow cell says
// committed at or before start_ts, or whose (start_ts -> commit_ts) is
// found in the commit table.
func (t *Txn) Get(table string, row []byte, family, qualifier string) ([]byte, bool, error) {
	if t.discarded {
		return nil, false, ErrDiscardedTxn
	}

	t.readsFp[types.HashRowFamily(table, row, family)] = struct{}{}

	return t.partition.Store.Get(table, row, family, qualifier, t.startTs, t.resolve)
}

// resolve is the ShadowResolver passed to the store: it falls back to
// the commit table when a version's shadow cell is missing, the
// commit-table-repair half of the shadow-cell pattern.
func (t *Txn) resolve(start types.Timestamp) (types.Timestamp, bool) {
	commit, ok, err := t.partition.Table.Get(start)
	if err != nil || !ok {
		return 0, false
	}
	return commit, true
}

// Commit sends the write/read fingerprint sets to the partition's
// decider and reacts to its verdict.
func (t *Txn) Commit() (types.CommitResult, error) {
	if t.discarded {
		return types.CommitResult{}, ErrDiscardedTxn
	}
	if t.committed {
		return types.CommitResult{}, nil
	}

	// An empty, read-only transaction needs no decider round trip.
	if len(t.writes) == 0 {
		t.discarded = true
		return types.CommitResult{Committed: true, CommitTs: t.startTs}, nil
	}

	writesFp := make([]types.Fingerprint, len(t.writes))
	for i, w := range t.writes {
		writesFp[i] = w.Fingerprint()
	}
	readsFp := make([]types.Fingerprint, 0, len(t.readsFp))
	for f := range t.readsFp {
		readsFp = append(readsFp, f)
	}

	result := t.partition.Decider.Submit(decider.Request{
		StartTs: t.startTs,
		Writes:  writesFp,
		Reads:   readsFp,
	})

	if !result.Committed {
		t.cleanup()
		t.discarded = true
		t.manager.noteFailedCommit()
		return result, nil
	}

	if result.Elder {
		conflicted := make(map[types.Fingerprint]bool, len(result.ConflictRows))
		for _, f := range result.ConflictRows {
			conflicted[f] = true
		}
		for _, w := range t.writes {
			if conflicted[w.Fingerprint()] {
				if err := t.partition.Store.ReincarnateSpeculative(w, t.startTs, result.CommitTs); err != nil {
					return result, err
				}
			}
		}
	}

	for _, w := range t.writes {
		// Shadow-cell write failure is not fatal here: a later reader
		// that can't find the shadow cell repairs it via the commit
		// table.
		_ = t.partition.Store.WriteShadowCell(w, t.startTs, result.CommitTs)
	}

	t.committed = true
	t.discarded = true
	return result, nil
}

// Abort forces this transaction to fail as if the decider had aborted
// it: cleanup runs and commit_ts is treated as 0.
func (t *Txn) Abort() {
	if t.discarded {
		return
	}
	t.cleanup()
	t.discarded = true
}

// Discard abandons the transaction without committing. A transaction
// with pending writes must call Abort or Commit instead; Discard is
// for read-only transactions the caller decides not to commit.
func (t *Txn) Discard() {
	if t.discarded {
		return
	}
	if len(t.writes) > 0 {
		t.cleanup()
	}
	t.discarded = true
}

func (t *Txn) cleanup() {
	for _, w := range t.writes {
		_ = t.partition.Store.CleanupSpeculative(w, t.startTs)
	}
}
