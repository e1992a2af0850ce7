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

package global

import (
	"context"
	"errors"

	"github.com/B1NARY-GR0UP/omid/client"
	"github.com/B1NARY-GR0UP/omid/decider"
	"github.com/B1NARY-GR0UP/omid/types"
)

// ErrAborted is returned by Commit when any partition's prepare failed
// and the whole transaction was rolled back across every partition.
var ErrAborted = errors.New("global: transaction aborted, at least one partition's prepare failed")

// PartitionWrite is one partition's share of a multi-partition
// transaction: every row it wrote and read, already staged in that
// partition's store at the timestamp Begin assigned it.
type PartitionWrite struct {
	Partition *client.Partition
	Writes    []types.RowKeyFamily
	Reads     []types.Fingerprint
}

// Result is one partition's outcome from a Commit call.
type Result struct {
	Partition string
	types.CommitResult
}

// Coordinator runs a two-phase commit across the partitions a single
// transaction touched. Grounded on client.Txn's single-partition
// commit (the elder-reincarnation-then-shadow-cell sequence is
// identical), generalized to run that sequence once per partition only
// after every partition has agreed to commit.
type Coordinator struct {
	seq *Sequencer
}

func NewCoordinator(seq *Sequencer) *Coordinator {
	return &Coordinator{seq: seq}
}

// Begin assigns a single sequence number to a multi-partition
// transaction and requests one timestamp from every partition's own
// TSO under that sequence. vts[i] is the start timestamp the caller
// stages parts[i]'s speculative writes under, e.g. via
// Partition.Store.WriteSpeculative, before calling Commit.
func (c *Coordinator) Begin(partitions []*client.Partition) (seq uint64, vts []types.Timestamp) {
	seq = c.seq.Begin()
	vts = make([]types.Timestamp, len(partitions))
	for i, p := range partitions {
		vts[i] = p.Oracle.Next()
	}
	return seq, vts
}

// Commit prepares every partition locally (admission plus a candidate
// commit timestamp, nothing published yet), waits for every
// earlier-sequenced multi-partition commit to finish, then finalizes
// every partition. If any partition's prepare failed, every partition
// is instead finalized as aborted and has its speculative writes
// cleaned up, so all partitions reach the same decision. Waiting for
// the earlier sequence numbers first means two multi-partition commits
// can never finalize in an order different from the one Begin assigned
// them.
func (c *Coordinator) Commit(seq uint64, vts []types.Timestamp, parts []PartitionWrite) ([]Result, error) {
	defer c.seq.Done(seq)
	if len(parts) == 0 {
		return nil, nil
	}

	prepared := make([]types.CommitResult, len(parts))
	ok := true
	for i, p := range parts {
		prepared[i] = p.Partition.Decider.Prepare(decider.Request{
			StartTs: vts[i],
			Writes:  fingerprintsOf(p.Writes),
			Reads:   p.Reads,
		})
		if !prepared[i].Committed {
			ok = false
		}
	}

	if seq > 1 {
		_ = c.seq.WaitUntil(context.Background(), seq-1)
	}

	results := make([]Result, len(parts))
	for i, p := range parts {
		final := p.Partition.Decider.Finalize(decider.Request{
			StartTs: vts[i],
			Writes:  fingerprintsOf(p.Writes),
			Reads:   p.Reads,
		}, prepared[i], ok)
		results[i] = Result{Partition: p.Partition.Name, CommitResult: final}

		if !final.Committed {
			for _, w := range p.Writes {
				_ = p.Partition.Store.CleanupSpeculative(w, vts[i])
			}
			continue
		}

		if final.Elder {
			conflicted := make(map[types.Fingerprint]bool, len(final.ConflictRows))
			for _, f := range final.ConflictRows {
				conflicted[f] = true
			}
			for _, w := range p.Writes {
				if conflicted[w.Fingerprint()] {
					_ = p.Partition.Store.ReincarnateSpeculative(w, vts[i], final.CommitTs)
				}
			}
		}
		for _, w := range p.Writes {
			_ = p.Partition.Store.WriteShadowCell(w, vts[i], final.CommitTs)
		}
	}

	if !ok {
		return results, ErrAborted
	}
	return results, nil
}

func fingerprintsOf(ws []types.RowKeyFamily) []types.Fingerprint {
	fps := make([]types.Fingerprint, len(ws))
	for i, w := range ws {
		fps[i] = w.Fingerprint()
	}
	return fps
}
