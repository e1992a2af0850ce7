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

// Package global is the optional GlobalCommitCoordinator layer: a
// Sequencer that hands out one process-wide, strictly-ordered sequence
// number per multi-partition transaction, and a Coordinator that runs
// that transaction's two-phase commit across the partitions it
// touched.
package global

import (
	"context"
	"sync/atomic"

	"github.com/B1NARY-GR0UP/omid/pkg/watermark"
)

// Sequencer assigns the total order multi-partition commits are
// linearized by. The order itself is just a monotonic counter; what
// the teacher's pkg/watermark.WaterMark contributes is tracking which
// sequence numbers have *finished* when several can be in flight and
// finish out of order, reused here unmodified for exactly that job.
// Coordinator.Commit uses WaitUntil to hold a later-sequenced
// transaction's finalize step back until every earlier-sequenced one
// has finished, so two multi-partition commits never complete out of
// the order Begin assigned them. Only the unit the watermark tracks
// changes, from the teacher's read/commit timestamps to a
// coordinator's sequence numbers.
type Sequencer struct {
	next uint64
	wm   *watermark.WaterMark
}

func NewSequencer() *Sequencer {
	return &Sequencer{wm: watermark.New()}
}

func (s *Sequencer) Stop() {
	s.wm.Stop()
}

// Begin allocates the next sequence number and marks it in flight.
func (s *Sequencer) Begin() uint64 {
	seq := atomic.AddUint64(&s.next, 1)
	s.wm.Begin(seq)
	return seq
}

// Done marks sequence seq finished, advancing DoneUntil once every
// sequence below it has also finished.
func (s *Sequencer) Done(seq uint64) {
	s.wm.Done(seq)
}

// DoneUntil returns the highest sequence number at or below which every
// transaction has finished, the total order's completion frontier.
func (s *Sequencer) DoneUntil() uint64 {
	return s.wm.DoneUntil()
}

// WaitUntil blocks until every sequence number at or below seq has
// finished, or ctx is done first.
func (s *Sequencer) WaitUntil(ctx context.Context, seq uint64) error {
	return s.wm.WaitForMark(ctx, seq)
}
