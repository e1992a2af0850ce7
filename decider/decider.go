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

// Package decider is the single serialization point for commit
// decisions: one goroutine drains a channel of requests, consults the
// conflict cache and the timestamp oracle, and publishes to the commit
// table. Every mutation to the cache and to the low watermark happens
// on that one goroutine, the same discipline the teacher's DB.run()
// select-loop uses to let a single goroutine own all mutable state
// without locks on the hot path.
package decider

import (
	"fmt"
	"sync/atomic"

	"github.com/B1NARY-GR0UP/omid/cache"
	"github.com/B1NARY-GR0UP/omid/committable"
	"github.com/B1NARY-GR0UP/omid/oracle"
	"github.com/B1NARY-GR0UP/omid/types"
)

// Request is one transaction's commit attempt: the fingerprints of
// every row it read or wrote, keyed by the start timestamp it ran
// under. Duplicate fingerprints within Reads or Writes are tolerated.
type Request struct {
	StartTs types.Timestamp
	Writes  []types.Fingerprint
	Reads   []types.Fingerprint
}

type job struct {
	task  func() types.CommitResult
	reply chan types.CommitResult
}

// Config sizes the decider's request queue.
type Config struct {
	QueueDepth int
}

var DefaultConfig = Config{QueueDepth: 1024}

func (c *Config) validate() {
	if c.QueueDepth <= 0 {
		c.QueueDepth = DefaultConfig.QueueDepth
	}
}

// Decider is the commit decider. Every field below is touched only by
// the run loop goroutine once started; Submit only ever writes to the
// jobs channel.
type Decider struct {
	cache  *cache.Cache
	oracle *oracle.Oracle
	table  committable.Table

	// lowWatermark is written only by run's goroutine but read from
	// arbitrary callers via LowWatermark, so it is an atomic rather than
	// a plain field.
	lowWatermark atomic.Uint64

	jobs    chan *job
	stopC   chan struct{}
	stopped chan struct{}
}

func New(c *cache.Cache, o *oracle.Oracle, table committable.Table, config Config) *Decider {
	config.validate()
	d := &Decider{
		cache:   c,
		oracle:  o,
		table:   table,
		jobs:    make(chan *job, config.QueueDepth),
		stopC:   make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Decider) Stop() {
	close(d.stopC)
	<-d.stopped
}

func (d *Decider) run() {
	defer close(d.stopped)
	for {
		select {
		case <-d.stopC:
			return
		case j := <-d.jobs:
			j.reply <- j.task()
		}
	}
}

// submitTask hands a closure to the run loop and blocks until it
// replies. Submit, Prepare, and Finalize are all thin wrappers around
// this, so admission, preparation, and finalization for a multi-
// partition commit all serialize through the same single goroutine.
func (d *Decider) submitTask(task func() types.CommitResult) types.CommitResult {
	j := &job{task: task, reply: make(chan types.CommitResult, 1)}
	d.jobs <- j
	return <-j.reply
}

// Submit hands a commit request to the decider and blocks until it is
// decided. Commit requests carry no cancellation: the decider always
// answers, so Submit never returns an error of its own.
func (d *Decider) Submit(req Request) types.CommitResult {
	return d.submitTask(func() types.CommitResult { return d.decide(req) })
}

// admit runs step 1 of the commit-decider algorithm: the conflict-cache
// admission test. Reads are held to the strict rule: absent from the
// cache and the low watermark has already passed this transaction's
// start means the row's history is unrecoverable, so abort. Writes get
// one exemption: a write whose fingerprint is absent *because the low
// watermark already passed it* is not aborted, since this transaction
// is about to publish a fresh value for that row anyway. It is instead
// flagged elder, and the row is returned for the client to reincarnate:
// its cache slot was evicted before this transaction got a chance to
// be admitted normally, so its previous write needs rewriting at the
// new commit timestamp rather than being treated as a conflict.
func (d *Decider) admit(req Request) (ok bool, elder bool, conflictRows []types.Fingerprint, reason types.AbortReason) {
	for _, f := range req.Reads {
		ts := d.cache.Get(f)
		if ts > req.StartTs {
			return false, false, nil, types.AbortConflict
		}
		if ts == types.NoTimestamp && types.Timestamp(d.lowWatermark.Load()) > req.StartTs {
			return false, false, nil, types.AbortTooOld
		}
	}

	for _, f := range req.Writes {
		ts := d.cache.Get(f)
		if ts > req.StartTs {
			return false, false, nil, types.AbortConflict
		}
		if ts == types.NoTimestamp && types.Timestamp(d.lowWatermark.Load()) > req.StartTs {
			elder = true
			conflictRows = append(conflictRows, f)
		}
	}
	return true, elder, conflictRows, types.AbortNone
}

// publish runs step 4: install writes at commitTs and advance the low
// watermark past anything the insertion evicts.
func (d *Decider) publish(writes []types.Fingerprint, commitTs types.Timestamp) {
	for _, f := range writes {
		evicted := d.cache.Set(f, commitTs)
		if uint64(evicted) > d.lowWatermark.Load() {
			d.lowWatermark.Store(uint64(evicted))
		}
	}
}

// decide runs the five commit-decider steps. It never leaves partial
// state: either the commit-table write succeeds and the cache is
// updated, or nothing in shared state changes and Aborted is returned.
func (d *Decider) decide(req Request) types.CommitResult {
	ok, elder, conflictRows, reason := d.admit(req)
	if !ok {
		return aborted(reason)
	}

	// Step 2: allocate the commit timestamp.
	commitTs := d.oracle.Next()

	// Step 3: publish to the commit table. Failure here aborts the
	// transaction without touching the cache or the low watermark: a
	// durability failure is fatal to the transaction, not to the process.
	if err := d.table.Put(req.StartTs, commitTs); err != nil {
		return aborted(types.AbortDurability)
	}

	d.publish(req.Writes, commitTs)

	return types.CommitResult{
		Committed:    true,
		CommitTs:     commitTs,
		Elder:        elder,
		ConflictRows: conflictRows,
	}
}

// Prepare runs steps 1-2 only, for a partition's role in a multi-
// partition commit: it checks admission and allocates a candidate
// commit timestamp, but writes nothing. Committed on the returned
// value means "prepared ok", not "committed"; package global treats it
// that way when it calls Finalize. Prepare holds no lock on the
// admitted fingerprints, so a conflicting local Submit can still be
// admitted before Finalize runs, same as any non-isolated two-phase
// handshake without a lock manager (see DESIGN.md).
func (d *Decider) Prepare(req Request) types.CommitResult {
	return d.submitTask(func() types.CommitResult {
		ok, elder, conflictRows, reason := d.admit(req)
		if !ok {
			return aborted(reason)
		}
		return types.CommitResult{
			Committed:    true,
			CommitTs:     d.oracle.Next(),
			Elder:        elder,
			ConflictRows: conflictRows,
		}
	})
}

// Finalize runs steps 3-4 using the commit timestamp a prior Prepare
// already allocated, once the sequencer has ordered every partition's
// prepare. When commit is false, the coordinator is aborting the whole
// transaction because some other partition's prepare failed, so
// Finalize writes nothing: Prepare never mutated shared state, so
// there is nothing to undo.
func (d *Decider) Finalize(req Request, prepared types.CommitResult, commit bool) types.CommitResult {
	if !prepared.Committed {
		return aborted(prepared.AbortReason)
	}
	if !commit {
		return aborted(types.AbortConflict)
	}
	return d.submitTask(func() types.CommitResult {
		if err := d.table.Put(req.StartTs, prepared.CommitTs); err != nil {
			return aborted(types.AbortDurability)
		}
		d.publish(req.Writes, prepared.CommitTs)
		return types.CommitResult{
			Committed:    true,
			CommitTs:     prepared.CommitTs,
			Elder:        prepared.Elder,
			ConflictRows: prepared.ConflictRows,
		}
	})
}

// LowWatermark returns the decider's current low watermark. Safe for
// concurrent use: it is only ever written by the run loop's own
// goroutine, via an atomic store.
func (d *Decider) LowWatermark() types.Timestamp {
	return types.Timestamp(d.lowWatermark.Load())
}

// CheckpointLowWatermark publishes the current low watermark to table,
// so it can garbage-collect commit-table entries and, transitively, the
// store can garbage-collect old versions driven by this watermark.
func (d *Decider) CheckpointLowWatermark() error {
	return d.table.LowWatermarkCheckpoint(d.LowWatermark())
}

func aborted(reason types.AbortReason) types.CommitResult {
	return types.CommitResult{AbortReason: reason}
}

// String renders a CommitRequest for logging, matching the teacher's
// habit of giving request/response structs a compact String method for
// its FLogger call sites.
func (r Request) String() string {
	return fmt.Sprintf("Request{start=%d, writes=%d, reads=%d}", r.StartTs, len(r.Writes), len(r.Reads))
}
