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
	"sync"

	"github.com/B1NARY-GR0UP/omid/types"
)

// Oracle hands out a strictly increasing sequence of timestamps. It
// pre-allocates batches of counter space through Storage on a background
// goroutine so the hot path, Next, is a local increment plus a
// comparison, never touching Storage itself.
//
// Three scalars drive it: last (handed out), max (current ceiling),
// maxAllocated (latest ceiling durably stored). Next only
// blocks when last has caught up to max and the allocator hasn't
// finished extending maxAllocated yet; that wait is expected to be rare
// given the 1,000,000-timestamp threshold.
type Oracle struct {
	mu   sync.Mutex
	cond *sync.Cond

	last uint64
	max  uint64

	// maxAllocated is the single word the allocator goroutine writes and
	// Next's waiters read; cond protects it the same as last/max since
	// all three live under mu.
	maxAllocated uint64

	storage  Storage
	panicker Panicker
	config   Config

	allocateC chan struct{}
	stopC     chan struct{}
	stopped   chan struct{}
}

// New creates an Oracle recovering from storage's durable value: last =
// max = maxAllocated = storage.Read(), so the very first Next() triggers
// an allocation and hands out storage-value + 1, so new handouts can
// never collide with anything issued before a crash.
func New(storage Storage, panicker Panicker, config Config) (*Oracle, error) {
	config.validate()

	start, err := storage.Read()
	if err != nil {
		return nil, err
	}

	o := &Oracle{
		last:         start,
		max:          start,
		maxAllocated: start,
		storage:      storage,
		panicker:     panicker,
		config:       config,
		allocateC:    make(chan struct{}, 1),
		stopC:        make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	o.cond = sync.NewCond(&o.mu)

	go o.allocateLoop()
	return o, nil
}

// Stop shuts down the background allocator. Safe to call once.
func (o *Oracle) Stop() {
	close(o.stopC)
	<-o.stopped
}

// Next returns the next timestamp, strictly greater than every
// previously returned value, including across process restarts.
func (o *Oracle) Next() types.Timestamp {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.last == o.max {
		o.requestAllocation()
		for o.maxAllocated == o.max {
			o.cond.Wait()
		}
		o.max = o.maxAllocated
	} else if o.max-o.last <= o.config.Threshold {
		o.requestAllocation()
	}

	o.last++
	return types.Timestamp(o.last)
}

// Last returns the most recently handed-out timestamp without issuing a
// new one.
func (o *Oracle) Last() types.Timestamp {
	o.mu.Lock()
	defer o.mu.Unlock()
	return types.Timestamp(o.last)
}

// requestAllocation wakes the allocator goroutine without blocking the
// caller, who already holds mu. The channel is buffered 1 so a pending
// request already queued is not duplicated.
func (o *Oracle) requestAllocation() {
	select {
	case o.allocateC <- struct{}{}:
	default:
	}
}

// allocateLoop is the sole writer of maxAllocated. It runs off the hot
// path on its own goroutine, so a slow durable write never blocks
// Next() callers unless they have actually exhausted the current batch.
func (o *Oracle) allocateLoop() {
	defer close(o.stopped)
	for {
		select {
		case <-o.stopC:
			return
		case <-o.allocateC:
			o.allocateBatch()
		}
	}
}

func (o *Oracle) allocateBatch() {
	o.mu.Lock()
	prev := o.maxAllocated
	next := prev + o.config.Batch
	o.mu.Unlock()

	if err := o.storage.CompareAndUpdate(prev, next); err != nil {
		// Durability of the counter cannot be guaranteed: crash rather
		// than risk handing out a timestamp that a restart could reuse.
		o.panicker.Panicf("oracle: fatal storage failure advancing counter %d -> %d: %v", prev, next, err)
		return
	}

	o.mu.Lock()
	o.maxAllocated = next
	o.mu.Unlock()
	o.cond.Broadcast()
}
