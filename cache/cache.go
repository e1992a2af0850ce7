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

// Package cache implements the fixed-memory, set-associative conflict
// cache: a map from row fingerprint to the latest commit timestamp that
// wrote it, used by package decider to admit or reject commits in
// O(writes) without ever scanning history.
//
// It is accessed only from the single-threaded decider, so Cache does
// no locking of its own. Concurrent use is the caller's problem,
// deliberately, the same way the teacher's oracle fields are only ever
// touched under the decider-equivalent goroutine in this module.
package cache

import "github.com/B1NARY-GR0UP/omid/types"

// Config sizes the cache: Sets sets of Ways ways each.
type Config struct {
	Sets int
	Ways int
}

var DefaultConfig = Config{
	Sets: 1 << 16,
	Ways: 8,
}

func (c *Config) validate() {
	if c.Sets <= 0 {
		c.Sets = DefaultConfig.Sets
	}
	if c.Ways <= 0 {
		c.Ways = DefaultConfig.Ways
	}
}

// Cache is a set-associative table of Sets sets and Ways ways. The
// backing array is a single flat []uint64 of length 2*(Sets*Ways),
// storing (fingerprint, commitTs) pairs back to back so each way-group
// is contiguous and requires no modular wraparound to read, the same
// flat-backing-array discipline the teacher's pkg/skiplist and
// pkg/filter structures use instead of a slice of pointers.
type Cache struct {
	sets int
	ways int
	data []uint64 // [set*ways*2 + way*2 + 0]=fingerprint, +1=commitTs
}

func New(config Config) *Cache {
	config.validate()
	return &Cache{
		sets: config.Sets,
		ways: config.Ways,
		data: make([]uint64, 2*config.Sets*config.Ways),
	}
}

func (c *Cache) slot(set, way int) (fp, ts int) {
	base := (set*c.ways + way) * 2
	return base, base + 1
}

// Get returns the stored commit timestamp for fingerprint, or 0 if
// absent.
func (c *Cache) Get(fp types.Fingerprint) types.Timestamp {
	set := int(uint64(fp) % uint64(c.sets))
	for way := 0; way < c.ways; way++ {
		fpIdx, tsIdx := c.slot(set, way)
		if c.data[tsIdx] != 0 && c.data[fpIdx] == uint64(fp) {
			return types.Timestamp(c.data[tsIdx])
		}
	}
	return types.NoTimestamp
}

// Set inserts fp -> commitTs. If fp already occupies a way in its set,
// that way's value is overwritten and Set returns 0 (no eviction). Else
// the way holding the smallest commitTs is evicted (LRU-by-commit-ts,
// valid because commit-ts is monotonically increasing) and that way's
// previous commitTs is returned.
func (c *Cache) Set(fp types.Fingerprint, commitTs types.Timestamp) types.Timestamp {
	set := int(uint64(fp) % uint64(c.sets))

	victim := 0
	var victimTs uint64 = ^uint64(0)
	for way := 0; way < c.ways; way++ {
		fpIdx, tsIdx := c.slot(set, way)
		if c.data[tsIdx] != 0 && c.data[fpIdx] == uint64(fp) {
			c.data[tsIdx] = uint64(commitTs)
			return types.NoTimestamp
		}
		if c.data[tsIdx] < victimTs {
			victimTs = c.data[tsIdx]
			victim = way
		}
	}

	fpIdx, tsIdx := c.slot(set, victim)
	evicted := c.data[tsIdx]
	c.data[fpIdx] = uint64(fp)
	c.data[tsIdx] = uint64(commitTs)
	return types.Timestamp(evicted)
}
