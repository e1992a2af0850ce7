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

// Config tunes timestamp batch allocation.
type Config struct {
	// Batch is how many timestamps the allocator durably reserves in
	// one storage.CompareAndUpdate call.
	Batch uint64
	// Threshold is the remaining headroom (max - last) that triggers
	// the next batch allocation.
	Threshold uint64
}

var DefaultConfig = Config{
	Batch:     10_000_000,
	Threshold: 1_000_000,
}

func (c *Config) validate() {
	if c.Batch == 0 {
		c.Batch = DefaultConfig.Batch
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultConfig.Threshold
	}
	if c.Threshold >= c.Batch {
		c.Threshold = c.Batch / 10
	}
}
