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

// Package committable defines the durable append-only start-ts ->
// commit-ts map and two implementations: an in-memory test double and
// a file-backed log with bloom-filtered lookups.
package committable

import "github.com/B1NARY-GR0UP/omid/types"

// Table is the commit-table external collaborator.
type Table interface {
	// Put durably records start -> commit. Called once per committing
	// transaction, from the decider's single goroutine.
	Put(start, commit types.Timestamp) error
	// Get resolves start to its commit timestamp. Absence after start <
	// LowWatermarkCheckpoint() means "aborted or already garbage
	// collected".
	Get(start types.Timestamp) (commit types.Timestamp, ok bool, err error)
	// Invalidate marks start as aborted, so shadow-cell repair knows to
	// delete the transaction's speculative versions instead of treating
	// their absence as not-yet-resolved.
	Invalidate(start types.Timestamp) error
	// LowWatermarkCheckpoint publishes the decider's current low
	// watermark so the table (and, transitively, the store) can garbage
	// collect entries older than it.
	LowWatermarkCheckpoint(watermark types.Timestamp) error
}
