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

// Package store defines the external collaborator the client library
// writes speculative versions into and reads committed ones from. The
// store's own wire protocol and on-disk persistence are out of scope
// (they belong to the underlying multi-versioned wide-column store this
// system layers on top of); this package only defines the interface the
// client needs plus an in-memory reference implementation good enough
// to exercise it in tests.
package store

import "github.com/B1NARY-GR0UP/omid/types"

// ShadowResolver looks up the real commit timestamp for a start
// timestamp, consulting the commit table, when a cell's shadow
// annotation is missing or not yet written. It returns ok=false when
// start is unresolved (unknown) or aborted.
type ShadowResolver func(start types.Timestamp) (commit types.Timestamp, ok bool)

// Store is the versioned cell store the client transacts against.
type Store interface {
	// WriteSpeculative stages rkf's values as an unresolved version at
	// startTs: visible to nobody until WriteShadowCell resolves it or a
	// reader's resolver finds startTs in the commit table.
	WriteSpeculative(rkf types.RowKeyFamily, startTs types.Timestamp) error

	// WriteShadowCell resolves every qualifier rkf wrote at startTs to
	// commitTs, making the version visible to readers with readTs >=
	// commitTs. This is the shadow-cell pattern: the commit timestamp is
	// annotated directly on the version instead of requiring every
	// reader to consult the commit table.
	WriteShadowCell(rkf types.RowKeyFamily, startTs, commitTs types.Timestamp) error

	// ReincarnateSpeculative rewrites rkf's speculative version at
	// startTs into a fresh version keyed at and resolved to commitTs,
	// used when the
	// decider reports Elder: a version whose ordering relative to the
	// low watermark could not be established locally gets linearized by
	// republishing it at its true commit position.
	ReincarnateSpeculative(rkf types.RowKeyFamily, startTs, commitTs types.Timestamp) error

	// CleanupSpeculative deletes rkf's staged version at startTs,
	// called after an abort so readers never see it.
	CleanupSpeculative(rkf types.RowKeyFamily, startTs types.Timestamp) error

	// Get returns the newest version of (table, row, family, qualifier)
	// visible at readTs: the version with the largest commit timestamp
	// <= readTs. Versions whose shadow cell is still unresolved are
	// resolved via resolve; resolve returning ok=false means the
	// version is aborted or unknown and must be treated as invisible.
	Get(table string, row []byte, family, qualifier string, readTs types.Timestamp, resolve ShadowResolver) ([]byte, bool, error)
}
