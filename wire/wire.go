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

// Package wire holds the logical request/response messages a remote
// TSO, decider, or global coordinator would exchange with a client, as
// plain Go structs. Only 64-bit fingerprints cross this boundary: full
// row bytes never reach the TSO.
package wire

import "github.com/B1NARY-GR0UP/omid/types"

// TimestampRequest asks a partition's oracle for one timestamp.
// Sequence is set only for a multi-partition transaction's Begin step,
// letting the receiving partition associate its answer with the
// coordinator's sequence number.
type TimestampRequest struct {
	ClientID string
	Sequence uint64 // 0 means "not part of a global transaction"
}

type TimestampResponse struct {
	Ts types.Timestamp
}

// CommitRequest is a single-partition commit attempt.
type CommitRequest struct {
	StartTs types.Timestamp
	Writes  []types.Fingerprint
	Reads   []types.Fingerprint
}

type CommitResponse struct {
	Committed    bool
	CommitTs     types.Timestamp
	Elder        bool
	ConflictRows []types.Fingerprint
	AbortReason  types.AbortReason
}

// PrepareCommit is one partition's role in a multi-partition two-phase
// commit: the usual read/write fingerprints plus the full timestamp
// vector the coordinator assigned at Begin, so the partition can
// validate it was handed the vts entry meant for it.
type PrepareCommit struct {
	StartTs types.Timestamp
	Writes  []types.Fingerprint
	Reads   []types.Fingerprint
	Vts     []types.Timestamp
}

type PrepareResponse struct {
	Committed bool
}

// MultiCommitRequest carries the sequencer-ordered commit vector; the
// coordinator sends it once every partition has answered PrepareCommit.
// Commit is false when any partition's prepare failed, instructing
// every partition to abort instead of finalizing.
type MultiCommitRequest struct {
	Vts    []types.Timestamp
	Commit bool
}

// CompleteAbort and CompleteReincarnation are idempotent bookkeeping
// messages a client resends freely after a timeout without risking a
// double cleanup or a double rewrite.
type CompleteAbort struct {
	StartTs types.Timestamp
}

type CompleteReincarnation struct {
	StartTs  types.Timestamp
	CommitTs types.Timestamp
}
