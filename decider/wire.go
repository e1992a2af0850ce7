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

package decider

import (
	"github.com/B1NARY-GR0UP/omid/types"
	"github.com/B1NARY-GR0UP/omid/wire"
)

// FromWire builds a Request out of the logical CommitRequest message
// package wire defines for the wire protocol.
func FromWire(msg wire.CommitRequest) Request {
	return Request{StartTs: msg.StartTs, Writes: msg.Writes, Reads: msg.Reads}
}

// Wire renders req as the logical CommitRequest message.
func (r Request) Wire() wire.CommitRequest {
	return wire.CommitRequest{StartTs: r.StartTs, Writes: r.Writes, Reads: r.Reads}
}

// ResultToWire renders a CommitResult as the logical CommitResponse
// message.
func ResultToWire(result types.CommitResult) wire.CommitResponse {
	return wire.CommitResponse{
		Committed:    result.Committed,
		CommitTs:     result.CommitTs,
		Elder:        result.Elder,
		ConflictRows: result.ConflictRows,
		AbortReason:  result.AbortReason,
	}
}
