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
	"testing"

	"github.com/B1NARY-GR0UP/omid/types"
	"github.com/B1NARY-GR0UP/omid/wire"
	"github.com/stretchr/testify/assert"
)

func TestRequestWireRoundTrip(t *testing.T) {
	req := Request{StartTs: 7, Writes: []types.Fingerprint{1, 2}, Reads: []types.Fingerprint{3}}
	msg := req.Wire()
	assert.Equal(t, wire.CommitRequest{StartTs: 7, Writes: []types.Fingerprint{1, 2}, Reads: []types.Fingerprint{3}}, msg)
	assert.Equal(t, req, FromWire(msg))
}

func TestResultToWire(t *testing.T) {
	result := types.CommitResult{Committed: true, CommitTs: 9, Elder: true, ConflictRows: []types.Fingerprint{1}}
	msg := ResultToWire(result)
	assert.True(t, msg.Committed)
	assert.Equal(t, types.Timestamp(9), msg.CommitTs)
	assert.True(t, msg.Elder)
	assert.Equal(t, []types.Fingerprint{1}, msg.ConflictRows)
}
