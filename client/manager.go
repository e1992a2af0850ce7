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

package client

import (
	"errors"
	"sync"

	"github.com/B1NARY-GR0UP/omid/types"
)

var ErrNoPartitions = errors.New("client: manager has no partitions")

// Manager is the ClientTxnManager: it begins transactions against a
// chosen partition and tracks partition usage for the locality policy.
//
// No hidden globals: a Manager is an explicit value constructed with
// NewManager, not a package-level singleton, the one exception being
// logging, which stays ambient per the teacher's pkg/logger.
type Manager struct {
	mu         sync.Mutex
	partitions []*Partition
	usage      map[string]int

	// preferGlobal is set after a local commit fails and cleared by the
	// next PreferGlobal call. Begin does not read it: Begin always
	// starts a single-partition transaction, and the flag is only
	// reported through PreferGlobal.
	preferGlobal bool
}

func NewManager(partitions []*Partition) *Manager {
	return &Manager{
		partitions: partitions,
		usage:      make(map[string]int, len(partitions)),
	}
}

// Begin starts a transaction against the most-used partition (the
// locality policy), acquiring its start timestamp from that
// partition's oracle.
func (m *Manager) Begin() (*Txn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.partitions) == 0 {
		return nil, ErrNoPartitions
	}

	p := m.partitions[0]
	best := m.usage[p.Name]
	for _, candidate := range m.partitions[1:] {
		if u := m.usage[candidate.Name]; u > best {
			p, best = candidate, u
		}
	}
	m.usage[p.Name]++

	return &Txn{
		partition: p,
		manager:   m,
		startTs:   p.Oracle.Next(),
		readsFp:   make(map[types.Fingerprint]struct{}),
	}, nil
}

// PreferGlobal reports whether the next transaction should be routed
// through the global coordinator instead of committing locally, and
// clears the flag.
func (m *Manager) PreferGlobal() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.preferGlobal
	m.preferGlobal = false
	return v
}

func (m *Manager) noteFailedCommit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preferGlobal = true
}
