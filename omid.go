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

// Package omid wires the oracle, cache, decider, commit table, store,
// and client packages into one running system. A Runtime is the single
// explicit value that owns every partition's background goroutines
// (the decider's run loop, the oracle's allocator); nothing here is a
// package-level variable, the one exception being logging, which stays
// ambient per the teacher's own pkg/logger convention.
package omid

import (
	"github.com/B1NARY-GR0UP/omid/cache"
	"github.com/B1NARY-GR0UP/omid/client"
	"github.com/B1NARY-GR0UP/omid/committable"
	"github.com/B1NARY-GR0UP/omid/decider"
	"github.com/B1NARY-GR0UP/omid/global"
	"github.com/B1NARY-GR0UP/omid/oracle"
	"github.com/B1NARY-GR0UP/omid/pkg/logger"
	"github.com/B1NARY-GR0UP/omid/store"
)

// PartitionConfig configures one partition's collaborators. Every
// sub-config has its own zero-value defaults (oracle.Config,
// cache.Config, decider.Config), so a caller only needs to set what it
// wants to override.
type PartitionConfig struct {
	Name          string
	OracleStorage oracle.Storage
	CommitTable   committable.Table
	OracleConfig  oracle.Config
	CacheConfig   cache.Config
	DeciderConfig decider.Config
}

// Runtime owns every partition's live collaborators plus the client
// manager, and, when more than one partition is configured, the
// global coordinator for multi-partition transactions.
type Runtime struct {
	Manager     *client.Manager
	Partitions  []*client.Partition
	Coordinator *global.Coordinator

	sequencer *global.Sequencer
}

// New constructs and starts a Runtime: one oracle and one decider
// goroutine per partition, plus a sequencer and coordinator if there
// is more than one partition.
func New(configs []PartitionConfig) (*Runtime, error) {
	partitions := make([]*client.Partition, len(configs))
	for i, c := range configs {
		o, err := oracle.New(c.OracleStorage, logger.GetLogger(), c.OracleConfig)
		if err != nil {
			for _, started := range partitions[:i] {
				started.Oracle.Stop()
				started.Decider.Stop()
			}
			return nil, err
		}
		d := decider.New(cache.New(c.CacheConfig), o, c.CommitTable, c.DeciderConfig)
		partitions[i] = &client.Partition{
			Name:    c.Name,
			Oracle:  o,
			Decider: d,
			Table:   c.CommitTable,
			Store:   store.NewMemoryStore(),
		}
	}

	rt := &Runtime{
		Manager:    client.NewManager(partitions),
		Partitions: partitions,
	}
	if len(partitions) > 1 {
		rt.sequencer = global.NewSequencer()
		rt.Coordinator = global.NewCoordinator(rt.sequencer)
	}
	return rt, nil
}

// Stop shuts down every partition's background goroutines and, if
// one was constructed, the sequencer's.
func (rt *Runtime) Stop() {
	for _, p := range rt.Partitions {
		p.Decider.Stop()
		p.Oracle.Stop()
	}
	if rt.sequencer != nil {
		rt.sequencer.Stop()
	}
}
