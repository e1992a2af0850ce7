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

// Package client is the single-partition ClientTxnManager: Manager
// picks a partition and hands out Txn handles; Txn stages writes,
// resolves reads against the store, and drives commit/abort through a
// partition's decider. Generalized from the teacher's txn.go, whose
// Commit/Discard/Get/Set/modify were left as // TODO stubs.
package client

import (
	"github.com/B1NARY-GR0UP/omid/committable"
	"github.com/B1NARY-GR0UP/omid/decider"
	"github.com/B1NARY-GR0UP/omid/oracle"
	"github.com/B1NARY-GR0UP/omid/store"
)

// Partition bundles the per-partition collaborators a Txn needs: the
// timestamp oracle, the commit decider, the commit table, and the
// versioned store. A single-partition deployment has exactly one;
// package global coordinates a Txn across several.
type Partition struct {
	Name    string
	Oracle  *oracle.Oracle
	Decider *decider.Decider
	Table   committable.Table
	Store   store.Store
}
