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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashRowFamilyStableAndDistinct(t *testing.T) {
	a := HashRowFamily("t1", []byte("row1"), "cf")
	b := HashRowFamily("t1", []byte("row1"), "cf")
	assert.Equal(t, a, b)

	c := HashRowFamily("t1", []byte("row2"), "cf")
	assert.NotEqual(t, a, c)

	d := HashRowFamily("t1", []byte("row1"), "cf2")
	assert.NotEqual(t, a, d)
}

func TestRowKeyFamilyFingerprintMatchesFamily(t *testing.T) {
	w := RowKeyFamily{
		Table:      "t1",
		Row:        []byte("row1"),
		Family:     "cf",
		Qualifiers: []string{"q1", "q2"},
		Values:     [][]byte{[]byte("v1"), []byte("v2")},
	}
	assert.Equal(t, HashRowFamily("t1", []byte("row1"), "cf"), w.Fingerprint())
}

func TestKeyRangeContains(t *testing.T) {
	r := KeyRange{Lower: []byte("a"), Upper: []byte("m")}
	assert.True(t, r.Contains([]byte("a")))
	assert.True(t, r.Contains([]byte("g")))
	assert.False(t, r.Contains([]byte("m")))
	assert.False(t, r.Contains([]byte("0")))

	unbounded := KeyRange{Lower: []byte("a")}
	assert.True(t, unbounded.Contains([]byte("zzz")))
}

func TestVersionedKeyOrdersNewestFirst(t *testing.T) {
	k10 := VersionedKey("t1", []byte("r"), "cf", "q", 10)
	k20 := VersionedKey("t1", []byte("r"), "cf", "q", 20)
	// newest version sorts first (smaller string) within the same cell
	assert.Less(t, k20, k10)

	prefix := CellKey("t1", []byte("r"), "cf", "q")
	assert.Equal(t, prefix, k10[:len(prefix)])
	assert.Equal(t, prefix, k20[:len(prefix)])
}

func TestAbortReasonString(t *testing.T) {
	assert.Equal(t, "conflict", AbortConflict.String())
	assert.Equal(t, "too_old", AbortTooOld.String())
	assert.Equal(t, "durability_failure", AbortDurability.String())
	assert.Equal(t, "none", AbortNone.String())
}
