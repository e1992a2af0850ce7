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

import "github.com/spaolacci/murmur3"

// HashRowFamily computes the 64-bit fingerprint of a (table, row,
// family) triple. Deliberately narrow: two distinct rows can hash to
// the same fingerprint, which costs the colliding transactions a
// spurious abort but never an incorrect commit.
func HashRowFamily(table string, row []byte, family string) Fingerprint {
	h := murmur3.New64()
	_, _ = h.Write([]byte(table))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(row)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(family))
	return Fingerprint(h.Sum64())
}
