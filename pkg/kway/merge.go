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

// Package kway merges already key-sorted lists into a single key-sorted
// list, keeping only the newest value for each duplicate key. It is used
// to compact sealed commit-table segments without re-sorting the whole
// history on every checkpoint.
package kway

import (
	"cmp"
	"container/heap"
	"slices"
)

// Merge merges lists, which must each already be sorted ascending by
// key(value), into one ascending, duplicate-free list. When two lists
// carry the same key, the value from the list with the higher index
// wins: callers pass segments oldest-first so the newest segment's
// record shadows older ones, mirroring how a newer memtable shadows an
// older sstable for the same key.
func Merge[T any](lists [][]T, key func(T) string) []T {
	h := &elemHeap[T]{}
	heap.Init(h)

	remaining := make([][]T, len(lists))
	copy(remaining, lists)

	for i, list := range remaining {
		if len(list) > 0 {
			heap.Push(h, element[T]{value: list[0], key: key(list[0]), LI: i})
			remaining[i] = list[1:]
		}
	}

	latest := make(map[string]T)
	var order []string

	for h.Len() > 0 {
		e := heap.Pop(h).(element[T])
		if _, seen := latest[e.key]; !seen {
			order = append(order, e.key)
		}
		latest[e.key] = e.value

		if len(remaining[e.LI]) > 0 {
			next := remaining[e.LI][0]
			heap.Push(h, element[T]{value: next, key: key(next), LI: e.LI})
			remaining[e.LI] = remaining[e.LI][1:]
		}
	}

	slices.SortFunc(order, func(a, b string) int {
		return cmp.Compare(a, b)
	})

	merged := make([]T, 0, len(order))
	for _, k := range order {
		merged = append(merged, latest[k])
	}
	return merged
}
