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

package oracle

import "sync/atomic"

// MemoryStorage is a non-durable Storage for tests: it survives nothing.
// A fresh instance reads 0, so an Oracle built over a new MemoryStorage
// starts the counter over; crash-restart tests use FileStorage instead.
type MemoryStorage struct {
	value atomic.Uint64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Read() (uint64, error) {
	return s.value.Load(), nil
}

func (s *MemoryStorage) CompareAndUpdate(prev, next uint64) error {
	if !s.value.CompareAndSwap(prev, next) {
		return ErrCompareMismatch
	}
	return nil
}
