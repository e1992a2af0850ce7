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

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/B1NARY-GR0UP/omid/pkg/utils"
)

// fileRecordSize is the encoded size of one counter record: an 8-byte
// magic guard plus the 8-byte counter value.
const fileRecordSize = 16

const fileMagic uint64 = 0x6f6d6964_7473_6f21 // "omid" + "tso!"-ish guard

// FileStorage is a durable Storage backed by a single fixed-size record
// file. Every CompareAndUpdate writes the whole record and calls
// File.Sync before returning, the same create/open/fsync discipline the
// teacher's wal package uses for its log segments, just applied to one
// record instead of an appended sequence of entries.
type FileStorage struct {
	mu    sync.Mutex
	fd    *os.File
	value uint64
}

// OpenFileStorage opens (creating if necessary) the counter file at
// path and recovers the last durably-stored value, if any.
func OpenFileStorage(path string) (*FileStorage, error) {
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("oracle: open storage file: %w", err)
	}

	fs := &FileStorage{fd: fd}

	info, err := fd.Stat()
	if err != nil {
		_ = fd.Close()
		return nil, fmt.Errorf("oracle: stat storage file: %w", err)
	}
	if info.Size() == 0 {
		return fs, nil
	}

	value, err := readRecord(fd)
	if err != nil {
		_ = fd.Close()
		return nil, err
	}
	fs.value = value
	return fs, nil
}

func (s *FileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fd.Close()
}

func (s *FileStorage) Read() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, nil
}

func (s *FileStorage) CompareAndUpdate(prev, next uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.value != prev {
		return ErrCompareMismatch
	}

	if err := writeRecord(s.fd, next); err != nil {
		return err
	}
	s.value = next
	return nil
}

func writeRecord(fd *os.File, value uint64) error {
	buf := new(bytes.Buffer)
	w := utils.NewErrorWriter(buf)
	w.Write(binary.BigEndian, fileMagic)
	w.Write(binary.BigEndian, value)
	if err := w.Error(); err != nil {
		return fmt.Errorf("oracle: encode storage record: %w", err)
	}

	if _, err := fd.WriteAt(buf.Bytes(), 0); err != nil {
		return fmt.Errorf("oracle: write storage record: %w", err)
	}
	if err := fd.Sync(); err != nil {
		return fmt.Errorf("oracle: fsync storage record: %w", err)
	}
	return nil
}

func readRecord(fd *os.File) (uint64, error) {
	raw := make([]byte, fileRecordSize)
	if _, err := fd.ReadAt(raw, 0); err != nil {
		return 0, fmt.Errorf("oracle: read storage record: %w", err)
	}

	r := utils.NewErrorReader(bytes.NewReader(raw))
	var magic, value uint64
	r.Read(binary.BigEndian, &magic)
	r.Read(binary.BigEndian, &value)
	if err := r.Error(); err != nil {
		return 0, fmt.Errorf("oracle: decode storage record: %w", err)
	}
	if magic != fileMagic {
		return 0, fmt.Errorf("oracle: storage record magic mismatch")
	}
	return value, nil
}
