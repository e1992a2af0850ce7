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

package committable

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/B1NARY-GR0UP/omid/pkg/bufferpool"
	"github.com/B1NARY-GR0UP/omid/pkg/filter"
	"github.com/B1NARY-GR0UP/omid/pkg/kway"
	"github.com/B1NARY-GR0UP/omid/pkg/utils"
	"github.com/B1NARY-GR0UP/omid/types"
)

const (
	_logName      = "commit.log"
	_snapshotName = "commit.snapshot.s2"

	recKindPut        = byte(1)
	recKindInvalidate = byte(2)
	recordSize        = 1 + 8 + 8 // kind + start + commit
)

// record is one (start, commit) pair, either live in the in-memory
// index or folded into the compacted snapshot on disk.
type record struct {
	start  uint64
	commit uint64
}

func recordKey(r record) string {
	return fmt.Sprintf("%020d", r.start)
}

// Config sizes the bloom filter FileTable keeps over known
// start-timestamps.
type Config struct {
	// FilterCapacity is the expected number of live entries; it sizes
	// the bloom filter so its false-positive rate stays near
	// filter.DefaultFalsePositiveRate even as entries accumulate between
	// checkpoints.
	FilterCapacity int
}

var DefaultConfig = Config{FilterCapacity: 1 << 20}

func (c *Config) validate() {
	if c.FilterCapacity <= 0 {
		c.FilterCapacity = DefaultConfig.FilterCapacity
	}
}

// FileTable is a durable Table backed by an append-only log of
// (start, commit) records plus a compacted, s2-compressed snapshot of
// everything at-or-above the last published low watermark.
//
// Grounded on the teacher's wal package: the same create/append/fsync
// discipline (observed through wal/wal_test.go, since wal.go itself was
// not present in the retrieval pack) is rebuilt here for commit records
// instead of store entries. The negative-lookup fast path, the
// checkpoint compression, and the checkpoint merge strategy are
// grounded on the teacher's pkg/filter, pkg/utils (s2), and pkg/kway
// respectively; see DESIGN.md.
type FileTable struct {
	mu  sync.Mutex
	dir string
	log *os.File

	index   map[uint64]uint64
	aborted map[uint64]bool
	filter  *filter.Filter

	snapshot []record // sorted ascending by start; folded in at checkpoints
}

// OpenFileTable opens (or creates) a commit table rooted at dir,
// replaying its snapshot and log to rebuild the in-memory index.
func OpenFileTable(dir string, config Config) (*FileTable, error) {
	config.validate()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("committable: mkdir %s: %w", dir, err)
	}

	t := &FileTable{
		dir:     dir,
		index:   make(map[uint64]uint64),
		aborted: make(map[uint64]bool),
		filter:  filter.New(config.FilterCapacity, filter.DefaultFalsePositiveRate),
	}

	if err := t.loadSnapshot(); err != nil {
		return nil, err
	}

	logFd, err := os.OpenFile(filepath.Join(dir, _logName), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("committable: open log: %w", err)
	}
	t.log = logFd

	if err := t.replayLog(); err != nil {
		_ = logFd.Close()
		return nil, err
	}

	for _, r := range t.snapshot {
		t.filter.Add(recordKey(r))
	}
	for start := range t.index {
		t.filter.Add(recordKey(record{start: start}))
	}

	return t, nil
}

func (t *FileTable) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.Close()
}

func (t *FileTable) loadSnapshot() error {
	path := filepath.Join(t.dir, _snapshotName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("committable: read snapshot: %w", err)
	}

	var decompressed bytes.Buffer
	if err := utils.Decompress(bytes.NewReader(raw), &decompressed); err != nil {
		return fmt.Errorf("committable: decompress snapshot: %w", err)
	}

	r := utils.NewErrorReader(&decompressed)
	var n uint64
	r.Read(binary.BigEndian, &n)
	snapshot := make([]record, 0, n)
	for i := uint64(0); i < n; i++ {
		var start, commit uint64
		r.Read(binary.BigEndian, &start)
		r.Read(binary.BigEndian, &commit)
		snapshot = append(snapshot, record{start: start, commit: commit})
	}
	if err := r.Error(); err != nil {
		return fmt.Errorf("committable: decode snapshot: %w", err)
	}
	t.snapshot = snapshot
	return nil
}

func (t *FileTable) replayLog() error {
	raw, err := os.ReadFile(filepath.Join(t.dir, _logName))
	if err != nil {
		return fmt.Errorf("committable: read log: %w", err)
	}
	for off := 0; off+recordSize <= len(raw); off += recordSize {
		rec := raw[off : off+recordSize]
		kind := rec[0]
		start := binary.BigEndian.Uint64(rec[1:9])
		commit := binary.BigEndian.Uint64(rec[9:17])
		switch kind {
		case recKindPut:
			t.index[start] = commit
		case recKindInvalidate:
			delete(t.index, start)
			t.aborted[start] = true
		}
	}
	return nil
}

func (t *FileTable) appendRecord(kind byte, start, commit uint64) error {
	buf := bufferpool.Pool.Get()
	defer bufferpool.Pool.Put(buf)

	w := utils.NewErrorWriter(buf)
	w.Write(binary.BigEndian, kind)
	w.Write(binary.BigEndian, start)
	w.Write(binary.BigEndian, commit)
	if err := w.Error(); err != nil {
		return fmt.Errorf("committable: encode record: %w", err)
	}

	if _, err := t.log.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("committable: append record: %w", err)
	}
	return t.log.Sync()
}

func (t *FileTable) Put(start, commit types.Timestamp) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.appendRecord(recKindPut, uint64(start), uint64(commit)); err != nil {
		return err
	}
	t.index[uint64(start)] = uint64(commit)
	t.filter.Add(recordKey(record{start: uint64(start)}))
	return nil
}

func (t *FileTable) Get(start types.Timestamp) (types.Timestamp, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := recordKey(record{start: uint64(start)})
	if !t.filter.Contains(key) {
		return 0, false, nil
	}
	if t.aborted[uint64(start)] {
		return 0, false, nil
	}
	if commit, ok := t.index[uint64(start)]; ok {
		return types.Timestamp(commit), true, nil
	}
	for _, r := range t.snapshot {
		if r.start == uint64(start) {
			return types.Timestamp(r.commit), true, nil
		}
	}
	return 0, false, nil
}

func (t *FileTable) Invalidate(start types.Timestamp) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.appendRecord(recKindInvalidate, uint64(start), 0); err != nil {
		return err
	}
	delete(t.index, uint64(start))
	t.aborted[uint64(start)] = true
	return nil
}

// LowWatermarkCheckpoint folds every live entry at or above watermark
// (from both the current snapshot and the in-memory index accumulated
// since the last checkpoint) into a single compacted, s2-compressed
// snapshot, then truncates the append log. Everything it held is now
// either in the new snapshot or safely below the watermark and
// discardable: absence of a start_ts below the watermark means aborted
// or already garbage collected.
func (t *FileTable) LowWatermarkCheckpoint(watermark types.Timestamp) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	live := make([]record, 0, len(t.index))
	for start, commit := range t.index {
		if start < uint64(watermark) {
			continue
		}
		live = append(live, record{start: start, commit: commit})
	}

	merged := kway.Merge([][]record{t.snapshot, live}, recordKey)

	compacted := make([]record, 0, len(merged))
	for _, r := range merged {
		if r.start >= uint64(watermark) {
			compacted = append(compacted, r)
		}
	}

	if err := t.writeSnapshot(compacted); err != nil {
		return err
	}

	for start := range t.aborted {
		if start < uint64(watermark) {
			delete(t.aborted, start)
		}
	}

	t.snapshot = compacted
	t.index = make(map[uint64]uint64)

	if err := t.log.Truncate(0); err != nil {
		return fmt.Errorf("committable: truncate log: %w", err)
	}
	if _, err := t.log.Seek(0, 0); err != nil {
		return fmt.Errorf("committable: seek log: %w", err)
	}
	return nil
}

func (t *FileTable) writeSnapshot(entries []record) error {
	buf := new(bytes.Buffer)
	w := utils.NewErrorWriter(buf)
	w.Write(binary.BigEndian, uint64(len(entries)))
	for _, r := range entries {
		w.Write(binary.BigEndian, r.start)
		w.Write(binary.BigEndian, r.commit)
	}
	if err := w.Error(); err != nil {
		return fmt.Errorf("committable: encode snapshot: %w", err)
	}

	var compressed bytes.Buffer
	if err := utils.Compress(buf, &compressed); err != nil {
		return fmt.Errorf("committable: compress snapshot: %w", err)
	}

	path := filepath.Join(t.dir, _snapshotName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed.Bytes(), 0644); err != nil {
		return fmt.Errorf("committable: write snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}
