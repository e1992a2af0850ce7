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

package utils

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	"github.com/B1NARY-GR0UP/omid/pkg/logger"
	"github.com/klauspost/compress/s2"
)

// Elapsed logs how long a named operation took since now. Call with
// defer Elapsed(time.Now(), log, "op").
func Elapsed(now time.Time, log logger.Logger, msg string) {
	log.Infof("%s elapsed: %s", msg, time.Since(now))
}

// ErrorWriter accumulates the first error across a sequence of binary
// writes so callers can check once at the end instead of after every
// field.
type ErrorWriter struct {
	buf *bytes.Buffer
	err error
}

func NewErrorWriter(buf *bytes.Buffer) *ErrorWriter {
	return &ErrorWriter{buf: buf}
}

func (w *ErrorWriter) Write(order binary.ByteOrder, data any) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.buf, order, data)
}

func (w *ErrorWriter) Error() error {
	return w.err
}

// ErrorReader is the read-side counterpart of ErrorWriter.
type ErrorReader struct {
	r   io.Reader
	err error
}

func NewErrorReader(r io.Reader) *ErrorReader {
	return &ErrorReader{r: r}
}

func (r *ErrorReader) Read(order binary.ByteOrder, data any) {
	if r.err != nil {
		return
	}
	r.err = binary.Read(r.r, order, data)
}

func (r *ErrorReader) Error() error {
	return r.err
}

// Compress streams src through s2 into dst.
func Compress(src io.Reader, dst io.Writer) error {
	enc := s2.NewWriter(dst)
	if _, err := io.Copy(enc, src); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// Decompress streams an s2 stream from src into dst.
func Decompress(src io.Reader, dst io.Writer) error {
	dec := s2.NewReader(src)
	_, err := io.Copy(dst, dec)
	return err
}
