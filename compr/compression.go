// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

// Package compr wraps the stream compression
// formats accepted and produced by the topn command.
package compr

import (
	"bufio"
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	// stream identifier chunk of s2 and snappy framing
	s2Magic     = []byte("\xff\x06\x00\x00S2sTwO")
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
)

// Detect returns the name of the compression of the
// stream buffered in r, or "" if it is not compressed.
func Detect(r *bufio.Reader) string {
	head, _ := r.Peek(len(s2Magic))
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return "zstd"
	case bytes.Equal(head, s2Magic), bytes.Equal(head, snappyMagic):
		return "s2"
	}
	return ""
}

type zstdReader struct {
	*zstd.Decoder
}

func (z zstdReader) Close() error {
	z.Decoder.Close()
	return nil
}

// NewReader returns a reader of the decompressed
// contents of r. The format is detected from the
// first bytes of the stream; uncompressed streams
// are returned as they are.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	switch Detect(br) {
	case "zstd":
		// the decoder reads ahead on its own goroutine
		// unless concurrency is 1
		dec, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, errors.Wrap(err, "zstd")
		}
		return zstdReader{dec}, nil
	case "s2":
		return io.NopCloser(s2.NewReader(br)), nil
	}
	return io.NopCloser(br), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriter returns a writer that compresses into w
// using the named algorithm: "zstd", "zstd-better",
// "s2" or "" for no compression. Closing the writer
// flushes it but does not close w.
func NewWriter(name string, w io.Writer) (io.WriteCloser, error) {
	switch name {
	case "":
		return nopWriteCloser{w}, nil
	case "zstd":
		return zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	case "zstd-better":
		return zstd.NewWriter(w,
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithEncoderConcurrency(1))
	case "s2":
		return s2.NewWriter(w), nil
	}
	return nil, errors.Newf("unknown compression %q", name)
}
