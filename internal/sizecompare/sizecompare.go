// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package sizecompare reports how this module's own codecs stack up
// against a couple of well-known general-purpose compressors, for
// size-comparison context only. Nothing here ever sits on the
// encode/decode path: comparing against flate and snappy only tells a
// user whether Huffman-only coding was the right tool for their data, it
// never substitutes for it.
package sizecompare

import (
	"bytes"
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
)

// Result holds the compressed size each reference compressor produced for
// the same input, alongside the input's own size for context.
type Result struct {
	InputBytes  int
	FlateBytes  int
	SnappyBytes int
}

// Run compresses data with flate (best compression level) and Snappy and
// reports their output sizes.
func Run(data []byte) (Result, error) {
	r := Result{InputBytes: len(data)}

	var flateBuf bytes.Buffer
	fw, err := flate.NewWriter(&flateBuf, flate.BestCompression)
	if err != nil {
		return r, fmt.Errorf("sizecompare: new flate writer: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return r, fmt.Errorf("sizecompare: flate write: %w", err)
	}
	if err := fw.Close(); err != nil {
		return r, fmt.Errorf("sizecompare: flate close: %w", err)
	}
	r.FlateBytes = flateBuf.Len()

	r.SnappyBytes = len(snappy.Encode(nil, data))

	return r, nil
}

// String renders a Result as a one-line summary.
func (r Result) String() string {
	return fmt.Sprintf("input=%d flate=%d snappy=%d", r.InputBytes, r.FlateBytes, r.SnappyBytes)
}
