// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package traditional implements the self-describing Huffman codec: the
// encoded stream carries a (symbol, count) header so a decoder can rebuild
// the exact tree the encoder used, then rebuild the exact same tree itself
// and walk it bit by bit.
package traditional

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/elliotnunn/huffman/bitarray"
	"github.com/elliotnunn/huffman/bitio"
	"github.com/elliotnunn/huffman/tree"
)

// ErrMalformed flags a truncated header or a payload that ran out before
// EOF_CHAR was decoded.
var ErrMalformed = errors.New("traditional: malformed input")

// ErrCountOverflow flags a symbol occurring more than math.MaxUint32 times,
// which the header's 4-byte count field cannot represent.
var ErrCountOverflow = errors.New("traditional: symbol count overflow")

type codeEntry struct {
	length int
	code   *bitarray.BitArray
}

// countBytes tallies byte frequencies, saturating-detecting overflow rather
// than wrapping silently.
func countBytes(data []byte) ([tree.NumBytes]uint32, error) {
	var counts [tree.NumBytes]uint32
	for _, b := range data {
		if counts[b] == math.MaxUint32 {
			return counts, fmt.Errorf("traditional: byte %#02x: %w", b, ErrCountOverflow)
		}
		counts[b]++
	}
	return counts, nil
}

// Encode reads all of r, builds a Huffman tree from its byte frequencies,
// and writes the self-describing archive format to w: a (symbol, count)
// header terminated by a zero entry, then the bit payload ending in the
// EOF_CHAR code, zero-padded to a byte boundary.
func Encode(r io.Reader, w io.Writer) error {
	return EncodeWithBuilder(r, w, tree.Build)
}

// EncodeWithBuilder is Encode but obtains the Huffman tree by calling build
// with the input's frequency vector instead of always calling tree.Build
// directly, so a caller running many files through Encode in one process
// (cmd/huffman's glob mode) can plug in a memoizing builder such as
// internal/treecache's and skip rebuilding a tree it has already built for
// an identical frequency vector.
func EncodeWithBuilder(r io.Reader, w io.Writer, build func([tree.NumBytes]uint32) *tree.Node) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("traditional: read input: %w", err)
	}
	counts, err := countBytes(data)
	if err != nil {
		return err
	}
	root := build(counts)

	var table [tree.NumSymbols]codeEntry
	tree.Walk(root, func(value, length int, code *bitarray.BitArray) {
		table[value] = codeEntry{length, code}
	})

	if err := writeHeader(w, root, counts); err != nil {
		return err
	}

	bw := bitio.NewWriter(w)
	for _, b := range data {
		e := table[b]
		if err := bw.PutBits(e.code.Bytes(), e.length); err != nil {
			return fmt.Errorf("traditional: write payload: %w", err)
		}
	}
	eof := table[tree.EOFChar]
	if err := bw.PutBits(eof.code.Bytes(), eof.length); err != nil {
		return fmt.Errorf("traditional: write EOF_CHAR: %w", err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("traditional: flush payload: %w", err)
	}
	return nil
}

// writeHeader enumerates leaves in the depth-first, left-priority order
// Walk already produces, skipping EOF_CHAR (the decoder always reinstates
// it with count 1), and terminates with the reserved all-zero entry.
func writeHeader(w io.Writer, root *tree.Node, counts [tree.NumBytes]uint32) error {
	var werr error
	tree.Walk(root, func(value, length int, code *bitarray.BitArray) {
		if werr != nil || value == tree.EOFChar {
			return
		}
		var entry [5]byte
		entry[0] = byte(value)
		binary.LittleEndian.PutUint32(entry[1:], counts[value])
		if _, err := w.Write(entry[:]); err != nil {
			werr = err
		}
	})
	if werr != nil {
		return fmt.Errorf("traditional: write header: %w", werr)
	}
	if _, err := w.Write(make([]byte, 5)); err != nil {
		return fmt.Errorf("traditional: write header terminator: %w", err)
	}
	return nil
}

// Options controls Decode's handling of the historical count-field
// endianness.
type Options struct {
	// LegacyByteOrder reads the 4-byte count field in the host's native
	// byte order instead of the little-endian format Encode writes, for
	// archives produced by implementations that never fixed the
	// portability hazard described in the format notes.
	LegacyByteOrder bool
}

// Decode reads an archive written by Encode from r and writes the original
// bytes to w. Archives written in host-native count order need
// DecodeWithOptions with Options.LegacyByteOrder.
func Decode(r io.Reader, w io.Writer) error {
	return DecodeWithOptions(r, w, Options{})
}

// DecodeWithOptions is Decode with explicit Options.
func DecodeWithOptions(r io.Reader, w io.Writer, opt Options) error {
	counts, err := readHeader(r, opt)
	if err != nil {
		return err
	}
	root := tree.Build(counts)

	br := bitio.NewReader(r)
	for {
		sym, err := decodeSymbol(root, br)
		if err != nil {
			return err
		}
		if sym == tree.EOFChar {
			return nil
		}
		if _, err := w.Write([]byte{byte(sym)}); err != nil {
			return fmt.Errorf("traditional: write output: %w", err)
		}
	}
}

func readHeader(r io.Reader, opt Options) ([tree.NumBytes]uint32, error) {
	var counts [tree.NumBytes]uint32
	order := binary.ByteOrder(binary.LittleEndian)
	if opt.LegacyByteOrder {
		order = binary.NativeEndian
	}
	for {
		var entry [5]byte
		n, err := io.ReadFull(r, entry[:])
		if err != nil {
			if n == 0 && errors.Is(err, io.EOF) {
				return counts, fmt.Errorf("%w: missing header", ErrMalformed)
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return counts, fmt.Errorf("%w: truncated header entry", ErrMalformed)
			}
			return counts, fmt.Errorf("traditional: read header: %w", err)
		}
		sym := entry[0]
		cnt := order.Uint32(entry[1:])
		if sym == 0 && cnt == 0 {
			return counts, nil
		}
		counts[sym] = cnt
	}
}

// decodeSymbol walks from root one bit at a time until it reaches a leaf.
// A leaf root (the wholly-empty-input tree) is handled by consuming the
// single promoted bit without ever needing to descend, so a decoder can
// never spin on it.
func decodeSymbol(root *tree.Node, br *bitio.Stream) (int, error) {
	cur := root
	for {
		if cur.Leaf() {
			if root.Leaf() {
				if _, err := br.GetBit(); err != nil {
					return 0, truncatedPayload(err)
				}
			}
			return cur.Value, nil
		}
		bit, err := br.GetBit()
		if err != nil {
			return 0, truncatedPayload(err)
		}
		if bit == 0 {
			cur = cur.Left
		} else {
			cur = cur.Right
		}
	}
}

func truncatedPayload(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: truncated payload before EOF_CHAR", ErrMalformed)
	}
	return fmt.Errorf("traditional: read payload: %w", err)
}

// ShowTree reads all of r, builds the tree its byte frequencies imply, and
// writes a human-readable symbol -> code table to w.
func ShowTree(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("traditional: read input: %w", err)
	}
	counts, err := countBytes(data)
	if err != nil {
		return err
	}
	root := tree.Build(counts)
	return writeTable(w, root)
}

func writeTable(w io.Writer, root *tree.Node) error {
	var werr error
	tree.Walk(root, func(value, length int, code *bitarray.BitArray) {
		if werr != nil {
			return
		}
		line := fmt.Sprintf("%-8s %3d  %s\n", symbolName(value), length, bitString(code, length))
		if _, err := io.WriteString(w, line); err != nil {
			werr = err
		}
	})
	return werr
}

func symbolName(value int) string {
	if value == tree.EOFChar {
		return "EOF"
	}
	return fmt.Sprintf("%#02x", value)
}

func bitString(code *bitarray.BitArray, length int) string {
	buf := make([]byte, length)
	for i := 0; i < length; i++ {
		v, _ := code.TestBit(i)
		if v {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}
