// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package canonical implements the canonical-form Huffman codec: the
// encoded stream carries only the 257 code lengths, one per symbol, and
// both encoder and decoder derive the actual codes from those lengths by
// the same deterministic accumulator rule, so no symbol/count header or
// tree shape ever needs to be transmitted.
package canonical

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/elliotnunn/huffman/bitarray"
	"github.com/elliotnunn/huffman/bitio"
	"github.com/elliotnunn/huffman/tree"
)

// ErrMalformed flags a header whose lengths cannot arise from a valid
// canonical assignment, or a payload that ran out before EOF_CHAR.
var ErrMalformed = errors.New("canonical: malformed input")

// ErrCountOverflow flags a symbol occurring more than math.MaxUint32 times.
var ErrCountOverflow = errors.New("canonical: symbol count overflow")

const accumulatorWidth = 256

// entry is one row of the canonical assignment: a symbol, its code length,
// and (once assigned) its left-justified code.
type entry struct {
	value   int
	codeLen int
	code    *bitarray.BitArray
}

func countBytes(data []byte) ([tree.NumBytes]uint32, error) {
	var counts [tree.NumBytes]uint32
	for _, b := range data {
		if counts[b] == math.MaxUint32 {
			return counts, fmt.Errorf("canonical: byte %#02x: %w", b, ErrCountOverflow)
		}
		counts[b]++
	}
	return counts, nil
}

// lengthsFromTree walks the tree built from counts and returns the code
// length of every symbol, 0 for symbols absent from the input (and
// therefore absent from the tree).
func lengthsFromTree(root *tree.Node) [tree.NumSymbols]int {
	var lengths [tree.NumSymbols]int
	tree.Walk(root, func(value, length int, _ *bitarray.BitArray) {
		lengths[value] = length
	})
	return lengths
}

// assign sorts the 257 symbols by (codeLen ascending, value ascending) and
// assigns each a left-justified code by the canonical accumulator rule:
// walking the sorted list from the longest code to the shortest, the
// accumulator starts at zero and increments after every assignment,
// right-shifting whenever the length drops. Symbols with codeLen 0 sort
// first and are left with code == nil; the walk stops as soon as it
// reaches them, since nothing shorter needs a code.
func assign(lengths [tree.NumSymbols]int) []entry {
	sorted := make([]entry, tree.NumSymbols)
	for v := 0; v < tree.NumSymbols; v++ {
		sorted[v] = entry{value: v, codeLen: lengths[v]}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].codeLen != sorted[j].codeLen {
			return sorted[i].codeLen < sorted[j].codeLen
		}
		return sorted[i].value < sorted[j].value
	})

	acc, _ := bitarray.New(accumulatorWidth)
	length := sorted[len(sorted)-1].codeLen
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].codeLen == 0 {
			break
		}
		if sorted[i].codeLen < length {
			acc.ShiftRight(length - sorted[i].codeLen)
			length = sorted[i].codeLen
		}
		code := acc.Duplicate()
		code.ShiftLeft(accumulatorWidth - length)
		sorted[i].code = code
		acc.Increment()
	}
	return sorted
}

func byValue(sorted []entry) [tree.NumSymbols]entry {
	var out [tree.NumSymbols]entry
	for _, e := range sorted {
		out[e.value] = e
	}
	return out
}

// Encode reads all of r, builds the Huffman tree implied by its byte
// frequencies, and writes the canonical archive format to w: 257 one-byte
// code lengths in symbol order, then the bit payload ending in the
// EOF_CHAR code, zero-padded to a byte boundary.
func Encode(r io.Reader, w io.Writer) error {
	return EncodeWithBuilder(r, w, tree.Build)
}

// EncodeWithBuilder is Encode but obtains the Huffman tree by calling build
// with the input's frequency vector, letting a caller such as cmd/huffman's
// glob mode plug in internal/treecache to skip rebuilding a tree for a
// frequency vector it has already seen in the same run.
func EncodeWithBuilder(r io.Reader, w io.Writer, build func([tree.NumBytes]uint32) *tree.Node) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("canonical: read input: %w", err)
	}
	counts, err := countBytes(data)
	if err != nil {
		return err
	}
	root := build(counts)
	lengths := lengthsFromTree(root)

	if err := writeLengthHeader(w, lengths); err != nil {
		return err
	}

	table := byValue(assign(lengths))
	bw := bitio.NewWriter(w)
	for _, b := range data {
		e := table[b]
		if err := bw.PutBits(e.code.Bytes(), e.codeLen); err != nil {
			return fmt.Errorf("canonical: write payload: %w", err)
		}
	}
	eof := table[tree.EOFChar]
	if err := bw.PutBits(eof.code.Bytes(), eof.codeLen); err != nil {
		return fmt.Errorf("canonical: write EOF_CHAR: %w", err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("canonical: flush payload: %w", err)
	}
	return nil
}

func writeLengthHeader(w io.Writer, lengths [tree.NumSymbols]int) error {
	var raw [tree.NumSymbols]byte
	for i, l := range lengths {
		if l > 255 {
			return fmt.Errorf("canonical: symbol %d: code length %d exceeds header field width: %w", i, l, ErrMalformed)
		}
		raw[i] = byte(l)
	}
	if _, err := w.Write(raw[:]); err != nil {
		return fmt.Errorf("canonical: write length header: %w", err)
	}
	return nil
}

func readLengthHeader(r io.Reader) ([tree.NumSymbols]int, error) {
	var raw [tree.NumSymbols]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return [tree.NumSymbols]int{}, fmt.Errorf("%w: truncated length header", ErrMalformed)
		}
		return [tree.NumSymbols]int{}, fmt.Errorf("canonical: read length header: %w", err)
	}
	var lengths [tree.NumSymbols]int
	for i, b := range raw {
		lengths[i] = int(b)
	}
	return lengths, nil
}

// Decode reads an archive written by Encode from r and writes the
// original bytes to w.
func Decode(r io.Reader, w io.Writer) error {
	lengths, err := readLengthHeader(r)
	if err != nil {
		return err
	}
	// Kraft check: avail counts the unused codes at length l. Once it
	// reaches NumSymbols no remaining symbols can exhaust it, so it is capped
	// there to stay within an int.
	avail := 1
	for l := 1; l <= 255; l++ {
		avail *= 2
		for _, cl := range lengths {
			if cl == l {
				avail--
			}
		}
		if avail < 0 {
			return fmt.Errorf("%w: code lengths over-subscribe the code space", ErrMalformed)
		}
		avail = min(avail, tree.NumSymbols)
	}
	sorted := assign(lengths)

	// lenIndex[L] is the first position in sorted whose codeLen is L, or
	// len(sorted) if no symbol has that length. Entries are grouped by
	// ascending codeLen, so a single linear scan fills every bucket.
	var lenIndex [accumulatorWidth + 1]int
	for l := range lenIndex {
		lenIndex[l] = len(sorted)
	}
	for i, e := range sorted {
		if e.codeLen > 0 && lenIndex[e.codeLen] == len(sorted) {
			lenIndex[e.codeLen] = i
		}
	}

	br := bitio.NewReader(r)
	accum, _ := bitarray.New(accumulatorWidth)
	for {
		sym, err := decodeSymbol(br, accum, sorted, lenIndex[:])
		if err != nil {
			return err
		}
		if sym == tree.EOFChar {
			return nil
		}
		if _, err := w.Write([]byte{byte(sym)}); err != nil {
			return fmt.Errorf("canonical: write output: %w", err)
		}
	}
}

// decodeSymbol reads bits one at a time into accum (left-justified, same
// layout as entry.code) and, after each bit, linear-scans the symbols of
// the length just reached for a match.
func decodeSymbol(br *bitio.Stream, accum *bitarray.BitArray, sorted []entry, lenIndex []int) (int, error) {
	accum.ClearAll()
	for length := 1; length <= accumulatorWidth; length++ {
		bit, err := br.GetBit()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, fmt.Errorf("%w: truncated payload before EOF_CHAR", ErrMalformed)
			}
			return 0, fmt.Errorf("canonical: read payload: %w", err)
		}
		if bit != 0 {
			accum.SetBit(length - 1)
		}

		start := lenIndex[length]
		for i := start; i < len(sorted) && sorted[i].codeLen == length; i++ {
			cmp, err := bitarray.Compare(accum, sorted[i].code)
			if err != nil {
				return 0, fmt.Errorf("canonical: %w", err)
			}
			if cmp == 0 {
				return sorted[i].value, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: no code matched within %d bits", ErrMalformed, accumulatorWidth)
}

// ShowTree reads all of r, builds the tree its byte frequencies imply, and
// writes a human-readable symbol -> code table to w.
func ShowTree(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("canonical: read input: %w", err)
	}
	counts, err := countBytes(data)
	if err != nil {
		return err
	}
	root := tree.Build(counts)
	lengths := lengthsFromTree(root)
	sorted := assign(lengths)

	var werr error
	for _, e := range sorted {
		if e.codeLen == 0 {
			continue
		}
		line := fmt.Sprintf("%-8s %3d  %s\n", symbolName(e.value), e.codeLen, bitString(e.code, e.codeLen))
		if _, err := io.WriteString(w, line); err != nil {
			werr = err
		}
	}
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
