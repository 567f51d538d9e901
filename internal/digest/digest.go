// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package digest fingerprints a frequency vector, for use both as a
// treecache lookup key and as the identifying line cmd/huffman -t prints
// after a code table.
package digest

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Key is a frequency-vector fingerprint. Two count vectors that hash to the
// same Key are, for every purpose this package is used for, the same tree.
type Key uint64

// Counts hashes counts (indexed by byte value 0..255) into a Key.
// xxhash.Sum64 is fed the vector's raw little-endian byte representation
// rather than a textual encoding, since this key never crosses a process
// boundary and never needs to be portable.
func Counts(counts [256]uint32) Key {
	var buf [256 * 4]byte
	for i, c := range counts {
		binary.LittleEndian.PutUint32(buf[i*4:], c)
	}
	return Key(xxhash.Sum64(buf[:]))
}

// String renders k the way ShowTree prints it: a fixed-width hex digest
// that's easy to diff between two runs over similar inputs.
func (k Key) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}
