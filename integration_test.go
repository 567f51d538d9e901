// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package huffman_test cross-checks the traditional and canonical codecs
// against each other: a property that genuinely needs both packages in
// scope at once, unlike everything else which is exercised within each
// package's own tests.
package huffman_test

import (
	"bufio"
	"bytes"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/elliotnunn/huffman/canonical"
	"github.com/elliotnunn/huffman/traditional"
)

// lengthTable parses a ShowTree table ("symbol  length  bits" lines) into
// symbol -> code length, ignoring any trailing lines that don't match that
// shape (such as the digest line cmd/huffman appends, which neither
// library ShowTree function itself prints).
func lengthTable(t *testing.T, out []byte) map[string]int {
	t.Helper()
	table := make(map[string]int)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			continue
		}
		length, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		table[fields[0]] = length
	}
	return table
}

// TestCanonicalMatchesTraditionalLengthMultiset builds both codecs' code
// tables from the same input and checks that every symbol gets the same
// code length in each: the multiset of (symbol, codeLen) pairs a canonical
// decoder reconstructs codes from must be exactly the one a traditional
// decoder's rebuilt tree would have produced, since both derive their
// lengths from the identical tree-build algorithm.
func TestCanonicalMatchesTraditionalLengthMultiset(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, then jumps back again and again")

	var tradOut bytes.Buffer
	if err := traditional.ShowTree(bytes.NewReader(data), &tradOut); err != nil {
		t.Fatalf("traditional.ShowTree: %v", err)
	}
	var canonOut bytes.Buffer
	if err := canonical.ShowTree(bytes.NewReader(data), &canonOut); err != nil {
		t.Fatalf("canonical.ShowTree: %v", err)
	}

	trad := lengthTable(t, tradOut.Bytes())
	canon := lengthTable(t, canonOut.Bytes())

	if len(trad) != len(canon) {
		var tradSymbols, canonSymbols []string
		for k := range trad {
			tradSymbols = append(tradSymbols, k)
		}
		for k := range canon {
			canonSymbols = append(canonSymbols, k)
		}
		sort.Strings(tradSymbols)
		sort.Strings(canonSymbols)
		t.Fatalf("traditional has %d symbols %v, canonical has %d symbols %v", len(trad), tradSymbols, len(canon), canonSymbols)
	}
	for sym, wantLen := range trad {
		gotLen, ok := canon[sym]
		if !ok {
			t.Fatalf("canonical table missing symbol %s present in traditional table", sym)
		}
		if gotLen != wantLen {
			t.Fatalf("symbol %s: traditional length %d != canonical length %d", sym, wantLen, gotLen)
		}
	}
}
