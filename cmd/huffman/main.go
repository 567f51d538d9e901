// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Command huffman is a thin driver over the traditional and canonical
// Huffman codecs: it translates flags into library calls and an exit code,
// and otherwise stays out of the way.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/elliotnunn/huffman/canonical"
	"github.com/elliotnunn/huffman/internal/digest"
	"github.com/elliotnunn/huffman/internal/treecache"
	"github.com/elliotnunn/huffman/traditional"
	"github.com/elliotnunn/huffman/tree"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: huffman [-c | -d | -t] [-C] [-i path-or-glob] [-o path] [-legacy-endian]

  -c              compress
  -d              decompress
  -t              show code table instead of compressing or decompressing
  -C              use the canonical codec instead of the traditional one
  -i path         input file, or a glob matching several (default: stdin)
  -o path         output file (default: stdout, or stdout when -i matches
                  more than one file)
  -legacy-endian  decode a traditional archive written in host-native byte
                  order instead of little-endian
  -h, -?          show this help
`)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("huffman", flag.ContinueOnError)
	fs.Usage = usage
	compress := fs.Bool("c", false, "compress")
	decompress := fs.Bool("d", false, "decompress")
	showTree := fs.Bool("t", false, "show code table")
	canon := fs.Bool("C", false, "use the canonical codec")
	input := fs.String("i", "", "input file or glob (default: stdin)")
	output := fs.String("o", "", "output file (default: stdout)")
	legacyEndian := fs.Bool("legacy-endian", false, "decode traditional archives in host-native byte order")
	help := fs.Bool("h", false, "show help")
	question := fs.Bool("?", false, "show help")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *help || *question {
		usage()
		return 0
	}

	op, err := selectOp(*compress, *decompress, *showTree)
	if err != nil {
		fmt.Fprintln(os.Stderr, "huffman:", err)
		usage()
		return 2
	}

	files, err := resolveInputs(*input)
	if err != nil {
		fmt.Fprintln(os.Stderr, "huffman:", err)
		return 2
	}

	cache := treecache.New(64)
	d := driver{op: op, canonical: *canon, legacyEndian: *legacyEndian, cache: cache}

	failures := 0
	singleFile := len(files) == 1
	for _, in := range files {
		out := *output
		if !singleFile {
			out = ""
		}
		if err := d.process(in, out); err != nil {
			slog.Error("huffman", "op", op.String(), "in", displayName(in), "err", err)
			failures++
			continue
		}
		slog.Info("huffman", "op", op.String(), "in", displayName(in))
	}
	if failures > 0 {
		fmt.Fprintf(os.Stderr, "huffman: %d of %d file(s) failed\n", failures, len(files))
		return 1
	}
	return 0
}

type operation int

const (
	opCompress operation = iota
	opDecompress
	opShowTree
)

func (o operation) String() string {
	switch o {
	case opCompress:
		return "compress"
	case opDecompress:
		return "decompress"
	case opShowTree:
		return "showtree"
	default:
		return "unknown"
	}
}

func selectOp(compress, decompress, showTree bool) (operation, error) {
	n := 0
	var op operation
	if compress {
		op, n = opCompress, n+1
	}
	if decompress {
		op, n = opDecompress, n+1
	}
	if showTree {
		op, n = opShowTree, n+1
	}
	if n == 0 {
		return 0, errors.New("one of -c, -d, or -t is required")
	}
	if n > 1 {
		return 0, errors.New("-c, -d, and -t are mutually exclusive")
	}
	return op, nil
}

// resolveInputs expands input into a list of file paths. An empty or "-"
// input means stdin, represented by a single empty-string entry. A pattern
// containing glob metacharacters is expanded with doublestar; anything else
// is taken as a literal path, whether or not it currently exists (so a
// missing file is reported as an I/O error at open time, not silently
// dropped here).
func resolveInputs(input string) ([]string, error) {
	if input == "" || input == "-" {
		return []string{""}, nil
	}
	if !doublestar.ValidatePattern(input) {
		return []string{input}, nil
	}
	matches, err := doublestar.FilepathGlob(input)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", input, err)
	}
	if len(matches) == 0 {
		return []string{input}, nil
	}
	return matches, nil
}

func displayName(path string) string {
	if path == "" {
		return "<stdin>"
	}
	return path
}

// driver dispatches one operation against one (input, output) pair, sharing
// a tree cache across every file processed in this run.
type driver struct {
	op           operation
	canonical    bool
	legacyEndian bool
	cache        *treecache.Cache
}

func (d driver) process(in, out string) (err error) {
	r, closeR, err := openInput(in)
	if err != nil {
		return err
	}
	defer closeR()

	w, closeW, err := openOutput(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeW(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	switch d.op {
	case opCompress:
		if d.canonical {
			err = canonical.EncodeWithBuilder(r, w, d.cache.Build)
		} else {
			err = traditional.EncodeWithBuilder(r, w, d.cache.Build)
		}
	case opDecompress:
		if d.canonical {
			err = canonical.Decode(r, w)
		} else {
			err = traditional.DecodeWithOptions(r, w, traditional.Options{LegacyByteOrder: d.legacyEndian})
		}
	case opShowTree:
		err = d.showTree(r, w)
	}
	return err
}

// showTree prints the code table followed by the content-fingerprint line
// the expanded driver contract adds to -t output.
func (d driver) showTree(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var counts [tree.NumBytes]uint32
	for _, b := range data {
		if counts[b] != math.MaxUint32 {
			counts[b]++
		}
	}

	showTreeFunc := traditional.ShowTree
	if d.canonical {
		showTreeFunc = canonical.ShowTree
	}
	if err := showTreeFunc(bytes.NewReader(data), w); err != nil {
		return err
	}
	fmt.Fprintf(w, "digest %s\n", digest.Counts(counts))
	return nil
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input %s: %w", path, err)
	}
	return f, f.Close, nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open output %s: %w", path, err)
	}
	return f, f.Close, nil
}
