package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/elliotnunn/huffman/internal/treecache"
)

func TestSelectOpRejectsNoneOrMultiple(t *testing.T) {
	if _, err := selectOp(false, false, false); err == nil {
		t.Fatal("expected an error when no operation flag is set")
	}
	if _, err := selectOp(true, true, false); err == nil {
		t.Fatal("expected an error when -c and -d are both set")
	}
	op, err := selectOp(false, true, false)
	if err != nil || op != opDecompress {
		t.Fatalf("selectOp(-d) = %v, %v; want opDecompress, nil", op, err)
	}
}

func TestResolveInputsDefaultsToStdin(t *testing.T) {
	files, err := resolveInputs("")
	if err != nil || len(files) != 1 || files[0] != "" {
		t.Fatalf("resolveInputs(\"\") = %v, %v; want [\"\"], nil", files, err)
	}
}

func TestResolveInputsGlobExpands(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := resolveInputs(filepath.Join(dir, "*.txt"))
	if err != nil {
		t.Fatalf("resolveInputs: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("resolveInputs glob matched %d files, want 2: %v", len(files), files)
	}
}

func TestProcessRoundTripsThroughFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "plain.txt")
	enc := filepath.Join(dir, "plain.huff")
	dec := filepath.Join(dir, "plain.out")

	want := []byte("the quick brown fox jumps over the lazy dog")
	if err := os.WriteFile(in, want, 0o644); err != nil {
		t.Fatal(err)
	}

	d := driver{op: opCompress, cache: treecache.New(8)}
	if err := d.process(in, enc); err != nil {
		t.Fatalf("compress: %v", err)
	}

	d = driver{op: opDecompress, cache: treecache.New(8)}
	if err := d.process(enc, dec); err != nil {
		t.Fatalf("decompress: %v", err)
	}

	got, err := os.ReadFile(dec)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, want)
	}
}

func TestProcessShowTreePrintsDigest(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "plain.txt")
	out := filepath.Join(dir, "table.txt")
	if err := os.WriteFile(in, []byte("aaabbc"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := driver{op: opShowTree, cache: treecache.New(8)}
	if err := d.process(in, out); err != nil {
		t.Fatalf("showtree: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(got, []byte("digest ")) {
		t.Fatalf("ShowTree output missing digest line:\n%s", got)
	}
}
