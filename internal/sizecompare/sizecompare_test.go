package sizecompare

import (
	"bytes"
	"testing"
)

func TestRunReportsAllThreeSizes(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 200)
	r, err := Run(data)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.InputBytes != len(data) {
		t.Fatalf("InputBytes = %d, want %d", r.InputBytes, len(data))
	}
	if r.FlateBytes <= 0 || r.FlateBytes >= r.InputBytes {
		t.Fatalf("FlateBytes = %d, expected a nonzero compressed size smaller than the input", r.FlateBytes)
	}
	if r.SnappyBytes <= 0 {
		t.Fatalf("SnappyBytes = %d, expected a nonzero compressed size", r.SnappyBytes)
	}
}

func TestRunEmptyInput(t *testing.T) {
	r, err := Run(nil)
	if err != nil {
		t.Fatalf("Run(nil): %v", err)
	}
	if r.InputBytes != 0 {
		t.Fatalf("InputBytes = %d, want 0", r.InputBytes)
	}
}

func TestStringFormatsAsOneLine(t *testing.T) {
	r := Result{InputBytes: 100, FlateBytes: 40, SnappyBytes: 60}
	s := r.String()
	if !bytes.Contains([]byte(s), []byte("input=100")) {
		t.Fatalf("String() = %q, missing input size", s)
	}
	if bytes.Contains([]byte(s), []byte("\n")) {
		t.Fatalf("String() = %q, want a single line", s)
	}
}
