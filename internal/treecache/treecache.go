// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package treecache caches built Huffman trees keyed by a digest of the
// frequency vector that produced them: repeated Encode calls over inputs
// with identical byte frequencies (such as a cmd/huffman glob run over
// near-identical files) would otherwise rebuild the same tree over and
// over, and tree.Build's O(n^2) minimum-pair search is the one part of the
// codec worth skipping when the frequencies haven't changed.
package treecache

import (
	"hash/maphash"

	tinylfu "github.com/dgryski/go-tinylfu"

	"github.com/elliotnunn/huffman/internal/digest"
	"github.com/elliotnunn/huffman/tree"
)

var seed = maphash.MakeSeed()

func hashKey(k digest.Key) uint64 {
	return maphash.Comparable(seed, k)
}

// Cache memoizes built trees. The zero value is not usable; use New.
type Cache struct {
	lfu *tinylfu.T[digest.Key, *tree.Node]
}

// New returns a Cache holding up to capacity trees.
func New(capacity int) *Cache {
	return &Cache{
		lfu: tinylfu.New[digest.Key, *tree.Node](capacity, capacity*10, hashKey),
	}
}

// Build returns the tree for counts, building and caching it on first use
// and returning the cached tree on every subsequent call with the same
// counts. The returned tree must be treated as read-only: callers that
// mutate Node fields would corrupt it for every other holder of the cache
// entry.
func (c *Cache) Build(counts [tree.NumBytes]uint32) *tree.Node {
	key := digest.Counts(counts)
	if root, ok := c.lfu.Get(key); ok {
		return root
	}
	root := tree.Build(counts)
	c.lfu.Add(key, root)
	return root
}
