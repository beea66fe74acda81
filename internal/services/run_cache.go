package services

import (
	"sync"

	"github.com/google/btree"
)

const (
	runCacheDegree = 16

	// DefaultRunCacheEntries bounds the runs remembered for one open file
	DefaultRunCacheEntries = 4096
)

// runItem is one resolved run of logical blocks
type runItem struct {
	logical uint64
	mapping BlockMapping
}

func runLess(a, b runItem) bool {
	return a.logical < b.logical
}

// RunCache remembers resolved block runs of one file, ordered by logical
// block, so sequential reads and chunk walks skip repeated tree descents
type RunCache struct {
	mu         sync.Mutex
	tree       *btree.BTreeG[runItem]
	maxEntries int
}

// NewRunCache creates a run cache holding at most maxEntries runs
func NewRunCache(maxEntries int) *RunCache {
	if maxEntries <= 0 {
		maxEntries = DefaultRunCacheEntries
	}
	return &RunCache{
		tree:       btree.NewG[runItem](runCacheDegree, runLess),
		maxEntries: maxEntries,
	}
}

// Lookup returns the mapping of logical if a cached run covers it. The
// returned Run counts the blocks left in that run.
func (rc *RunCache) Lookup(logical uint64) (BlockMapping, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	var found runItem
	var ok bool
	rc.tree.DescendLessOrEqual(runItem{logical: logical}, func(item runItem) bool {
		found, ok = item, true
		return false
	})
	if !ok {
		return BlockMapping{}, false
	}

	delta := logical - found.logical
	if delta >= found.mapping.Run {
		return BlockMapping{}, false
	}

	m := found.mapping
	if !m.IsHole() {
		m.Physical += delta
	}
	m.Run -= delta
	return m, true
}

// Insert records a mapping starting at logical. When the cache is full it
// starts over.
func (rc *RunCache) Insert(logical uint64, m BlockMapping) {
	if m.Run == 0 {
		return
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.tree.Len() >= rc.maxEntries {
		rc.tree.Clear(false)
	}
	rc.tree.ReplaceOrInsert(runItem{logical: logical, mapping: m})
}

// Len returns the number of cached runs
func (rc *RunCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.tree.Len()
}
