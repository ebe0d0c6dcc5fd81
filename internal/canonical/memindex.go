package canonical

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
)

// MemIndex is an in-memory Index backed by a linear cosine-distance scan per
// collection. Suitable for the small per-process vocabularies the matcher
// accumulates during a session; use PGIndex for persistence.
type MemIndex struct {
	mu          sync.RWMutex
	collections map[Collection]map[string]Entry
}

var _ Index = (*MemIndex)(nil)

// NewMemIndex returns an empty in-memory index with all four collections
// initialised.
func NewMemIndex() *MemIndex {
	cols := make(map[Collection]map[string]Entry, len(Collections()))
	for _, c := range Collections() {
		cols[c] = make(map[string]Entry)
	}
	return &MemIndex{collections: cols}
}

// Add inserts or replaces entry in the collection.
func (x *MemIndex) Add(_ context.Context, collection Collection, entry Entry) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = strings.ToLower(entry.Label)
	}
	if entry.ID == "" {
		return fmt.Errorf("canonical: empty label for collection %q", collection)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.collections[collection][entry.ID] = entry
	return nil
}

// Nearest scans the collection and returns the entry with the smallest cosine
// distance to vector.
func (x *MemIndex) Nearest(_ context.Context, collection Collection, vector []float32) (Match, bool, error) {
	if err := validateCollection(collection); err != nil {
		return Match{}, false, err
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	best := Match{Distance: math.Inf(1)}
	found := false
	for _, e := range x.collections[collection] {
		d, err := cosineDistance(vector, e.Vector)
		if err != nil {
			return Match{}, false, err
		}
		if d < best.Distance {
			best = Match{Label: e.Label, Distance: d}
			found = true
		}
	}
	if !found {
		return Match{}, false, nil
	}
	return best, true, nil
}

// Len returns the number of entries stored in the collection.
func (x *MemIndex) Len(collection Collection) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.collections[collection])
}

// cosineDistance returns 1 - cos(a, b). A zero-magnitude vector yields the
// maximum distance 1 rather than an error, matching the convention of vector
// stores that treat degenerate vectors as unrelated to everything.
func cosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("canonical: dimension mismatch %d != %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1, nil
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb)), nil
}
