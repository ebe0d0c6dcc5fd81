// Package canonical normalises extracted entity strings against vocabularies
// of known labels using embedding similarity. Four fixed collections hold the
// vocabularies: candidate names, years of experience, skills, and roles.
package canonical

import (
	"context"
	"fmt"
)

// Collection identifies one of the four canonical vocabularies.
type Collection string

const (
	CollectionNames  Collection = "names"
	CollectionYears  Collection = "years_experience"
	CollectionSkills Collection = "skills"
	CollectionRoles  Collection = "roles"
)

// Collections returns all valid collections in a stable order.
func Collections() []Collection {
	return []Collection{CollectionNames, CollectionYears, CollectionSkills, CollectionRoles}
}

// IsValid reports whether c names one of the four collections.
func (c Collection) IsValid() bool {
	switch c {
	case CollectionNames, CollectionYears, CollectionSkills, CollectionRoles:
		return true
	}
	return false
}

// Entry is a stored canonical label with its embedding vector.
type Entry struct {
	// ID is the stable identity of the entry within its collection, the
	// lower-cased label.
	ID string

	// Label is the canonical surface form as originally added.
	Label string

	// Vector is the label's embedding.
	Vector []float32
}

// Match is the result of a nearest-neighbour lookup.
type Match struct {
	// Label is the canonical label of the nearest entry.
	Label string

	// Distance is the cosine distance between the query vector and the
	// nearest entry, in [0, 2].
	Distance float64
}

// Index stores embedded labels per collection and answers nearest-neighbour
// queries. Implementations must be safe for concurrent use.
type Index interface {
	// Add inserts or replaces an entry in the collection, keyed by its
	// lower-cased label.
	Add(ctx context.Context, collection Collection, entry Entry) error

	// Nearest returns the single nearest entry to vector in the collection.
	// ok is false when the collection is empty.
	Nearest(ctx context.Context, collection Collection, vector []float32) (m Match, ok bool, err error)
}

func validateCollection(c Collection) error {
	if !c.IsValid() {
		return fmt.Errorf("canonical: unknown collection %q", c)
	}
	return nil
}
