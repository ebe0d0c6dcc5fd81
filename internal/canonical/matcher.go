package canonical

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/voxhire/voxhire/pkg/provider/embeddings"
)

const defaultThreshold = 0.8

// Matcher resolves extracted candidate strings to canonical labels. Each
// candidate is embedded and compared to the nearest stored label in the
// collection; the label is accepted when the cosine distance is below
// 1 - threshold. An optional phonetic pre-pass short-circuits the embedding
// call for strings that sound like a known label (misheard names survive
// transcription better phonetically than semantically).
//
// Safe for concurrent use.
type Matcher struct {
	embedder  embeddings.Provider
	index     Index
	threshold float64
	phonetic  *phoneticScorer
	log       *slog.Logger

	// labels caches the surface forms added through this Matcher so the
	// phonetic pre-pass can scan them without an index round-trip.
	mu     sync.RWMutex
	labels map[Collection][]string
	seen   map[Collection]map[string]struct{}
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithThreshold sets the minimum cosine similarity for an embedding match to
// be accepted. Default 0.8, i.e. a maximum cosine distance of 0.2.
func WithThreshold(t float64) MatcherOption {
	return func(m *Matcher) {
		m.threshold = t
	}
}

// WithPhoneticPrePass enables the Double Metaphone / Jaro-Winkler pre-pass
// before embedding lookups.
func WithPhoneticPrePass() MatcherOption {
	return func(m *Matcher) {
		m.phonetic = newPhoneticScorer()
	}
}

// WithMatcherLogger sets the logger for match diagnostics.
func WithMatcherLogger(log *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		m.log = log
	}
}

// NewMatcher creates a Matcher over the given embedder and index.
func NewMatcher(embedder embeddings.Provider, index Index, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		embedder:  embedder,
		index:     index,
		threshold: defaultThreshold,
		log:       slog.Default(),
		labels:    make(map[Collection][]string),
		seen:      make(map[Collection]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddCanonical embeds label and stores it in the collection, keyed by its
// lower-cased form. Adding the same label twice (in any casing) is a no-op
// beyond refreshing the stored vector.
func (m *Matcher) AddCanonical(ctx context.Context, collection Collection, label string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return fmt.Errorf("canonical: empty label for collection %q", collection)
	}

	vec, err := m.embedder.Embed(ctx, label)
	if err != nil {
		return fmt.Errorf("canonical: embed label %q: %w", label, err)
	}

	id := strings.ToLower(label)
	if err := m.index.Add(ctx, collection, Entry{ID: id, Label: label, Vector: vec}); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[collection] == nil {
		m.seen[collection] = make(map[string]struct{})
	}
	if _, dup := m.seen[collection][id]; !dup {
		m.seen[collection][id] = struct{}{}
		m.labels[collection] = append(m.labels[collection], label)
	}
	return nil
}

// Seed adds every label to the collection, stopping at the first error.
func (m *Matcher) Seed(ctx context.Context, collection Collection, labels []string) error {
	for _, l := range labels {
		if err := m.AddCanonical(ctx, collection, l); err != nil {
			return err
		}
	}
	return nil
}

// Match resolves candidate to a canonical label in the collection. The
// returned label is the normalized (lower-cased) form, the same key entries
// are stored under, so "Python" and "PYTHON" both resolve to "python". ok is
// false when the candidate is empty, the collection is empty, or the nearest
// label is not similar enough. Embedding or index failures are returned as
// errors; the caller decides whether to fall back to the raw candidate.
func (m *Matcher) Match(ctx context.Context, collection Collection, candidate string) (label string, ok bool, err error) {
	if err := validateCollection(collection); err != nil {
		return "", false, err
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false, nil
	}

	if m.phonetic != nil {
		m.mu.RLock()
		known := m.labels[collection]
		m.mu.RUnlock()
		if hit, score, matched := m.phonetic.match(candidate, known); matched {
			m.log.Debug("phonetic match",
				"collection", collection, "candidate", candidate,
				"label", hit, "score", score)
			return strings.ToLower(hit), true, nil
		}
	}

	vec, err := m.embedder.Embed(ctx, candidate)
	if err != nil {
		return "", false, fmt.Errorf("canonical: embed candidate %q: %w", candidate, err)
	}

	match, found, err := m.index.Nearest(ctx, collection, vec)
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	if match.Distance >= 1-m.threshold {
		m.log.Debug("nearest label too distant",
			"collection", collection, "candidate", candidate,
			"label", match.Label, "distance", match.Distance)
		return "", false, nil
	}
	return strings.ToLower(match.Label), true, nil
}
