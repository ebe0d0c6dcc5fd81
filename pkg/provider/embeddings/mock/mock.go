// Package mock provides a test double for the embeddings.Provider interface.
//
// Use Provider in unit tests to feed deterministic vectors to the canonical
// matcher without a live embedding backend. Identical inputs always map to
// identical vectors, so exact re-adds land at distance zero.
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/voxhire/voxhire/pkg/provider/embeddings"
)

// Provider is a mock implementation of embeddings.Provider.
//
// Vectors resolves input text (lower-cased) to a fixed vector. Texts absent
// from Vectors fall back to EmbedFunc when set, otherwise to a zero vector of
// length Dims. Set Err to inject an embedding failure.
type Provider struct {
	mu sync.Mutex

	// Vectors maps lower-cased input text to its embedding.
	Vectors map[string][]float32

	// EmbedFunc, when non-nil, computes vectors for texts missing from Vectors.
	EmbedFunc func(text string) []float32

	// Err, if non-nil, is returned by Embed and EmbedBatch.
	Err error

	// Dims is the reported dimensionality. Defaults to 3 when zero.
	Dims int

	// EmbedCalls records every text passed to Embed, in order.
	EmbedCalls []string
}

// Embed records the call and returns the configured vector for text.
func (p *Provider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.EmbedCalls = append(p.EmbedCalls, text)
	if p.Err != nil {
		return nil, p.Err
	}
	return p.vectorFor(text), nil
}

// EmbedBatch returns configured vectors for each text.
func (p *Provider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.vectorFor(t)
	}
	return out, nil
}

// Dimensions returns Dims, defaulting to 3.
func (p *Provider) Dimensions() int {
	if p.Dims == 0 {
		return 3
	}
	return p.Dims
}

// ModelID identifies the mock in logs.
func (p *Provider) ModelID() string { return "mock-embed" }

// vectorFor resolves text to a vector. Caller holds p.mu.
func (p *Provider) vectorFor(text string) []float32 {
	if v, ok := p.Vectors[strings.ToLower(text)]; ok {
		return v
	}
	if p.EmbedFunc != nil {
		return p.EmbedFunc(text)
	}
	return make([]float32, p.Dimensions())
}

// Ensure Provider implements embeddings.Provider at compile time.
var _ embeddings.Provider = (*Provider)(nil)
