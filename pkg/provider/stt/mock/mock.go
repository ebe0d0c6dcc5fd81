// Package mock provides a test double for the stt.Provider interface.
//
// Use Provider in unit tests to script transcription outcomes per call and to
// inspect the DecodeOptions the fallback controller sent, without loading a
// real model.
package mock

import (
	"context"
	"sync"

	"github.com/voxhire/voxhire/pkg/provider/stt"
)

// Call records a single invocation of Transcribe.
type Call struct {
	// AudioPath is the path passed to Transcribe.
	AudioPath string
	// Opts is the DecodeOptions passed to Transcribe.
	Opts stt.DecodeOptions
}

// Result scripts the outcome of one Transcribe invocation.
type Result struct {
	Segments []stt.Segment
	Err      error
}

// Provider is a mock implementation of stt.Provider. Successive Transcribe
// calls consume Results in order; once exhausted, the last Result repeats.
// A Provider with no Results returns nil segments and nil error.
type Provider struct {
	mu sync.Mutex

	// Results is the scripted sequence of outcomes, consumed in call order.
	Results []Result

	// Calls records every invocation of Transcribe in order.
	Calls []Call

	next int
}

// Transcribe records the call and returns the next scripted Result.
func (p *Provider) Transcribe(_ context.Context, audioPath string, opts stt.DecodeOptions) ([]stt.Segment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, Call{AudioPath: audioPath, Opts: opts})

	if len(p.Results) == 0 {
		return nil, nil
	}
	r := p.Results[p.next]
	if p.next < len(p.Results)-1 {
		p.next++
	}
	return r.Segments, r.Err
}

// Reset clears recorded calls and rewinds the scripted results.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
	p.next = 0
}

// Ensure Provider implements stt.Provider at compile time.
var _ stt.Provider = (*Provider)(nil)
