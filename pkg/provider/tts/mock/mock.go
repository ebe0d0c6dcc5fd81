// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider in unit tests to script per-voice synthesis outcomes and to
// verify which voices the fallback controller tried, in which order.
package mock

import (
	"context"
	"sync"

	"github.com/voxhire/voxhire/pkg/provider/tts"
)

// Call records a single invocation of Synthesize.
type Call struct {
	// Text is the text passed to Synthesize.
	Text string
	// Voice is the voice profile passed to Synthesize.
	Voice tts.VoiceProfile
}

// Provider is a mock implementation of tts.Provider.
//
// Audio is returned for any voice not listed in FailVoices. Set Err plus an
// entry in FailVoices (keyed by voice ID) to make specific voices fail.
type Provider struct {
	mu sync.Mutex

	// Audio is the byte payload returned on success. Defaults to a small
	// non-empty placeholder when nil.
	Audio []byte

	// FailVoices maps voice IDs to the error their synthesis returns.
	FailVoices map[string]error

	// Calls records every invocation of Synthesize in order.
	Calls []Call
}

// Synthesize records the call and returns Audio, or the scripted error when
// the voice is listed in FailVoices.
func (p *Provider) Synthesize(_ context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, Call{Text: text, Voice: voice})

	if err, ok := p.FailVoices[voice.ID]; ok {
		return nil, err
	}
	if p.Audio == nil {
		return []byte("RIFF....mock-audio"), nil
	}
	return p.Audio, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
