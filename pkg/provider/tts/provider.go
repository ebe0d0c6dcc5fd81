// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs or a
// local Coqui server) and exposes a uniform batch interface: an answer string
// plus a voice profile in, encoded audio bytes out. FAQ answers are short and
// synthesised on demand, so there is no streaming path.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// VoiceProfile describes a synthesis voice.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier
	// (e.g., an ElevenLabs voice ID or a Coqui speaker name).
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider identifies which TTS backend this voice belongs to.
	Provider string
}

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use; multiple answers may be
// synthesised in parallel.
type Provider interface {
	// Synthesize renders text in the given voice and returns the full encoded
	// audio (container format is provider-specific: ElevenLabs returns MP3,
	// Coqui returns WAV). Returns an error if the voice is unknown, the
	// service fails, or ctx is cancelled.
	Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error)
}
