// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a batch transcription engine (e.g., a local
// whisper.cpp model) and exposes a uniform interface: a decodable audio file
// goes in, an ordered sequence of transcribed segments comes out. VoxHire
// processes complete interview recordings, so the interface is deliberately
// batch-shaped — there is no streaming session handle.
//
// Implementations must be safe for concurrent use; multiple recordings may be
// transcribed at the same time.
package stt

import (
	"context"
	"strings"
	"time"
)

// DecodeOptions carries per-call decoding hints for a transcription request.
// The zero value requests the provider's defaults: automatic language
// detection and the default decoding strategy.
type DecodeOptions struct {
	// Language is the BCP-47 language code to force (e.g., "en", "de").
	// An empty string lets the provider auto-detect the language.
	Language string

	// BeamSize sets the beam-search width for decoding. Zero means use the
	// provider default (typically greedy decoding). Larger values trade
	// latency for accuracy on difficult audio.
	BeamSize int
}

// Segment is a single transcribed span of speech, in chronological order.
type Segment struct {
	// Text is the transcribed speech content, trimmed of surrounding whitespace.
	Text string

	// Start and End bound the segment relative to the beginning of the recording.
	Start time.Duration
	End   time.Duration
}

// Provider is the abstraction over any batch STT backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Transcribe decodes the audio file at audioPath and returns its transcribed
	// segments in chronological order. An empty slice with a nil error means the
	// recording contained no recognisable speech.
	//
	// Returns an error if the audio cannot be decoded, the model fails, or ctx
	// is cancelled.
	Transcribe(ctx context.Context, audioPath string, opts DecodeOptions) ([]Segment, error)
}

// JoinSegments concatenates segment texts in chronological order, separated by
// single spaces. Each text is trimmed of surrounding whitespace first; texts
// that trim to nothing are skipped.
func JoinSegments(segments []Segment) string {
	var out []byte
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if len(out) > 0 {
			out = append(out, ' ')
		}
		out = append(out, text...)
	}
	return string(out)
}
