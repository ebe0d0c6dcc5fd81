package resilience

import (
	"context"

	"github.com/voxhire/voxhire/pkg/provider/stt"
)

// FailureText is the sentinel transcript returned when every decode strategy
// fails. It is a fixed human-readable message so callers can show a clear
// failure instead of silently logging blank analysis, and it is
// distinguishable from a genuinely empty transcript via
// [TranscriptResult.Failed].
const FailureText = "Audio transcription failed. Please try with a different audio file."

const (
	defaultLanguage = "en"
	defaultBeamSize = 5
)

// TranscriptResult is the outcome of a fallback transcription. Text is never
// returned alone: Failed distinguishes the sentinel from real output, and
// Strategy records which decode attempt produced the text.
type TranscriptResult struct {
	// Text is the transcript: segment texts joined by single spaces and
	// trimmed, or [FailureText] when Failed is true.
	Text string

	// Strategy names the decode attempt that succeeded ("auto",
	// "forced-language", "wide-beam"). Empty when Failed is true.
	Strategy string

	// Failed reports that every strategy raised and Text holds the sentinel.
	Failed bool
}

// TranscribeOption is a functional option for configuring a TranscribeFallback.
type TranscribeOption func(*TranscribeFallback)

// WithFallbackLanguage sets the language forced by the second decode
// strategy. Defaults to "en".
func WithFallbackLanguage(lang string) TranscribeOption {
	return func(f *TranscribeFallback) {
		if lang != "" {
			f.language = lang
		}
	}
}

// WithBeamSize sets the enlarged beam-search width used by the third decode
// strategy. Defaults to 5.
func WithBeamSize(size int) TranscribeOption {
	return func(f *TranscribeFallback) {
		if size > 0 {
			f.beamSize = size
		}
	}
}

// TranscribeFallback drives a single shared [stt.Provider] through a fixed
// ladder of decode strategies:
//
//  1. default invocation (automatic language detection, default decoding);
//  2. language forced to the configured default target language;
//  3. enlarged beam-search width.
//
// The first strategy to complete without error wins — transcript quality is
// never compared between strategies. TranscribeFallback never returns an
// error; total failure yields the [FailureText] sentinel.
//
// Safe for concurrent use: all state is set at construction.
type TranscribeFallback struct {
	provider stt.Provider
	language string
	beamSize int
}

// NewTranscribeFallback creates a TranscribeFallback over provider. The
// provider owns the underlying model; it is shared across all calls and
// loaded once on first use.
func NewTranscribeFallback(provider stt.Provider, opts ...TranscribeOption) *TranscribeFallback {
	f := &TranscribeFallback{
		provider: provider,
		language: defaultLanguage,
		beamSize: defaultBeamSize,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Transcribe runs the strategy ladder against the audio file at audioPath.
// It never returns an error: any error from an attempt is caught, logged, and
// the next strategy is tried; when all three raise, the result carries the
// sentinel [FailureText] with Failed set.
func (f *TranscribeFallback) Transcribe(ctx context.Context, audioPath string) TranscriptResult {
	attempt := func(opts stt.DecodeOptions) func() ([]stt.Segment, error) {
		return func() ([]stt.Segment, error) {
			return f.provider.Transcribe(ctx, audioPath, opts)
		}
	}

	segments, strategy, err := runSteps("transcribe", []step[[]stt.Segment]{
		{name: "auto", run: attempt(stt.DecodeOptions{})},
		{name: "forced-language", run: attempt(stt.DecodeOptions{Language: f.language})},
		{name: "wide-beam", run: attempt(stt.DecodeOptions{BeamSize: f.beamSize})},
	})
	if err != nil {
		return TranscriptResult{Text: FailureText, Failed: true}
	}

	return TranscriptResult{
		Text:     stt.JoinSegments(segments),
		Strategy: strategy,
	}
}
