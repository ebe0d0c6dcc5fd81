package resilience

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voxhire/voxhire/pkg/provider/tts"
)

// SynthFallback synthesises spoken answers with a primary voice, retrying
// exactly once with a distinct secondary voice on failure. Unlike
// transcription there is no safe silent substitute for absent audio, so a
// double failure is surfaced to the caller as an error wrapping
// [ErrAllFailed].
//
// Safe for concurrent use: all state is set at construction.
type SynthFallback struct {
	provider  tts.Provider
	primary   tts.VoiceProfile
	secondary tts.VoiceProfile
}

// NewSynthFallback creates a SynthFallback over provider. primary and
// secondary must name distinct voices; a retry with the same voice would just
// repeat the failure.
func NewSynthFallback(provider tts.Provider, primary, secondary tts.VoiceProfile) (*SynthFallback, error) {
	if primary.ID == "" || secondary.ID == "" {
		return nil, errors.New("resilience: both voice IDs must be set")
	}
	if primary.ID == secondary.ID {
		return nil, fmt.Errorf("resilience: primary and secondary voice are both %q", primary.ID)
	}
	return &SynthFallback{
		provider:  provider,
		primary:   primary,
		secondary: secondary,
	}, nil
}

// Synthesize renders text to an audio file at outputPath. The output
// directory is created if missing. The file is written via a temporary
// sibling and renamed into place, so a failure of both voices leaves no
// partial file behind.
func (f *SynthFallback) Synthesize(ctx context.Context, text, outputPath string) error {
	voice := func(v tts.VoiceProfile) func() ([]byte, error) {
		return func() ([]byte, error) {
			return f.provider.Synthesize(ctx, text, v)
		}
	}

	audio, _, err := runSteps("synthesize", []step[[]byte]{
		{name: f.primary.ID, run: voice(f.primary)},
		{name: f.secondary.ID, run: voice(f.secondary)},
	})
	if err != nil {
		return fmt.Errorf("resilience: synthesize: %w", err)
	}

	return writeFileAtomic(outputPath, audio)
}

// writeFileAtomic writes data to path via a temp file in the same directory
// followed by a rename. The directory is created first (idempotent).
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("resilience: create output dir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("resilience: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("resilience: write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("resilience: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("resilience: rename into place: %w", err)
	}
	return nil
}
