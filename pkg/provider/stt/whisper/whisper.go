// Package whisper provides a local whisper.cpp-backed STT provider using the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a) and
// headers (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.
//
// The model is an expensive shared resource: it is loaded lazily exactly once,
// on the first transcription (or an explicit [Provider.Warm] call), and reused
// for the lifetime of the process. Each Transcribe call creates a fresh
// whisper context — contexts are not thread-safe, but the model is shareable
// across goroutines.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/voxhire/voxhire/pkg/provider/stt"
)

// whisperSampleRate is the fixed input sample rate whisper.cpp expects.
const whisperSampleRate = 16000

// Compile-time assertion that Provider satisfies stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithLanguage sets the default BCP-47 language code used when a Transcribe
// call does not force one. Defaults to "auto" (model-side detection).
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// Provider implements stt.Provider backed by a whisper.cpp model file.
// The zero value is not usable; construct with [New].
//
// Provider is safe for concurrent use. The underlying model is loaded at most
// once per Provider instance.
type Provider struct {
	modelPath string
	language  string

	loadOnce sync.Once
	loadErr  error
	model    whisperlib.Model
}

// New creates a Provider for the whisper.cpp model file at modelPath.
// The model is NOT loaded yet; the first Transcribe (or Warm) call pays the
// load cost. The caller must call Close when the provider is no longer needed.
func New(modelPath string, opts ...Option) (*Provider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	p := &Provider{
		modelPath: modelPath,
		language:  "auto",
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Warm forces the one-time model load. Calling Warm at process startup moves
// the cold-start cost out of the first real request; correctness does not
// depend on it. Safe to call concurrently and more than once.
func (p *Provider) Warm(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("whisper: warm: %w", err)
	}
	return p.load()
}

// Close releases the whisper model if it was loaded.
func (p *Provider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// load performs the guarded one-time model initialisation.
func (p *Provider) load() error {
	p.loadOnce.Do(func() {
		start := time.Now()
		model, err := whisperlib.New(p.modelPath)
		if err != nil {
			p.loadErr = fmt.Errorf("whisper: load model %q: %w", p.modelPath, err)
			return
		}
		p.model = model
		slog.Info("whisper model loaded",
			"path", p.modelPath,
			"duration", time.Since(start),
		)
	})
	return p.loadErr
}

// Transcribe implements stt.Provider. It decodes the WAV file at audioPath,
// downmixes to mono, resamples to 16 kHz if needed, and runs whisper.cpp
// inference with the requested decode options.
func (p *Provider) Transcribe(ctx context.Context, audioPath string, opts stt.DecodeOptions) ([]stt.Segment, error) {
	if err := p.load(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: context cancelled: %w", err)
	}

	samples, err := decodeWAVFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: decode %q: %w", audioPath, err)
	}

	// Each inference gets its own context; contexts are single-use and not
	// thread-safe, the model behind them is shared.
	wctx, err := p.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}

	lang := opts.Language
	if lang == "" {
		lang = p.language
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("whisper: set language %q: %w", lang, err)
	}
	if opts.BeamSize > 0 {
		wctx.SetBeamSize(opts.BeamSize)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	var segments []stt.Segment
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, stt.Segment{
			Text:  text,
			Start: seg.Start,
			End:   seg.End,
		})
	}
	return segments, nil
}
