// Package pipeline orchestrates the interview analysis flow: audio file in,
// structured hiring record out, with optional canonical refinement and
// best-effort persistence.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/voxhire/voxhire/internal/canonical"
	"github.com/voxhire/voxhire/internal/extract"
	"github.com/voxhire/voxhire/internal/observe"
	"github.com/voxhire/voxhire/internal/resilience"
	"github.com/voxhire/voxhire/internal/store"
)

const defaultStageTimeout = 2 * time.Minute

// Analysis is the result of processing one interview recording.
type Analysis struct {
	// AudioPath is the input recording.
	AudioPath string

	// Transcript is the recognised text, or the failure sentinel when
	// TranscriptFailed is set.
	Transcript string

	// TranscriptFailed reports that every decode strategy failed and the
	// record below holds defaults.
	TranscriptFailed bool

	// Strategy names the decode attempt that produced the transcript.
	Strategy string

	// Record is the structured extraction result, canonically refined when
	// refinement is enabled.
	Record *extract.Record

	// Outcome reports how Record was obtained.
	Outcome extract.Outcome

	// Refined reports that the canonical refinement pass ran.
	Refined bool

	// LogID is the persisted interview log row ID, zero when persistence is
	// disabled or the write failed.
	LogID int64
}

// Pipeline wires the transcription fallback, extraction engine, canonical
// matcher, and synthesis fallback into one flow. Matcher, synthesiser, and
// store are optional; a nil field disables that stage.
//
// Safe for concurrent use.
type Pipeline struct {
	transcriber *resilience.TranscribeFallback
	extractor   *extract.Engine
	matcher     *canonical.Matcher
	synth       *resilience.SynthFallback
	logStore    *store.Store

	learn        bool
	stageTimeout time.Duration
	metrics      *observe.Metrics
	log          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMatcher enables the canonical refinement pass. When learn is true,
// unmatched extracted values are inserted as new canonical labels, so the
// vocabularies grow with each analysed interview.
func WithMatcher(m *canonical.Matcher, learn bool) Option {
	return func(p *Pipeline) {
		p.matcher = m
		p.learn = learn
	}
}

// WithSynthesizer enables SpeakAnswer.
func WithSynthesizer(s *resilience.SynthFallback) Option {
	return func(p *Pipeline) {
		p.synth = s
	}
}

// WithStore enables best-effort persistence of analyses.
func WithStore(s *store.Store) Option {
	return func(p *Pipeline) {
		p.logStore = s
	}
}

// WithStageTimeout bounds each remote stage. Defaults to 2 minutes.
func WithStageTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.stageTimeout = d
		}
	}
}

// WithMetrics sets the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// New creates a Pipeline over the required transcriber and extractor.
func New(transcriber *resilience.TranscribeFallback, extractor *extract.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		transcriber:  transcriber,
		extractor:    extractor,
		stageTimeout: defaultStageTimeout,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// Analyze processes the recording at audioPath end to end. Transcription and
// extraction never fail the call: a dead model or a garbled reply yields a
// default record with the corresponding flags set. Only refinement
// infrastructure errors (embedding or index outages) are returned, and then
// together with the unrefined analysis.
func (p *Pipeline) Analyze(ctx context.Context, audioPath string) (*Analysis, error) {
	a := &Analysis{AudioPath: audioPath}

	start := time.Now()
	tr := p.transcriber.Transcribe(ctx, audioPath)
	p.metrics.TranscribeDuration.Record(ctx, time.Since(start).Seconds())
	status := "ok"
	if tr.Failed {
		status = "failed"
	}
	p.metrics.RecordTranscriptionAttempt(ctx, tr.Strategy, status)

	a.Transcript = tr.Text
	a.TranscriptFailed = tr.Failed
	a.Strategy = tr.Strategy
	if tr.Failed {
		// Nothing to extract from the sentinel; skip the model call.
		p.log.Warn("transcription failed for all strategies", "audio", audioPath)
		a.Record = extract.DefaultRecord()
		a.Outcome = extract.OutcomeUnparseable
	} else {
		extractCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
		start = time.Now()
		a.Record, a.Outcome = p.extractor.Extract(extractCtx, a.Transcript)
		cancel()
		p.metrics.ExtractDuration.Record(ctx, time.Since(start).Seconds())
		p.metrics.RecordExtraction(ctx, string(a.Outcome))
	}

	var refineErr error
	if p.matcher != nil && a.Outcome == extract.OutcomeOK {
		refineCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
		start = time.Now()
		refineErr = p.refine(refineCtx, a.Record)
		cancel()
		p.metrics.MatchDuration.Record(ctx, time.Since(start).Seconds())
		a.Refined = refineErr == nil
	}

	p.persist(ctx, a)

	if refineErr != nil {
		return a, fmt.Errorf("pipeline: refine: %w", refineErr)
	}
	return a, nil
}

// refine replaces extracted values with canonical labels where a close enough
// match exists. Unmatched values are kept verbatim and, when learning is
// enabled, inserted as new canonical labels for future matches.
func (p *Pipeline) refine(ctx context.Context, rec *extract.Record) error {
	if rec.CandidateName != "" && rec.CandidateName != "Unknown" {
		name, err := p.canonicalize(ctx, canonical.CollectionNames, rec.CandidateName)
		if err != nil {
			return err
		}
		rec.CandidateName = name
	}
	if rec.DesiredRole != "" && rec.DesiredRole != "Unknown" {
		role, err := p.canonicalize(ctx, canonical.CollectionRoles, rec.DesiredRole)
		if err != nil {
			return err
		}
		rec.DesiredRole = role
	}
	for i, skill := range rec.Skills {
		s, err := p.canonicalize(ctx, canonical.CollectionSkills, skill)
		if err != nil {
			return err
		}
		rec.Skills[i] = s
	}
	if p.learn && rec.YearsExperience != nil {
		// Years are only learned, never rewritten: a close-sounding number
		// is still a different number.
		label := strconv.FormatFloat(*rec.YearsExperience, 'f', -1, 64)
		if err := p.matcher.AddCanonical(ctx, canonical.CollectionYears, label); err != nil {
			return err
		}
	}
	return nil
}

// canonicalize resolves one value against a collection, returning the
// canonical label on a match and the value unchanged otherwise.
func (p *Pipeline) canonicalize(ctx context.Context, coll canonical.Collection, value string) (string, error) {
	label, ok, err := p.matcher.Match(ctx, coll, value)
	if err != nil {
		p.metrics.RecordCanonicalMatch(ctx, string(coll), "error")
		return "", err
	}
	if ok {
		p.metrics.RecordCanonicalMatch(ctx, string(coll), "matched")
		return label, nil
	}
	p.metrics.RecordCanonicalMatch(ctx, string(coll), "unmatched")
	if p.learn {
		if err := p.matcher.AddCanonical(ctx, coll, value); err != nil {
			return "", err
		}
	}
	return value, nil
}

// persist writes the analysis to the interview log. Failures are logged and
// swallowed so a database outage never loses an analysis result.
func (p *Pipeline) persist(ctx context.Context, a *Analysis) {
	if p.logStore == nil {
		return
	}
	id, err := p.logStore.LogInterview(ctx, store.Entry{
		Filename:      filepath.Base(a.AudioPath),
		Transcription: a.Transcript,
		Record:        *a.Record,
	})
	if err != nil {
		p.log.Warn("interview log write failed", "audio", a.AudioPath, "error", err)
		return
	}
	a.LogID = id
}

// SpeakAnswer renders answer text to an audio file via the synthesis
// fallback.
func (p *Pipeline) SpeakAnswer(ctx context.Context, text, outputPath string) error {
	if p.synth == nil {
		return fmt.Errorf("pipeline: no synthesizer configured")
	}
	synthCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	start := time.Now()
	err := p.synth.Synthesize(synthCtx, text, outputPath)
	p.metrics.SynthDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return err
	}
	return nil
}

// AnswerQuestion answers an ad-hoc question about a transcript.
func (p *Pipeline) AnswerQuestion(ctx context.Context, transcript, question string) (string, error) {
	qCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	return p.extractor.AnswerQuestion(qCtx, transcript, question)
}
