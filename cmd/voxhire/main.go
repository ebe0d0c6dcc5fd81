// Command voxhire is the interview analysis server: it transcribes interview
// recordings, extracts structured hiring records, and synthesises spoken
// answers for generated FAQ items.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/voxhire/voxhire/internal/canonical"
	"github.com/voxhire/voxhire/internal/config"
	"github.com/voxhire/voxhire/internal/extract"
	"github.com/voxhire/voxhire/internal/health"
	"github.com/voxhire/voxhire/internal/observe"
	"github.com/voxhire/voxhire/internal/pipeline"
	"github.com/voxhire/voxhire/internal/resilience"
	"github.com/voxhire/voxhire/internal/server"
	"github.com/voxhire/voxhire/internal/store"
	"github.com/voxhire/voxhire/pkg/provider/embeddings"
	ollamaembed "github.com/voxhire/voxhire/pkg/provider/embeddings/ollama"
	oaembed "github.com/voxhire/voxhire/pkg/provider/embeddings/openai"
	"github.com/voxhire/voxhire/pkg/provider/llm"
	"github.com/voxhire/voxhire/pkg/provider/llm/anyllm"
	oallm "github.com/voxhire/voxhire/pkg/provider/llm/openai"
	"github.com/voxhire/voxhire/pkg/provider/stt/whisper"
	"github.com/voxhire/voxhire/pkg/provider/tts"
	"github.com/voxhire/voxhire/pkg/provider/tts/coqui"
	"github.com/voxhire/voxhire/pkg/provider/tts/elevenlabs"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxhire: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxhire: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxhire starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "voxhire"})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	// ── Speech model ──────────────────────────────────────────────────────────
	sttProvider, err := whisper.New(cfg.STT.ModelPath)
	if err != nil {
		slog.Error("failed to create whisper provider", "err", err)
		return 1
	}
	defer sttProvider.Close()

	var transcribeOpts []resilience.TranscribeOption
	if cfg.STT.Language != "" {
		transcribeOpts = append(transcribeOpts, resilience.WithFallbackLanguage(cfg.STT.Language))
	}
	if cfg.STT.BeamSize > 0 {
		transcribeOpts = append(transcribeOpts, resilience.WithBeamSize(cfg.STT.BeamSize))
	}
	transcriber := resilience.NewTranscribeFallback(sttProvider, transcribeOpts...)

	// ── LLM + extraction ──────────────────────────────────────────────────────
	llmProvider, err := buildLLM(cfg.Providers.LLM)
	if err != nil {
		slog.Error("failed to create llm provider", "err", err)
		return 1
	}
	extractor := extract.NewEngine(llmProvider, extract.WithLogger(logger))

	// ── Canonical matcher ─────────────────────────────────────────────────────
	var matcher *canonical.Matcher
	if cfg.Canonical.Refine {
		matcher, err = buildMatcher(ctx, cfg)
		if err != nil {
			slog.Error("failed to create canonical matcher", "err", err)
			return 1
		}
	}

	// ── Synthesis ─────────────────────────────────────────────────────────────
	var synth *resilience.SynthFallback
	if cfg.Providers.TTS.Name != "" {
		synth, err = buildSynth(cfg.Providers.TTS)
		if err != nil {
			slog.Error("failed to create tts provider", "err", err)
			return 1
		}
	}

	// ── Interview log ─────────────────────────────────────────────────────────
	var logStore *store.Store
	if cfg.Canonical.PostgresDSN != "" {
		logStore, err = store.New(ctx, cfg.Canonical.PostgresDSN)
		if err != nil {
			slog.Warn("interview log unavailable, continuing without persistence", "err", err)
			logStore = nil
		} else {
			defer logStore.Close()
		}
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	pipeOpts := []pipeline.Option{
		pipeline.WithStageTimeout(cfg.Pipeline.StageTimeout),
		pipeline.WithLogger(logger),
	}
	if matcher != nil {
		pipeOpts = append(pipeOpts, pipeline.WithMatcher(matcher, cfg.Canonical.Learn))
	}
	if synth != nil {
		pipeOpts = append(pipeOpts, pipeline.WithSynthesizer(synth))
	}
	if logStore != nil {
		pipeOpts = append(pipeOpts, pipeline.WithStore(logStore))
	}
	pipe := pipeline.New(transcriber, extractor, pipeOpts...)

	// ── Warm-up ───────────────────────────────────────────────────────────────
	// Model load and canonical seeding run concurrently; failure is logged
	// but not fatal, the first real request pays the cost instead.
	warmup, warmupCtx := errgroup.WithContext(ctx)
	warmup.Go(func() error {
		if err := sttProvider.Warm(warmupCtx); err != nil {
			slog.Warn("whisper model warm-up failed", "err", err)
		}
		return nil
	})
	if matcher != nil {
		warmup.Go(func() error {
			seedMatcher(warmupCtx, matcher, cfg.Canonical.Seed)
			return nil
		})
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srvOpts := []server.Option{server.WithLogger(logger)}
	if logStore != nil {
		srvOpts = append(srvOpts, server.WithStore(logStore))
	}
	api, err := server.New(pipe, cfg.Server.UploadDir, cfg.Server.AudioDir, srvOpts...)
	if err != nil {
		slog.Error("failed to create http server", "err", err)
		return 1
	}

	mux := http.NewServeMux()
	api.Register(mux)
	health.New(health.ModelChecker(sttProvider.Warm)).Register(mux)

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(observe.DefaultMetrics())(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("GET /metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "err", err)
			}
		}()
		slog.Info("metrics endpoint listening", "addr", cfg.Server.MetricsAddr)
	}

	_ = warmup.Wait()
	slog.Info("server ready — press Ctrl+C to shut down", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "err", err)
			return 1
		}
	case <-ctx.Done():
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// buildLLM constructs the completion provider named in entry. "openai" uses
// the official SDK directly; every other name goes through any-llm.
func buildLLM(entry config.ProviderEntry) (llm.Provider, error) {
	switch entry.Name {
	case "":
		return nil, errors.New("providers.llm.name is required")
	case "openai":
		var opts []oallm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oallm.WithBaseURL(entry.BaseURL))
		}
		return oallm.New(entry.APIKey, entry.Model, opts...)
	case "ollama":
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.NewOllama(entry.Model, opts...)
	default:
		var opts []anyllmlib.Option
		if entry.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New(entry.Name, entry.Model, opts...)
	}
}

// buildEmbeddings constructs the embeddings provider named in entry.
func buildEmbeddings(entry config.ProviderEntry) (embeddings.Provider, error) {
	switch entry.Name {
	case "openai":
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	case "ollama":
		return ollamaembed.New(entry.BaseURL, entry.Model)
	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", entry.Name)
	}
}

// buildMatcher constructs the canonical matcher with the configured index
// backend.
func buildMatcher(ctx context.Context, cfg *config.Config) (*canonical.Matcher, error) {
	embedder, err := buildEmbeddings(cfg.Providers.Embeddings)
	if err != nil {
		return nil, err
	}

	var index canonical.Index
	switch cfg.Canonical.Index {
	case config.IndexPostgres:
		index, err = canonical.NewPGIndex(ctx, cfg.Canonical.PostgresDSN, cfg.Canonical.EmbeddingDimensions)
		if err != nil {
			return nil, err
		}
	default:
		index = canonical.NewMemIndex()
	}

	opts := []canonical.MatcherOption{canonical.WithMatcherLogger(slog.Default())}
	if cfg.Canonical.Threshold > 0 {
		opts = append(opts, canonical.WithThreshold(cfg.Canonical.Threshold))
	}
	if cfg.Canonical.Phonetic {
		opts = append(opts, canonical.WithPhoneticPrePass())
	}
	return canonical.NewMatcher(embedder, index, opts...), nil
}

// buildSynth constructs the TTS provider and the voice fallback over it.
func buildSynth(entry config.TTSEntry) (*resilience.SynthFallback, error) {
	var (
		provider tts.Provider
		err      error
	)
	switch entry.Name {
	case "elevenlabs":
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		provider, err = elevenlabs.New(entry.APIKey, opts...)
	case "coqui":
		provider, err = coqui.New(entry.BaseURL)
	default:
		return nil, fmt.Errorf("unknown tts provider %q", entry.Name)
	}
	if err != nil {
		return nil, err
	}

	primary := tts.VoiceProfile{ID: entry.PrimaryVoice, Provider: entry.Name}
	secondary := tts.VoiceProfile{ID: entry.SecondaryVoice, Provider: entry.Name}
	return resilience.NewSynthFallback(provider, primary, secondary)
}

// seedMatcher inserts the configured seed labels. Failures are logged per
// label; seeding is an optimisation, not a correctness requirement.
func seedMatcher(ctx context.Context, m *canonical.Matcher, seed config.SeedConfig) {
	for coll, labels := range map[canonical.Collection][]string{
		canonical.CollectionNames:  seed.Names,
		canonical.CollectionSkills: seed.Skills,
		canonical.CollectionRoles:  seed.Roles,
	} {
		for _, label := range labels {
			if err := m.AddCanonical(ctx, coll, label); err != nil {
				slog.Warn("canonical seed failed", "collection", coll, "label", label, "err", err)
			}
		}
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
