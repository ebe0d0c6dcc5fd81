package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":        {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq"},
	"embeddings": {"openai", "ollama"},
	"tts":        {"elevenlabs", "coqui"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; extraction will return default records")
	}

	// STT
	if cfg.STT.ModelPath == "" {
		errs = append(errs, errors.New("stt.model_path is required"))
	}
	if cfg.STT.BeamSize < 0 {
		errs = append(errs, fmt.Errorf("stt.beam_size %d must not be negative", cfg.STT.BeamSize))
	}

	// Canonical matcher
	if cfg.Canonical.Index != "" && !cfg.Canonical.Index.IsValid() {
		errs = append(errs, fmt.Errorf("canonical.index %q is invalid; valid values: memory, postgres", cfg.Canonical.Index))
	}
	if cfg.Canonical.Index == IndexPostgres {
		if cfg.Canonical.PostgresDSN == "" {
			errs = append(errs, errors.New("canonical.postgres_dsn is required when canonical.index is postgres"))
		}
		if cfg.Canonical.EmbeddingDimensions <= 0 {
			errs = append(errs, errors.New("canonical.embedding_dimensions is required when canonical.index is postgres"))
		}
	}
	if t := cfg.Canonical.Threshold; t != 0 && (t <= 0 || t > 1) {
		errs = append(errs, fmt.Errorf("canonical.threshold %.2f is out of range (0, 1]", t))
	}
	if cfg.Canonical.Refine && cfg.Providers.Embeddings.Name == "" {
		errs = append(errs, errors.New("canonical.refine requires providers.embeddings to be configured"))
	}
	if cfg.Canonical.Learn && !cfg.Canonical.Refine {
		slog.Warn("canonical.learn is set but canonical.refine is not; learned labels will never be used")
	}

	// TTS voices
	tts := cfg.Providers.TTS
	if tts.Name != "" {
		if tts.PrimaryVoice == "" || tts.SecondaryVoice == "" {
			errs = append(errs, errors.New("providers.tts requires both primary_voice and secondary_voice"))
		} else if tts.PrimaryVoice == tts.SecondaryVoice {
			errs = append(errs, fmt.Errorf("providers.tts.secondary_voice %q must differ from primary_voice", tts.SecondaryVoice))
		}
	}

	// Pipeline
	if cfg.Pipeline.StageTimeout < 0 {
		errs = append(errs, fmt.Errorf("pipeline.stage_timeout %s must not be negative", cfg.Pipeline.StageTimeout))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
