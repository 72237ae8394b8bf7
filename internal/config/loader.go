package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// validIntents lists the intent tiers the scoring engine recognises.
var validIntents = map[string]bool{"low": true, "medium": true, "high": true}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
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

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed
// from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Scoring.ChallengeThreshold == 0 {
		cfg.Scoring.ChallengeThreshold = 30
	}
	if cfg.Scoring.BlockThreshold == 0 {
		cfg.Scoring.BlockThreshold = 70
	}
	if cfg.Scoring.AlertThreshold == 0 {
		cfg.Scoring.AlertThreshold = 70
	}
	if cfg.Stream.QueueCapacity == 0 {
		cfg.Stream.QueueCapacity = 32
	}
	if cfg.Stream.ChunkCadenceMs == 0 {
		cfg.Stream.ChunkCadenceMs = 500
	}
}

// Validate checks that cfg contains a coherent set of values. It returns
// a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	for intent, mult := range cfg.Scoring.IntentMultipliers {
		if !validIntents[intent] {
			errs = append(errs, fmt.Errorf("scoring.intent_multipliers: unknown intent %q; valid values: low, medium, high", intent))
		}
		if mult <= 0 {
			errs = append(errs, fmt.Errorf("scoring.intent_multipliers[%s] must be positive, got %g", intent, mult))
		}
	}
	if cfg.Scoring.ChallengeThreshold >= cfg.Scoring.BlockThreshold {
		errs = append(errs, fmt.Errorf("scoring.challenge_threshold (%g) must be below scoring.block_threshold (%g)",
			cfg.Scoring.ChallengeThreshold, cfg.Scoring.BlockThreshold))
	}
	if cfg.Scoring.BlockThreshold > 100 {
		errs = append(errs, fmt.Errorf("scoring.block_threshold %g exceeds the score range [0, 100]", cfg.Scoring.BlockThreshold))
	}

	if cfg.Stream.QueueCapacity < 1 {
		errs = append(errs, fmt.Errorf("stream.queue_capacity must be at least 1, got %d", cfg.Stream.QueueCapacity))
	}
	if cfg.Stream.ChunkCadenceMs < 1 {
		errs = append(errs, fmt.Errorf("stream.chunk_cadence_ms must be at least 1, got %d", cfg.Stream.ChunkCadenceMs))
	}

	if cfg.History.Enabled && cfg.History.PostgresURL == "" {
		errs = append(errs, errors.New("history.enabled requires history.postgres_url"))
	}

	return errors.Join(errs...)
}
