// Package config provides the configuration schema and YAML loader for
// the Voxguard call-risk analysis server.
//
// All values are read once at startup and treated as read-only
// afterwards — scoring thresholds and multipliers are shared by reference
// across every session and must never be mutated while sessions run.
package config

// LogLevel controls log verbosity for the Voxguard server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure, typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Scoring ScoringConfig `yaml:"scoring"`
	Stream  StreamConfig  `yaml:"stream"`
	History HistoryConfig `yaml:"history"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ScoringConfig tunes the risk engine and monitoring thresholds.
type ScoringConfig struct {
	// IntentMultipliers maps intent tiers ("low", "medium", "high") to the
	// sensitivity multiplier applied to the raw heuristic score.
	IntentMultipliers map[string]float64 `yaml:"intent_multipliers"`

	// ChallengeThreshold is the score at which the verdict moves from
	// FAST_LANE to COGNITIVE_TEST. Default 30.
	ChallengeThreshold float64 `yaml:"challenge_threshold"`

	// BlockThreshold is the score at which the verdict becomes
	// BLOCK_IMMEDIATE. Default 70.
	BlockThreshold float64 `yaml:"block_threshold"`

	// AlertThreshold is the per-session score above which the monitor
	// raises an alert. Default 70.
	AlertThreshold float64 `yaml:"alert_threshold"`
}

// StreamConfig tunes per-session chunk handling.
type StreamConfig struct {
	// QueueCapacity is the buffered chunk queue length per session. When a
	// session falls behind the 500 ms chunk cadence the queue absorbs the
	// backlog; producers block once it is full (chunks are never dropped).
	// Default 32.
	QueueCapacity int `yaml:"queue_capacity"`

	// ChunkCadenceMs is the nominal chunk arrival interval, used to
	// express queue depth as processing lag. Default 500.
	ChunkCadenceMs int `yaml:"chunk_cadence_ms"`
}

// HistoryConfig configures optional call-record persistence.
type HistoryConfig struct {
	// Enabled turns on persistence of batch analyses and session
	// summaries.
	Enabled bool `yaml:"enabled"`

	// PostgresURL is the connection string for the postgres-backed store.
	// Leave empty to use the in-memory store.
	PostgresURL string `yaml:"postgres_url"`
}
