// Command voxguard is the entry point for the Voxguard call-risk
// analysis server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxguard/voxguard/internal/analyze"
	"github.com/voxguard/voxguard/internal/challenge"
	"github.com/voxguard/voxguard/internal/config"
	"github.com/voxguard/voxguard/internal/featuresrc"
	"github.com/voxguard/voxguard/internal/health"
	"github.com/voxguard/voxguard/internal/history"
	"github.com/voxguard/voxguard/internal/observe"
	"github.com/voxguard/voxguard/internal/risk"
	"github.com/voxguard/voxguard/internal/server"
	"github.com/voxguard/voxguard/internal/stream"
)

// version is stamped by the build; "dev" for local builds.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "voxguard: %v\n", err)
			return 1
		}
	} else {
		cfg = config.Default()
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxguard starting",
		"version", version,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"history_enabled", cfg.History.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry first so every component records against the real
	// providers.
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxguard",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// Optional call-history store.
	var store history.Store
	var checkers []health.Checker
	if cfg.History.Enabled {
		pg, err := history.NewPostgres(ctx, cfg.History.PostgresURL)
		if err != nil {
			slog.Error("failed to connect call-history store", "err", err)
			return 1
		}
		defer pg.Close()
		store = pg
		checkers = append(checkers, health.Checker{Name: "database", Check: pg.Ping})
		slog.Info("call-history store connected")
	}

	engine := risk.NewEngine(risk.EngineConfig{
		Multipliers:        intentMultipliers(cfg.Scoring.IntentMultipliers),
		ChallengeThreshold: cfg.Scoring.ChallengeThreshold,
		BlockThreshold:     cfg.Scoring.BlockThreshold,
	})
	selector := &challenge.Selector{}
	source := featuresrc.Simulated{}

	analyzer := analyze.New(analyze.Config{
		Engine:         engine,
		Selector:       selector,
		Source:         source,
		Metrics:        metrics,
		AlertThreshold: cfg.Scoring.AlertThreshold,
		Store:          store,
	})

	sessions := stream.NewManager(stream.Pipeline{
		Engine:         engine,
		Selector:       selector,
		Source:         source,
		Metrics:        metrics,
		AlertThreshold: cfg.Scoring.AlertThreshold,
		QueueCapacity:  cfg.Stream.QueueCapacity,
		Cadence:        time.Duration(cfg.Stream.ChunkCadenceMs) * time.Millisecond,
	})

	healthHandler := health.New(checkers...)
	healthHandler.Version = version

	srv := server.New(server.Config{
		Config:   cfg,
		Analyzer: analyzer,
		Sessions: sessions,
		Store:    store,
		Metrics:  metrics,
		Health:   healthHandler,
	})

	slog.Info("server ready", "addr", cfg.Server.ListenAddr)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// intentMultipliers converts the string-keyed config map to engine
// intents, dropping anything validation already flagged.
func intentMultipliers(m map[string]float64) map[risk.Intent]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[risk.Intent]float64, len(m))
	for k, v := range m {
		intent := risk.Intent(k)
		if intent.IsValid() {
			out[intent] = v
		}
	}
	return out
}

// newLogger builds the process logger honouring the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var l slog.Level
	switch level {
	case config.LogDebug:
		l = slog.LevelDebug
	case config.LogWarn:
		l = slog.LevelWarn
	case config.LogError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
