package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MochiAT/polymarket-bot-tournament/config"
	"github.com/MochiAT/polymarket-bot-tournament/internal/adapters/notify"
	"github.com/MochiAT/polymarket-bot-tournament/internal/adapters/polymarket"
	"github.com/MochiAT/polymarket-bot-tournament/internal/adapters/storage"
	"github.com/MochiAT/polymarket-bot-tournament/internal/candles"
	"github.com/MochiAT/polymarket-bot-tournament/internal/ledger"
	"github.com/MochiAT/polymarket-bot-tournament/internal/ports"
	"github.com/MochiAT/polymarket-bot-tournament/internal/scheduler"
	"github.com/MochiAT/polymarket-bot-tournament/internal/strategy"
	"github.com/MochiAT/polymarket-bot-tournament/internal/tournament"
	"github.com/MochiAT/polymarket-bot-tournament/internal/universe"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	duration := flag.Duration("duration", 0, "tournament duration (overrides config, 0 = until Ctrl+C)")
	demo := flag.Bool("demo", false, "use a synthetic market feed instead of the real API")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	compact := flag.Bool("compact", false, "print status as one line per strategy instead of a table")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("failed to load config", "err", err, "path", *configPath)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	runDuration := resolveRunDuration(*duration, cfg.RunDuration())
	setupLogger(cfg.Log)

	slog.Info("tournament starting",
		"config", *configPath,
		"fast_interval", cfg.FastInterval(),
		"slow_interval", cfg.SlowInterval(),
		"duration", runDuration,
		"demo", *demo,
	)

	var (
		listings ports.ListingProvider
		prices   ports.PriceProvider
	)
	if *demo {
		feed := newDemoFeed(time.Now)
		listings, prices = feed, feed
	} else {
		client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase)
		listings, prices = client, client
	}

	var sink ports.ResultSink
	if !*demo {
		s, err := storage.NewSQLiteSink(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer s.Close()
		sink = s
	}

	uni := universe.New(universe.Config{
		StaleThreshold: cfg.Universe.StaleThreshold,
		StaleCooldown:  cfg.StaleCooldown(),
	})

	agg := candles.New(cfg.Feed.CandleTimeframes)

	schedCfg := scheduler.DefaultConfig()
	schedCfg.FastInterval = cfg.FastInterval()
	schedCfg.SlowInterval = cfg.SlowInterval()
	schedCfg.MaxMarketsPerTick = cfg.Feed.MaxMarketsPerTick
	schedCfg.MaxRefreshAttempts = cfg.Feed.MaxRefreshAttempts
	sched := scheduler.New(schedCfg, uni, listings, prices, agg)

	notifier := notify.NewConsole(*compact)

	coord := tournament.New(tournament.Config{
		RunDuration:    runDuration,
		StatusInterval: cfg.StatusInterval(),
	}, sched, notifier, sink)

	registerStrategies(coord, agg, cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := coord.Run(ctx); err != nil {
		slog.Error("tournament exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("tournament stopped cleanly")
}

// registerStrategies da de alta los participantes del torneo, cada uno con su
// ledger independiente sembrado con el mismo cash inicial.
func registerStrategies(coord *tournament.Coordinator, agg *candles.Aggregator, cfg *config.Config) {
	cash := cfg.Tournament.InitialCash
	size := cfg.Tournament.OrderSizeUSDC
	base := cfg.Tournament.MomentumThreshold

	for _, s := range []struct {
		name      string
		threshold float64
	}{
		{"momentum-conservative", base + 0.10},
		{"momentum-moderate", base},
		{"momentum-aggressive", base - 0.05},
	} {
		led := ledger.New(s.name, cash)
		coord.AddEntrant(strategy.NewMomentum(s.name, s.threshold, size, led), led)
	}

	name := "mean-reversion"
	led := ledger.New(name, cash)
	coord.AddEntrant(strategy.NewMeanReversion(name, size, led, agg), led)
}

// resolveRunDuration aplica la precedencia flag > config, preservando
// duraciones por debajo del minuto (-duration 30s).
func resolveRunDuration(flagValue, fromConfig time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	return fromConfig
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
