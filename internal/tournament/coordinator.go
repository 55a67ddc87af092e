package tournament

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
	"github.com/MochiAT/polymarket-bot-tournament/internal/ledger"
	"github.com/MochiAT/polymarket-bot-tournament/internal/ports"
	"github.com/MochiAT/polymarket-bot-tournament/internal/scheduler"
	"github.com/MochiAT/polymarket-bot-tournament/internal/strategy"
)

const feedBuffer = 256

// Config holds tournament-level settings.
type Config struct {
	RunDuration    time.Duration // 0 = run until the context is cancelled
	StatusInterval time.Duration // how often to print the status table
}

// Coordinator runs N strategies concurrently against the shared universe,
// each bound to its own ledger, and aggregates ranked metrics at completion.
type Coordinator struct {
	cfg      Config
	sched    *scheduler.Scheduler
	notifier ports.Notifier
	sink     ports.ResultSink // optional
	entrants []*entrant

	runID     string
	startedAt time.Time
}

// entrant binds one strategy to its ledger and its market data feed. The
// feed channel decouples the scheduler's fast tick from strategy evaluation:
// a slow strategy drops ticks instead of blocking the tick or its peers.
type entrant struct {
	strat strategy.Strategy
	led   *ledger.Ledger
	feed  chan domain.Instrument
}

// OnMarketData implements scheduler.Subscriber. Prices are marked to market
// on the ledger immediately; the strategy callback runs on its own goroutine.
func (e *entrant) OnMarketData(inst domain.Instrument) {
	e.led.MarkToMarket(inst.ID, inst.YesPrice, inst.NoPrice)
	select {
	case e.feed <- inst:
	default:
		// feed full: drop, the next tick will bring a fresher snapshot
	}
}

func (e *entrant) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case inst := <-e.feed:
			e.strat.OnMarketData(inst)
		}
	}
}

// New creates a Coordinator. The sink may be nil when results should not be
// persisted (demo runs).
func New(cfg Config, sched *scheduler.Scheduler, notifier ports.Notifier, sink ports.ResultSink) *Coordinator {
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = 30 * time.Second
	}
	return &Coordinator{
		cfg:      cfg,
		sched:    sched,
		notifier: notifier,
		sink:     sink,
	}
}

// AddEntrant registers a strategy with its dedicated ledger and subscribes
// it to the scheduler's fast tick notifications.
func (c *Coordinator) AddEntrant(s strategy.Strategy, l *ledger.Ledger) {
	e := &entrant{
		strat: s,
		led:   l,
		feed:  make(chan domain.Instrument, feedBuffer),
	}
	c.entrants = append(c.entrants, e)
	c.sched.Subscribe(e)
	slog.Info("strategy registered", "strategy", s.Name())
}

// Run executes the tournament until the run duration elapses or the context
// is cancelled, then prints and persists the final leaderboard. In-flight
// fetches are allowed to complete; their results are simply discarded once
// every task has observed the cancellation.
func (c *Coordinator) Run(ctx context.Context) error {
	if len(c.entrants) == 0 {
		slog.Warn("tournament has no entrants")
	}

	c.runID = uuid.NewString()
	c.startedAt = time.Now()

	runCtx := ctx
	var cancel context.CancelFunc
	if c.cfg.RunDuration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.cfg.RunDuration)
		defer cancel()
	}

	slog.Info("tournament starting",
		"run_id", c.runID,
		"strategies", len(c.entrants),
		"duration", c.cfg.RunDuration,
	)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return c.sched.Run(gctx) })
	for _, e := range c.entrants {
		e := e
		g.Go(func() error { return e.run(gctx) })
	}
	g.Go(func() error { return c.statusLoop(gctx) })

	if err := g.Wait(); err != nil && ctx.Err() == nil && runCtx.Err() == nil {
		return err
	}

	return c.finish(ctx)
}

// statusLoop prints the periodic per-strategy status table.
func (c *Coordinator) statusLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.notifier.NotifyStatus(ctx, c.Leaderboard()); err != nil {
				slog.Warn("status notifier error", "err", err)
			}
		}
	}
}

// finish aggregates the final leaderboard, prints it, and hands the full
// result to the sink. The parent ctx may already be cancelled; persistence
// and printing use a short independent context.
func (c *Coordinator) finish(ctx context.Context) error {
	finishedAt := time.Now()
	board := c.Leaderboard()

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := c.notifier.NotifyLeaderboard(saveCtx, board); err != nil {
		slog.Warn("leaderboard notifier error", "err", err)
	}

	if c.sink != nil {
		result := domain.TournamentResult{
			RunID:       c.runID,
			StartedAt:   c.startedAt,
			FinishedAt:  finishedAt,
			Duration:    finishedAt.Sub(c.startedAt),
			Leaderboard: board,
			Trades:      make(map[string][]domain.Trade, len(c.entrants)),
			EquityCurve: make(map[string][]domain.EquitySnapshot, len(c.entrants)),
		}
		for _, e := range c.entrants {
			result.Trades[e.strat.Name()] = e.led.Trades()
			result.EquityCurve[e.strat.Name()] = e.led.EquityCurve()
		}
		if err := c.sink.SaveRun(saveCtx, result); err != nil {
			slog.Error("failed to persist tournament results", "err", err)
			return err
		}
		slog.Info("tournament results persisted", "run_id", c.runID)
	}

	slog.Info("tournament finished",
		"run_id", c.runID,
		"elapsed", finishedAt.Sub(c.startedAt).Round(time.Second),
	)
	return nil
}

// Leaderboard computes the ranked standings from every ledger's current
// state. Safe to call while the tournament is running.
func (c *Coordinator) Leaderboard() []domain.LeaderboardEntry {
	elapsed := time.Since(c.startedAt)
	entries := make([]domain.LeaderboardEntry, 0, len(c.entrants))
	for _, e := range c.entrants {
		entries = append(entries, buildEntry(e.led, elapsed))
	}
	rank(entries)
	return entries
}
