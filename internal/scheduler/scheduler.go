package scheduler

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MochiAT/polymarket-bot-tournament/internal/candles"
	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
	"github.com/MochiAT/polymarket-bot-tournament/internal/ports"
	"github.com/MochiAT/polymarket-bot-tournament/internal/universe"
)

// Config controla las dos cadencias del scheduler.
type Config struct {
	FastInterval       time.Duration // refresh de precios (default 5s)
	SlowInterval       time.Duration // refresh del universo (default 60s)
	MaxMarketsPerTick  int           // cuota de instrumentos por fast tick
	MaxRefreshAttempts int           // intentos del slow tick antes de saltarlo
	RefreshBackoffBase time.Duration
	RefreshBackoffMax  time.Duration
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		FastInterval:       5 * time.Second,
		SlowInterval:       60 * time.Second,
		MaxMarketsPerTick:  50,
		MaxRefreshAttempts: 3,
		RefreshBackoffBase: time.Second,
		RefreshBackoffMax:  60 * time.Second,
	}
}

// Subscriber recibe los instrumentos cuyo precio cambió en un fast tick,
// siempre después de que el batch completo esté aplicado al universo.
type Subscriber interface {
	OnMarketData(inst domain.Instrument)
}

// Scheduler ejecuta las dos cadencias independientes contra el universo
// compartido: el slow tick refresca el listado completo, el fast tick pide
// precios por lotes round-robin acotados por MaxMarketsPerTick.
type Scheduler struct {
	cfg      Config
	uni      *universe.Universe
	listings ports.ListingProvider
	prices   ports.PriceProvider
	agg      *candles.Aggregator

	mu          sync.Mutex
	subscribers []Subscriber
	rrIndex     int
}

// New crea un Scheduler con todas las dependencias inyectadas. El aggregator
// es opcional: si es nil no se generan velas.
func New(cfg Config, uni *universe.Universe, listings ports.ListingProvider, prices ports.PriceProvider, agg *candles.Aggregator) *Scheduler {
	def := DefaultConfig()
	if cfg.FastInterval <= 0 {
		cfg.FastInterval = def.FastInterval
	}
	if cfg.SlowInterval <= 0 {
		cfg.SlowInterval = def.SlowInterval
	}
	if cfg.MaxMarketsPerTick <= 0 {
		cfg.MaxMarketsPerTick = def.MaxMarketsPerTick
	}
	if cfg.MaxRefreshAttempts <= 0 {
		cfg.MaxRefreshAttempts = def.MaxRefreshAttempts
	}
	if cfg.RefreshBackoffBase <= 0 {
		cfg.RefreshBackoffBase = def.RefreshBackoffBase
	}
	if cfg.RefreshBackoffMax <= 0 {
		cfg.RefreshBackoffMax = def.RefreshBackoffMax
	}
	return &Scheduler{
		cfg:      cfg,
		uni:      uni,
		listings: listings,
		prices:   prices,
		agg:      agg,
	}
}

// Subscribe registra un consumidor de market data. Debe llamarse antes de Run.
func (s *Scheduler) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

// Run hace un refresh inicial del universo y arranca ambas cadencias hasta
// que el contexto se cancele. Un fallo de refresh nunca tumba el run: el
// universo conserva su estado anterior y se reintenta al siguiente slow tick.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler starting",
		"fast_interval", s.cfg.FastInterval,
		"slow_interval", s.cfg.SlowInterval,
		"max_markets_per_tick", s.cfg.MaxMarketsPerTick,
	)

	s.SlowTick(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.fastLoop(ctx) })
	g.Go(func() error { return s.slowLoop(ctx) })
	return g.Wait()
}

func (s *Scheduler) fastLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.FastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("fast tick loop stopped")
			return nil
		case <-ticker.C:
			s.FastTick(ctx)
		}
	}
}

func (s *Scheduler) slowLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SlowInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("slow tick loop stopped")
			return nil
		case <-ticker.C:
			s.SlowTick(ctx)
		}
	}
}

// FastTick ejecuta un ciclo del fast path: selecciona el siguiente batch
// round-robin, aplica los precios al universo y solo entonces notifica a los
// suscriptores los instrumentos que cambiaron.
func (s *Scheduler) FastTick(ctx context.Context) {
	batch := s.nextBatch()
	if len(batch) == 0 {
		return
	}

	changed := s.uni.UpdatePrices(ctx, batch, s.prices.FetchYesNoPrices)
	if len(changed) == 0 {
		return
	}

	if s.agg != nil {
		now := time.Now()
		for _, inst := range changed {
			s.agg.AddTick(inst.ID, now, inst.YesPrice)
		}
	}

	s.mu.Lock()
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		for _, inst := range changed {
			sub.OnMarketData(inst)
		}
	}

	slog.Debug("fast tick complete", "batch", len(batch), "changed", len(changed))
}

// SlowTick refresca el universo completo con retry y backoff exponencial.
// Si se agotan los intentos, el tick entero se salta y el universo queda
// intacto: un refresh fallido nunca vacía el universo.
func (s *Scheduler) SlowTick(ctx context.Context) {
	raw, err := s.fetchListingWithRetry(ctx)
	if err != nil {
		slog.Warn("slow tick skipped, keeping previous universe",
			"attempts", s.cfg.MaxRefreshAttempts, "err", err)
		return
	}

	diff := s.uni.Refresh(raw)

	s.mu.Lock()
	s.rrIndex = 0
	s.mu.Unlock()

	slog.Info("universe updated with markets",
		"total", s.uni.Len(),
		"added", len(diff.Added),
		"closed", len(diff.Closed),
		"discarded", discardTotal(diff.DiscardSummary),
	)
	for reason, count := range diff.DiscardSummary {
		slog.Debug("discard summary", "reason", string(reason), "count", count)
	}
}

// fetchListingWithRetry pide el listado upstream con backoff exponencial
// (base doblándose, techo acotado) hasta MaxRefreshAttempts.
func (s *Scheduler) fetchListingWithRetry(ctx context.Context) ([]domain.RawMarket, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxRefreshAttempts; attempt++ {
		if attempt > 0 {
			wait := time.Duration(math.Pow(2, float64(attempt-1))) * s.cfg.RefreshBackoffBase
			if wait > s.cfg.RefreshBackoffMax {
				wait = s.cfg.RefreshBackoffMax
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		raw, err := s.listings.FetchActiveMarkets(ctx)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		slog.Warn("listing fetch failed", "attempt", attempt+1, "err", err)
	}
	return nil, lastErr
}

// nextBatch devuelve el siguiente lote round-robin sobre todos los ids del
// universo, de forma que ticks repetidos acaban cubriendo el set completo
// aunque supere la cuota por tick.
func (s *Scheduler) nextBatch() []string {
	ids := s.uni.IDs()
	if len(ids) == 0 {
		return nil
	}
	if len(ids) <= s.cfg.MaxMarketsPerTick {
		return ids
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rrIndex >= len(ids) {
		s.rrIndex = 0
	}
	end := s.rrIndex + s.cfg.MaxMarketsPerTick
	if end >= len(ids) {
		batch := ids[s.rrIndex:]
		s.rrIndex = 0
		return batch
	}
	batch := ids[s.rrIndex:end]
	s.rrIndex = end
	return batch
}

func discardTotal(summary map[domain.DiscardReason]int) int {
	total := 0
	for _, n := range summary {
		total += n
	}
	return total
}
