package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MochiAT/polymarket-bot-tournament/internal/candles"
	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
	"github.com/MochiAT/polymarket-bot-tournament/internal/universe"
)

type fakeProvider struct {
	mu         sync.Mutex
	markets    []domain.RawMarket
	listErr    error
	listCalls  int
	priceCalls []string
	yes, no    float64
	priceErr   error
}

func (f *fakeProvider) FetchActiveMarkets(context.Context) ([]domain.RawMarket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.markets, nil
}

func (f *fakeProvider) FetchYesNoPrices(_ context.Context, pair domain.TokenPair) (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceCalls = append(f.priceCalls, pair.Yes)
	if f.priceErr != nil {
		return 0, 0, f.priceErr
	}
	return f.yes, f.no, nil
}

type recordingSub struct {
	mu       sync.Mutex
	received []domain.Instrument
}

func (r *recordingSub) OnMarketData(inst domain.Instrument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, inst)
}

func (r *recordingSub) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.received))
	for i, inst := range r.received {
		out[i] = inst.ID
	}
	return out
}

func makeMarkets(n int) []domain.RawMarket {
	end := time.Now().Add(time.Hour)
	out := make([]domain.RawMarket, n)
	for i := range out {
		id := fmt.Sprintf("m-%03d", i)
		out[i] = domain.RawMarket{
			ID:          id,
			Title:       "Bitcoin Up or Down - 15 Minutes",
			Description: "Will BTC be above $65,000?",
			Active:      true,
			EndTime:     end,
			TokenIDs:    []string{id + "-yes", id + "-no"},
		}
	}
	return out
}

func newTestScheduler(provider *fakeProvider, maxPerTick int) (*Scheduler, *universe.Universe) {
	uni := universe.New(universe.Config{})
	cfg := DefaultConfig()
	cfg.MaxMarketsPerTick = maxPerTick
	cfg.RefreshBackoffBase = time.Millisecond
	return New(cfg, uni, provider, provider, nil), uni
}

func TestSlowTick_PopulatesUniverse(t *testing.T) {
	provider := &fakeProvider{markets: makeMarkets(5), yes: 0.5, no: 0.5}
	s, uni := newTestScheduler(provider, 50)

	s.SlowTick(context.Background())
	assert.Equal(t, 5, uni.Len())
}

func TestSlowTick_FailurePreservesUniverse(t *testing.T) {
	provider := &fakeProvider{markets: makeMarkets(5), yes: 0.5, no: 0.5}
	s, uni := newTestScheduler(provider, 50)

	s.SlowTick(context.Background())
	require.Equal(t, 5, uni.Len())

	provider.mu.Lock()
	provider.listErr = errors.New("gamma down")
	provider.mu.Unlock()

	s.SlowTick(context.Background())
	assert.Equal(t, 5, uni.Len())
}

func TestSlowTick_RetriesBeforeGivingUp(t *testing.T) {
	provider := &fakeProvider{listErr: errors.New("gamma down")}
	s, _ := newTestScheduler(provider, 50)

	s.SlowTick(context.Background())
	assert.Equal(t, 3, provider.listCalls)
}

func TestFastTick_AppliesPricesAndNotifies(t *testing.T) {
	provider := &fakeProvider{markets: makeMarkets(3), yes: 0.61, no: 0.39}
	s, uni := newTestScheduler(provider, 50)
	sub := &recordingSub{}
	s.Subscribe(sub)

	s.SlowTick(context.Background())
	s.FastTick(context.Background())

	inst, ok := uni.Get("m-000")
	require.True(t, ok)
	assert.Equal(t, 0.61, inst.YesPrice)

	// cada suscriptor recibe los 3 instrumentos que cambiaron
	assert.ElementsMatch(t, []string{"m-000", "m-001", "m-002"}, sub.ids())
}

func TestFastTick_NoNotificationWhenNothingChanges(t *testing.T) {
	provider := &fakeProvider{markets: makeMarkets(2), yes: 0.5, no: 0.5}
	s, _ := newTestScheduler(provider, 50)
	sub := &recordingSub{}
	s.Subscribe(sub)

	s.SlowTick(context.Background())
	s.FastTick(context.Background())
	require.Len(t, sub.ids(), 2)

	// mismo precio: el segundo tick no notifica nada
	s.FastTick(context.Background())
	assert.Len(t, sub.ids(), 2)
}

func TestNextBatch_RoundRobinCoversAll(t *testing.T) {
	provider := &fakeProvider{markets: makeMarkets(7), yes: 0.5, no: 0.5}
	s, _ := newTestScheduler(provider, 3)

	s.SlowTick(context.Background())

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		for _, id := range s.nextBatch() {
			seen[id] = true
		}
	}
	// tres ticks de 3 cubren los 7 ids y empiezan a repetir
	assert.Len(t, seen, 7)
}

func TestNextBatch_EmptyUniverse(t *testing.T) {
	provider := &fakeProvider{}
	s, _ := newTestScheduler(provider, 3)
	assert.Empty(t, s.nextBatch())
}

func TestFastTick_FeedsCandleAggregator(t *testing.T) {
	provider := &fakeProvider{markets: makeMarkets(1), yes: 0.6, no: 0.4}
	uni := universe.New(universe.Config{})
	agg := candles.New([]int{15})
	cfg := DefaultConfig()
	s := New(cfg, uni, provider, provider, agg)

	s.SlowTick(context.Background())
	s.FastTick(context.Background())

	// el tick entra como vela parcial: aún no hay velas completadas
	assert.Empty(t, agg.Candles("m-000", 15, 0))

	inst, ok := uni.Get("m-000")
	require.True(t, ok)
	assert.Equal(t, 0.6, inst.YesPrice)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	provider := &fakeProvider{markets: makeMarkets(2), yes: 0.5, no: 0.5}
	uni := universe.New(universe.Config{})
	cfg := DefaultConfig()
	cfg.FastInterval = 10 * time.Millisecond
	cfg.SlowInterval = 20 * time.Millisecond
	s := New(cfg, uni, provider, provider, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, uni.Len())
}
