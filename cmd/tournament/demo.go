package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
	"github.com/MochiAT/polymarket-bot-tournament/internal/ports"
)

// demoFeed implementa ports.ListingProvider y ports.PriceProvider con mercados
// sintéticos y precios random-walk, para probar el torneo entero sin red.
type demoFeed struct {
	mu     sync.Mutex
	rng    *rand.Rand
	now    func() time.Time
	prices map[string]float64 // yes token id -> precio YES actual
}

func newDemoFeed(now func() time.Time) *demoFeed {
	return &demoFeed{
		rng:    rand.New(rand.NewSource(now().UnixNano())),
		now:    now,
		prices: make(map[string]float64),
	}
}

var demoAssets = []struct {
	name    string
	asset   string
	price   float64
}{
	{"Bitcoin", "btc", 65000},
	{"Ethereum", "eth", 3200},
	{"Solana", "sol", 150},
	{"XRP", "xrp", 0.55},
}

var demoWindows = []struct {
	label   string
	minutes int
}{
	{"15 Minutes", 15},
	{"1 Hour", 60},
	{"4 Hours", 240},
	{"1 Day", 1440},
}

// FetchActiveMarkets genera una parrilla de mercados binarios: un "Up or Down"
// por activo y timeframe, siempre con end time en el futuro.
func (d *demoFeed) FetchActiveMarkets(_ context.Context) ([]domain.RawMarket, error) {
	now := d.now()
	markets := make([]domain.RawMarket, 0, len(demoAssets)*len(demoWindows))

	for _, a := range demoAssets {
		for _, w := range demoWindows {
			id := fmt.Sprintf("demo-%s-%dm", a.asset, w.minutes)
			markets = append(markets, domain.RawMarket{
				ID:              id,
				Title:           fmt.Sprintf("%s Up or Down - %s", a.name, w.label),
				Description:     fmt.Sprintf("Will %s be above $%g at resolution?", a.name, a.price),
				Active:          true,
				EndTime:         now.Add(time.Duration(w.minutes) * time.Minute),
				PriceToBeat:     a.price,
				TokenIDs:        []string{id + "-yes", id + "-no"},
				DurationMinutes: w.minutes,
			})
		}
	}
	return markets, nil
}

// FetchYesNoPrices devuelve el siguiente paso del random walk del instrumento.
// Los dos lados siempre suman 1, como en un binario ideal sin spread.
func (d *demoFeed) FetchYesNoPrices(_ context.Context, pair domain.TokenPair) (float64, float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	yes, ok := d.prices[pair.Yes]
	if !ok {
		yes = 0.35 + d.rng.Float64()*0.30
	}
	yes += (d.rng.Float64() - 0.5) * 0.04
	if yes < 0.02 {
		yes = 0.02
	}
	if yes > 0.98 {
		yes = 0.98
	}
	d.prices[pair.Yes] = yes

	return yes, 1 - yes, nil
}

var (
	_ ports.ListingProvider = (*demoFeed)(nil)
	_ ports.PriceProvider   = (*demoFeed)(nil)
)
