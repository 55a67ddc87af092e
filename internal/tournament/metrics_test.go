package tournament

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
	"github.com/MochiAT/polymarket-bot-tournament/internal/ledger"
)

func TestMaxDrawdown(t *testing.T) {
	curve := []domain.EquitySnapshot{
		{Equity: 1000},
		{Equity: 1100},
		{Equity: 900}, // caída de 200 desde el pico de 1100
		{Equity: 1050},
		{Equity: 1000}, // caída de 100: no supera la anterior
	}
	assert.InDelta(t, 200.0, maxDrawdown(curve), 1e-9)
}

func TestMaxDrawdown_MonotonicCurve(t *testing.T) {
	curve := []domain.EquitySnapshot{{Equity: 1000}, {Equity: 1100}, {Equity: 1200}}
	assert.Zero(t, maxDrawdown(curve))
	assert.Zero(t, maxDrawdown(nil))
}

func TestWinRate(t *testing.T) {
	trades := []domain.Trade{
		{Closing: false},                          // apertura: no cuenta
		{Closing: true, RealizedPnLDelta: 5},      // win
		{Closing: true, RealizedPnLDelta: -3},     // loss
		{Closing: true, RealizedPnLDelta: 2},      // win
		{Closing: true, RealizedPnLDelta: 0},      // breakeven: no es win
	}
	assert.InDelta(t, 50.0, winRate(trades), 1e-9)
	assert.Zero(t, winRate(nil))
}

func TestAvgHoldTime(t *testing.T) {
	trades := []domain.Trade{
		{Closing: false, HoldTime: time.Hour}, // ignorada
		{Closing: true, HoldTime: 10 * time.Minute},
		{Closing: true, HoldTime: 20 * time.Minute},
	}
	assert.Equal(t, 15*time.Minute, avgHoldTime(trades))
	assert.Zero(t, avgHoldTime(nil))
}

func TestRank_OrderAndTieBreak(t *testing.T) {
	entries := []domain.LeaderboardEntry{
		{StrategyName: "c", NetPnL: 50, MaxDrawdown: 80},
		{StrategyName: "a", NetPnL: 100, MaxDrawdown: 30},
		{StrategyName: "b", NetPnL: 100, MaxDrawdown: 10}, // empata con "a", menos drawdown
		{StrategyName: "d", NetPnL: -20, MaxDrawdown: 5},
	}
	rank(entries)

	require.Len(t, entries, 4)
	assert.Equal(t, "b", entries[0].StrategyName)
	assert.Equal(t, "a", entries[1].StrategyName)
	assert.Equal(t, "c", entries[2].StrategyName)
	assert.Equal(t, "d", entries[3].StrategyName)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestBuildEntry(t *testing.T) {
	l := newWinningLedger(t)

	entry := buildEntry(l, 2*time.Hour)

	assert.Equal(t, "metrics", entry.StrategyName)
	assert.InDelta(t, 10.0, entry.NetPnL, 1e-9)
	assert.InDelta(t, 5.0, entry.PnLPerHour, 1e-9)
	assert.InDelta(t, 1.0, entry.PnLPercent, 1e-9)
	assert.InDelta(t, 100.0, entry.WinRate, 1e-9)
	assert.Equal(t, 2, entry.TradeCount)
	assert.InDelta(t, 1010.0, entry.FinalEquity, 1e-9)
}

func TestBuildEntry_ZeroElapsed(t *testing.T) {
	l := newWinningLedger(t)
	entry := buildEntry(l, 0)
	assert.Zero(t, entry.PnLPerHour)
	assert.Zero(t, entry.ExposurePercent)
}

// newWinningLedger arma un ledger con una operación ganadora cerrada (+10).
func newWinningLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l := ledger.New("metrics", 1000)

	_, err := l.PlaceOrder("inst-1", domain.SideYes, 100, 0.50)
	require.NoError(t, err)
	_, err = l.PlaceOrder("inst-1", domain.SideYes, 100, 0.60)
	require.NoError(t, err)
	return l
}
