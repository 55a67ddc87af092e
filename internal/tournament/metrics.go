package tournament

import (
	"sort"
	"time"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
	"github.com/MochiAT/polymarket-bot-tournament/internal/ledger"
)

// buildEntry derives a leaderboard entry from a ledger's history. Entries
// are computed at query time, never stored as mutable state.
func buildEntry(l *ledger.Ledger, elapsed time.Duration) domain.LeaderboardEntry {
	metrics := l.Metrics()
	trades := l.Trades()

	entry := domain.LeaderboardEntry{
		StrategyName: metrics.StrategyName,
		NetPnL:       metrics.NetPnL,
		PnLPercent:   metrics.PnLPercent,
		MaxDrawdown:  maxDrawdown(l.EquityCurve()),
		WinRate:      winRate(trades),
		AvgHoldTime:  avgHoldTime(trades),
		TradeCount:   metrics.TradeCount,
		FinalEquity:  metrics.Equity,
	}

	if hours := elapsed.Hours(); hours > 0 {
		entry.PnLPerHour = metrics.NetPnL / hours
	}
	if elapsed > 0 {
		entry.ExposurePercent = float64(l.ExposureTime()) / float64(elapsed) * 100
		if entry.ExposurePercent > 100 {
			entry.ExposurePercent = 100
		}
	}
	return entry
}

// rank orders by net PnL descending, ties broken by lower max drawdown, and
// assigns 1-based ranks.
func rank(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].NetPnL != entries[j].NetPnL {
			return entries[i].NetPnL > entries[j].NetPnL
		}
		return entries[i].MaxDrawdown < entries[j].MaxDrawdown
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// maxDrawdown is the largest peak-to-trough drop observed in the curve.
func maxDrawdown(curve []domain.EquitySnapshot) float64 {
	peak := 0.0
	worst := 0.0
	for _, snap := range curve {
		if snap.Equity > peak {
			peak = snap.Equity
		}
		if dd := peak - snap.Equity; dd > worst {
			worst = dd
		}
	}
	return worst
}

// winRate is the fraction of closed trades with positive realized PnL.
func winRate(trades []domain.Trade) float64 {
	closed, wins := 0, 0
	for _, t := range trades {
		if !t.Closing {
			continue
		}
		closed++
		if t.RealizedPnLDelta > 0 {
			wins++
		}
	}
	if closed == 0 {
		return 0
	}
	return float64(wins) / float64(closed) * 100
}

// avgHoldTime is the mean open-to-close duration over closed trades.
func avgHoldTime(trades []domain.Trade) time.Duration {
	var total time.Duration
	closed := 0
	for _, t := range trades {
		if !t.Closing {
			continue
		}
		total += t.HoldTime
		closed++
	}
	if closed == 0 {
		return 0
	}
	return total / time.Duration(closed)
}
