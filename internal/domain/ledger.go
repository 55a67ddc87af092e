package domain

import "time"

// Side is the outcome a paper position is long on.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Position is an open simulated position, owned exclusively by one ledger.
// At most one position exists per (instrument, side) key.
type Position struct {
	InstrumentID  string
	Side          Side
	Size          float64 // shares, always > 0 while the position exists
	EntryPrice    float64
	OpenedAt      time.Time
	CurrentPrice  float64
	UnrealizedPnL float64
}

// Trade is the immutable record of an open or close applied to a ledger.
type Trade struct {
	ID               string
	InstrumentID     string
	Side             Side
	Size             float64
	Price            float64
	Timestamp        time.Time
	RealizedPnLDelta float64 // 0 for opens
	Closing          bool
	HoldTime         time.Duration // only set on closes
}

// EquitySnapshot is one point of the equity curve, appended after every
// mutating ledger call.
type EquitySnapshot struct {
	Timestamp time.Time
	Equity    float64
}

// LedgerMetrics is the complete point-in-time view of a ledger. Equity is
// always defined: initial cash + realized + unrealized (0 with no positions).
type LedgerMetrics struct {
	StrategyName  string
	InitialCash   float64
	Cash          float64
	Equity        float64
	RealizedPnL   float64
	UnrealizedPnL float64
	NetPnL        float64
	PnLPercent    float64
	TradeCount    int
	ClosedTrades  int
	OpenPositions int
}

// LeaderboardEntry is derived at query time from a ledger's history.
type LeaderboardEntry struct {
	Rank            int
	StrategyName    string
	NetPnL          float64
	PnLPercent      float64
	PnLPerHour      float64
	MaxDrawdown     float64
	WinRate         float64 // % of closed trades with positive realized PnL, 0-100
	AvgHoldTime     time.Duration
	TradeCount      int
	ExposurePercent float64 // fraction of run time with at least one open position
	FinalEquity     float64
}
