package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

var (
	// ErrInvalidOrder rejects orders with non-positive size or a price
	// outside the open interval (0,1). No ledger state is mutated.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInsufficientCash rejects opens that would drive cash negative.
	// No partial fills: the order is rejected whole.
	ErrInsufficientCash = errors.New("insufficient cash")
)

// DefaultInitialCash is the starting balance when none is configured.
const DefaultInitialCash = 10000.0

// Ledger tracks one strategy's simulated cash, positions, trades and equity
// curve. Each strategy owns exactly one ledger; the mutex only guards the
// coordinator reading metrics while the strategy trades.
type Ledger struct {
	mu          sync.Mutex
	name        string
	initialCash float64
	cash        float64
	realized    float64
	positions   map[positionKey]*domain.Position
	trades      []domain.Trade
	equityCurve []domain.EquitySnapshot

	exposure     time.Duration // accumulated time with >=1 open position
	exposedSince time.Time     // zero while flat

	now func() time.Time
}

type positionKey struct {
	instrumentID string
	side         domain.Side
}

// New creates a ledger with the given starting balance and seeds the equity
// curve with one snapshot at that balance.
func New(name string, initialCash float64) *Ledger {
	if initialCash <= 0 {
		initialCash = DefaultInitialCash
	}
	l := &Ledger{
		name:        name,
		initialCash: initialCash,
		cash:        initialCash,
		positions:   make(map[positionKey]*domain.Position),
		now:         time.Now,
	}
	l.equityCurve = append(l.equityCurve, domain.EquitySnapshot{
		Timestamp: l.now(),
		Equity:    initialCash,
	})
	return l
}

// Name returns the owning strategy's name.
func (l *Ledger) Name() string { return l.name }

// PlaceOrder opens or closes a simulated position. With no open position for
// (instrumentID, side) it opens one, consuming size*price from cash. With an
// existing position it closes up to the open size at the given price,
// realizing PnL; the position is removed once its size reaches zero.
func (l *Ledger) PlaceOrder(instrumentID string, side domain.Side, size, price float64) (domain.Trade, error) {
	if size <= 0 || price <= 0 || price >= 1 {
		return domain.Trade{}, fmt.Errorf("%w: size=%.4f price=%.4f", ErrInvalidOrder, size, price)
	}
	if side != domain.SideYes && side != domain.SideNo {
		return domain.Trade{}, fmt.Errorf("%w: side=%q", ErrInvalidOrder, side)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := positionKey{instrumentID, side}
	now := l.now()

	pos, exists := l.positions[key]
	if !exists {
		cost := size * price
		if cost > l.cash {
			return domain.Trade{}, fmt.Errorf("%w: need $%.2f, have $%.2f", ErrInsufficientCash, cost, l.cash)
		}
		l.cash -= cost
		l.positions[key] = &domain.Position{
			InstrumentID: instrumentID,
			Side:         side,
			Size:         size,
			EntryPrice:   price,
			OpenedAt:     now,
			CurrentPrice: price,
		}
		if len(l.positions) == 1 {
			l.exposedSince = now
		}
		trade := domain.Trade{
			ID:           uuid.NewString(),
			InstrumentID: instrumentID,
			Side:         side,
			Size:         size,
			Price:        price,
			Timestamp:    now,
		}
		l.trades = append(l.trades, trade)
		l.appendSnapshot(now)
		return trade, nil
	}

	// Close up to the open size. Never flips or adds to the same key.
	closeSize := size
	if closeSize > pos.Size {
		closeSize = pos.Size
	}
	realized := closeSize * (price - pos.EntryPrice)
	if side == domain.SideNo {
		realized = closeSize * (pos.EntryPrice - price)
	}
	l.cash += closeSize*pos.EntryPrice + realized
	l.realized += realized

	trade := domain.Trade{
		ID:               uuid.NewString(),
		InstrumentID:     instrumentID,
		Side:             side,
		Size:             closeSize,
		Price:            price,
		Timestamp:        now,
		RealizedPnLDelta: realized,
		Closing:          true,
		HoldTime:         now.Sub(pos.OpenedAt),
	}
	l.trades = append(l.trades, trade)

	pos.Size -= closeSize
	if pos.Size <= 0 {
		delete(l.positions, key)
		if len(l.positions) == 0 && !l.exposedSince.IsZero() {
			l.exposure += now.Sub(l.exposedSince)
			l.exposedSince = time.Time{}
		}
	} else {
		pos.UnrealizedPnL = unrealized(pos, price)
		pos.CurrentPrice = price
	}

	l.appendSnapshot(now)
	return trade, nil
}

// MarkToMarket recomputes unrealized PnL for any open position on the
// instrument from the latest YES/NO prices. Cash and realized PnL are
// untouched.
func (l *Ledger) MarkToMarket(instrumentID string, yesPrice, noPrice float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dirty := false
	for _, side := range []domain.Side{domain.SideYes, domain.SideNo} {
		pos, ok := l.positions[positionKey{instrumentID, side}]
		if !ok {
			continue
		}
		price := yesPrice
		if side == domain.SideNo {
			price = noPrice
		}
		if price <= 0 || price >= 1 {
			continue
		}
		pos.CurrentPrice = price
		pos.UnrealizedPnL = unrealized(pos, price)
		dirty = true
	}
	if dirty {
		l.appendSnapshot(l.now())
	}
}

// Metrics returns the complete current view of the ledger. Equity is always
// present: initial cash + realized + unrealized, with unrealized exactly 0
// when no positions are open.
func (l *Ledger) Metrics() domain.LedgerMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()

	unreal := l.unrealizedTotalLocked()
	equity := l.initialCash + l.realized + unreal
	netPnL := equity - l.initialCash

	closed := 0
	for _, t := range l.trades {
		if t.Closing {
			closed++
		}
	}

	return domain.LedgerMetrics{
		StrategyName:  l.name,
		InitialCash:   l.initialCash,
		Cash:          l.cash,
		Equity:        equity,
		RealizedPnL:   l.realized,
		UnrealizedPnL: unreal,
		NetPnL:        netPnL,
		PnLPercent:    netPnL / l.initialCash * 100,
		TradeCount:    len(l.trades),
		ClosedTrades:  closed,
		OpenPositions: len(l.positions),
	}
}

// Position returns a copy of the open position for (instrumentID, side).
func (l *Ledger) Position(instrumentID string, side domain.Side) (domain.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[positionKey{instrumentID, side}]
	if !ok {
		return domain.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions.
func (l *Ledger) Positions() []domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	return out
}

// Trades returns a copy of the trade history.
func (l *Ledger) Trades() []domain.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// EquityCurve returns a copy of the equity curve.
func (l *Ledger) EquityCurve() []domain.EquitySnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.EquitySnapshot, len(l.equityCurve))
	copy(out, l.equityCurve)
	return out
}

// ExposureTime returns how long the ledger has had at least one open
// position, including the in-flight span if currently exposed.
func (l *Ledger) ExposureTime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := l.exposure
	if !l.exposedSince.IsZero() {
		total += l.now().Sub(l.exposedSince)
	}
	return total
}

// SetClock injects a clock for tests.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// appendSnapshot records equity after a mutating call. Caller holds the lock.
func (l *Ledger) appendSnapshot(now time.Time) {
	equity := l.initialCash + l.realized + l.unrealizedTotalLocked()
	l.equityCurve = append(l.equityCurve, domain.EquitySnapshot{Timestamp: now, Equity: equity})
}

func (l *Ledger) unrealizedTotalLocked() float64 {
	total := 0.0
	for _, pos := range l.positions {
		total += pos.UnrealizedPnL
	}
	return total
}

func unrealized(pos *domain.Position, price float64) float64 {
	if pos.Side == domain.SideYes {
		return (price - pos.EntryPrice) * pos.Size
	}
	return (pos.EntryPrice - price) * pos.Size
}
