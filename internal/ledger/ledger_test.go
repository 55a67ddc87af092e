package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

// fakeClock avanza manualmente para tests deterministas de hold time y
// exposición.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLedger(t *testing.T) (*Ledger, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	l := New("test", 1000)
	l.SetClock(clock.now)
	return l, clock
}

func TestNew_EquityAlwaysDefined(t *testing.T) {
	l := New("fresh", 5000)
	m := l.Metrics()

	assert.Equal(t, 5000.0, m.Equity)
	assert.Equal(t, 5000.0, m.Cash)
	assert.Equal(t, 0.0, m.NetPnL)
	assert.Equal(t, 0.0, m.UnrealizedPnL)
	assert.Zero(t, m.OpenPositions)

	// la curva arranca sembrada con el cash inicial
	curve := l.EquityCurve()
	require.Len(t, curve, 1)
	assert.Equal(t, 5000.0, curve[0].Equity)
}

func TestNew_DefaultCash(t *testing.T) {
	l := New("defaults", 0)
	assert.Equal(t, DefaultInitialCash, l.Metrics().InitialCash)
}

func TestPlaceOrder_Open(t *testing.T) {
	l, _ := newTestLedger(t)

	trade, err := l.PlaceOrder("inst-1", domain.SideYes, 100, 0.60)
	require.NoError(t, err)
	assert.False(t, trade.Closing)
	assert.Equal(t, 100.0, trade.Size)

	m := l.Metrics()
	assert.InDelta(t, 940.0, m.Cash, 1e-9) // 1000 - 100*0.60
	assert.Equal(t, 1, m.OpenPositions)
	// equity no cambia al abrir: el cash se convierte en posición a coste
	assert.InDelta(t, 1000.0, m.Equity, 1e-9)

	pos, ok := l.Position("inst-1", domain.SideYes)
	require.True(t, ok)
	assert.Equal(t, 0.60, pos.EntryPrice)
	assert.Equal(t, 100.0, pos.Size)
}

func TestPlaceOrder_InvalidRejectedWithoutMutation(t *testing.T) {
	l, _ := newTestLedger(t)
	before := l.Metrics()

	cases := []struct {
		size, price float64
	}{
		{0, 0.5},
		{-5, 0.5},
		{10, 0},
		{10, 1},
		{10, 1.5},
		{10, -0.2},
	}
	for _, c := range cases {
		_, err := l.PlaceOrder("inst-1", domain.SideYes, c.size, c.price)
		require.ErrorIs(t, err, ErrInvalidOrder, "size=%v price=%v", c.size, c.price)
	}

	_, err := l.PlaceOrder("inst-1", "MAYBE", 10, 0.5)
	require.ErrorIs(t, err, ErrInvalidOrder)

	after := l.Metrics()
	assert.Equal(t, before, after)
	assert.Empty(t, l.Trades())
}

func TestPlaceOrder_InsufficientCash(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.PlaceOrder("inst-1", domain.SideYes, 10000, 0.90)
	require.ErrorIs(t, err, ErrInsufficientCash)

	m := l.Metrics()
	assert.Equal(t, 1000.0, m.Cash)
	assert.Zero(t, m.OpenPositions)
	assert.Empty(t, l.Trades())
}

func TestPlaceOrder_CloseRealizesPnL(t *testing.T) {
	l, clock := newTestLedger(t)

	_, err := l.PlaceOrder("inst-1", domain.SideYes, 100, 0.60)
	require.NoError(t, err)

	clock.advance(10 * time.Minute)

	trade, err := l.PlaceOrder("inst-1", domain.SideYes, 100, 0.70)
	require.NoError(t, err)
	assert.True(t, trade.Closing)
	assert.InDelta(t, 10.0, trade.RealizedPnLDelta, 1e-9) // 100 * (0.70-0.60)
	assert.Equal(t, 10*time.Minute, trade.HoldTime)

	m := l.Metrics()
	assert.InDelta(t, 1010.0, m.Cash, 1e-9)
	assert.InDelta(t, 10.0, m.RealizedPnL, 1e-9)
	assert.InDelta(t, 1010.0, m.Equity, 1e-9)
	assert.Zero(t, m.OpenPositions)
}

func TestPlaceOrder_CloseNoSide(t *testing.T) {
	l, _ := newTestLedger(t)

	// NO gana cuando el precio baja
	_, err := l.PlaceOrder("inst-1", domain.SideNo, 50, 0.40)
	require.NoError(t, err)

	trade, err := l.PlaceOrder("inst-1", domain.SideNo, 50, 0.30)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, trade.RealizedPnLDelta, 1e-9) // 50 * (0.40-0.30)
}

func TestPlaceOrder_ClosesUpToOpenSizeOnly(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.PlaceOrder("inst-1", domain.SideYes, 100, 0.50)
	require.NoError(t, err)

	// pide cerrar 500 pero solo hay 100: nunca flipea ni añade
	trade, err := l.PlaceOrder("inst-1", domain.SideYes, 500, 0.55)
	require.NoError(t, err)
	assert.Equal(t, 100.0, trade.Size)

	_, ok := l.Position("inst-1", domain.SideYes)
	assert.False(t, ok)
}

func TestPlaceOrder_PartialClose(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.PlaceOrder("inst-1", domain.SideYes, 100, 0.50)
	require.NoError(t, err)

	_, err = l.PlaceOrder("inst-1", domain.SideYes, 40, 0.60)
	require.NoError(t, err)

	pos, ok := l.Position("inst-1", domain.SideYes)
	require.True(t, ok)
	assert.Equal(t, 60.0, pos.Size)
	assert.Equal(t, 0.50, pos.EntryPrice)
}

func TestPlaceOrder_YesAndNoAreIndependentPositions(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.PlaceOrder("inst-1", domain.SideYes, 10, 0.55)
	require.NoError(t, err)
	_, err = l.PlaceOrder("inst-1", domain.SideNo, 10, 0.45)
	require.NoError(t, err)

	assert.Equal(t, 2, l.Metrics().OpenPositions)
}

func TestMarkToMarket(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.PlaceOrder("inst-1", domain.SideYes, 100, 0.60)
	require.NoError(t, err)

	l.MarkToMarket("inst-1", 0.65, 0.35)

	pos, ok := l.Position("inst-1", domain.SideYes)
	require.True(t, ok)
	assert.InDelta(t, 5.0, pos.UnrealizedPnL, 1e-9) // (0.65-0.60)*100

	m := l.Metrics()
	assert.InDelta(t, 1005.0, m.Equity, 1e-9)
	// mark-to-market no toca cash ni realized
	assert.InDelta(t, 940.0, m.Cash, 1e-9)
	assert.Zero(t, m.RealizedPnL)
}

func TestMarkToMarket_IgnoresUnknownInstrumentAndBadPrices(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.PlaceOrder("inst-1", domain.SideYes, 100, 0.60)
	require.NoError(t, err)
	curveBefore := len(l.EquityCurve())

	l.MarkToMarket("other", 0.70, 0.30)
	l.MarkToMarket("inst-1", 0, 1) // precios fuera de (0,1)

	assert.Len(t, l.EquityCurve(), curveBefore)
	pos, _ := l.Position("inst-1", domain.SideYes)
	assert.Equal(t, 0.60, pos.CurrentPrice)
}

func TestExposureTime(t *testing.T) {
	l, clock := newTestLedger(t)

	assert.Zero(t, l.ExposureTime())

	_, err := l.PlaceOrder("inst-1", domain.SideYes, 10, 0.50)
	require.NoError(t, err)

	clock.advance(5 * time.Minute)
	assert.Equal(t, 5*time.Minute, l.ExposureTime())

	_, err = l.PlaceOrder("inst-1", domain.SideYes, 10, 0.55)
	require.NoError(t, err)

	clock.advance(time.Hour) // flat: no acumula
	assert.Equal(t, 5*time.Minute, l.ExposureTime())
}

func TestEquityCurve_AppendsOnMutation(t *testing.T) {
	l, clock := newTestLedger(t)

	_, err := l.PlaceOrder("inst-1", domain.SideYes, 100, 0.50)
	require.NoError(t, err)
	clock.advance(time.Minute)
	l.MarkToMarket("inst-1", 0.55, 0.45)
	clock.advance(time.Minute)
	_, err = l.PlaceOrder("inst-1", domain.SideYes, 100, 0.55)
	require.NoError(t, err)

	curve := l.EquityCurve()
	require.Len(t, curve, 4) // seed + open + mark + close
	assert.InDelta(t, 1000.0, curve[0].Equity, 1e-9)
	assert.InDelta(t, 1005.0, curve[2].Equity, 1e-9)
	assert.InDelta(t, 1005.0, curve[3].Equity, 1e-9)
}
