package strategy

import (
	"errors"
	"log/slog"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
	"github.com/MochiAT/polymarket-bot-tournament/internal/ledger"
)

const (
	momentumDelta    = 0.02 // cambio mínimo de probabilidad entre ticks
	defaultOrderSize = 10.0 // shares por orden
)

// Momentum compra YES cuando la probabilidad implícita sube por encima del
// threshold, y NO cuando baja por debajo del espejo (1 - threshold). Variando
// el threshold salen las instancias conservative/moderate/aggressive.
type Momentum struct {
	name      string
	threshold float64
	orderSize float64
	ledger    *ledger.Ledger
	lastProb  map[string]float64
}

// NewMomentum crea una estrategia momentum ligada a su ledger.
func NewMomentum(name string, threshold, orderSize float64, l *ledger.Ledger) *Momentum {
	if orderSize <= 0 {
		orderSize = defaultOrderSize
	}
	return &Momentum{
		name:      name,
		threshold: threshold,
		orderSize: orderSize,
		ledger:    l,
		lastProb:  make(map[string]float64),
	}
}

func (m *Momentum) Name() string { return m.name }

// OnMarketData evalúa el cambio de probabilidad desde el tick anterior.
func (m *Momentum) OnMarketData(inst domain.Instrument) {
	prob := inst.ImpliedProbability()
	if prob <= 0 || prob >= 1 {
		return
	}

	last, seen := m.lastProb[inst.ID]
	m.lastProb[inst.ID] = prob
	if !seen {
		return
	}

	change := prob - last

	switch {
	case change > momentumDelta && prob > m.threshold:
		if _, held := m.ledger.Position(inst.ID, domain.SideYes); held {
			return
		}
		m.place(inst, domain.SideYes, prob)

	case change < -momentumDelta && prob < 1-m.threshold:
		if _, held := m.ledger.Position(inst.ID, domain.SideNo); held {
			return
		}
		if inst.NoPrice > 0 && inst.NoPrice < 1 {
			m.place(inst, domain.SideNo, inst.NoPrice)
		}
	}
}

func (m *Momentum) place(inst domain.Instrument, side domain.Side, price float64) {
	_, err := m.ledger.PlaceOrder(inst.ID, side, m.orderSize, price)
	switch {
	case err == nil:
		slog.Debug("momentum signal",
			"strategy", m.name,
			"asset", string(inst.Asset),
			"timeframe", string(inst.Timeframe),
			"side", string(side),
			"price", price,
		)
	case errors.Is(err, ledger.ErrInsufficientCash):
		slog.Debug("momentum order rejected", "strategy", m.name, "err", err)
	default:
		slog.Warn("momentum order failed", "strategy", m.name, "err", err)
	}
}
