package strategy

import (
	"errors"
	"log/slog"

	"github.com/MochiAT/polymarket-bot-tournament/internal/candles"
	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
	"github.com/MochiAT/polymarket-bot-tournament/internal/ledger"
)

const (
	reversionLookback  = 8    // velas completadas para la media
	reversionTFMinutes = 15   // bucket de velas usado
	reversionBand      = 0.05 // desviación mínima sobre la media para operar
	reversionExit      = 0.01 // cerca de la media → cerrar
)

// MeanReversion apuesta contra desviaciones grandes de la probabilidad
// implícita respecto a su media reciente de velas: si el YES se dispara por
// encima de la media compra NO, y viceversa. Cierra cuando el precio vuelve
// a la banda.
type MeanReversion struct {
	name      string
	orderSize float64
	ledger    *ledger.Ledger
	agg       *candles.Aggregator
}

// NewMeanReversion crea la estrategia ligada a su ledger y al aggregator
// compartido de velas.
func NewMeanReversion(name string, orderSize float64, l *ledger.Ledger, agg *candles.Aggregator) *MeanReversion {
	if orderSize <= 0 {
		orderSize = defaultOrderSize
	}
	return &MeanReversion{name: name, orderSize: orderSize, ledger: l, agg: agg}
}

func (s *MeanReversion) Name() string { return s.name }

func (s *MeanReversion) OnMarketData(inst domain.Instrument) {
	prob := inst.ImpliedProbability()
	if prob <= 0 || prob >= 1 {
		return
	}

	history := s.agg.Candles(inst.ID, reversionTFMinutes, reversionLookback)
	if len(history) < reversionLookback/2 {
		return
	}
	mean := closeMean(history)
	deviation := prob - mean

	// Salida: si estamos cerca de la media, cerrar lo que haya abierto.
	if deviation > -reversionExit && deviation < reversionExit {
		s.closeIfOpen(inst, domain.SideNo, inst.NoPrice)
		s.closeIfOpen(inst, domain.SideYes, prob)
		return
	}

	switch {
	case deviation > reversionBand:
		// YES sobrecomprado → largo NO
		if _, held := s.ledger.Position(inst.ID, domain.SideNo); held {
			return
		}
		if inst.NoPrice > 0 && inst.NoPrice < 1 {
			s.place(inst, domain.SideNo, inst.NoPrice)
		}
	case deviation < -reversionBand:
		if _, held := s.ledger.Position(inst.ID, domain.SideYes); held {
			return
		}
		s.place(inst, domain.SideYes, prob)
	}
}

func (s *MeanReversion) closeIfOpen(inst domain.Instrument, side domain.Side, price float64) {
	pos, held := s.ledger.Position(inst.ID, side)
	if !held || price <= 0 || price >= 1 {
		return
	}
	if _, err := s.ledger.PlaceOrder(inst.ID, side, pos.Size, price); err != nil {
		slog.Warn("mean reversion close failed", "strategy", s.name, "err", err)
	}
}

func (s *MeanReversion) place(inst domain.Instrument, side domain.Side, price float64) {
	_, err := s.ledger.PlaceOrder(inst.ID, side, s.orderSize, price)
	switch {
	case err == nil:
		slog.Debug("mean reversion signal",
			"strategy", s.name,
			"asset", string(inst.Asset),
			"side", string(side),
			"price", price,
		)
	case errors.Is(err, ledger.ErrInsufficientCash):
		slog.Debug("mean reversion order rejected", "strategy", s.name, "err", err)
	default:
		slog.Warn("mean reversion order failed", "strategy", s.name, "err", err)
	}
}

func closeMean(history []candles.Candle) float64 {
	sum := 0.0
	for _, c := range history {
		sum += c.Close
	}
	return sum / float64(len(history))
}
