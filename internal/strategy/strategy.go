package strategy

import (
	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

// Strategy define el contrato de una estrategia de trading simulado. El
// scheduler invoca OnMarketData en cada fast tick con los instrumentos cuyo
// precio cambió; la estrategia decide y opera contra su propio ledger.
type Strategy interface {
	// Name devuelve el identificador único de la estrategia.
	Name() string

	// OnMarketData recibe un snapshot del instrumento actualizado.
	OnMarketData(inst domain.Instrument)
}

