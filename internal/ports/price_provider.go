package ports

import (
	"context"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

// PriceProvider obtiene los precios YES/NO actuales de un instrumento.
type PriceProvider interface {
	// FetchYesNoPrices devuelve ambos precios para el par de tokens dado.
	// Falla si cualquiera de los dos lados no se puede obtener tras los retries.
	FetchYesNoPrices(ctx context.Context, pair domain.TokenPair) (yes, no float64, err error)
}
