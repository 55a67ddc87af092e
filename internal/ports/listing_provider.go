package ports

import (
	"context"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

// ListingProvider obtiene el listado completo de mercados activos upstream.
type ListingProvider interface {
	// FetchActiveMarkets devuelve todos los mercados activos.
	// Pagina automáticamente hasta agotar los resultados; si una página
	// intermedia falla tras los retries, devuelve lo acumulado hasta ahí.
	FetchActiveMarkets(ctx context.Context) ([]domain.RawMarket, error)
}
