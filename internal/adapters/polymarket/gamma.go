package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	gammaPageSize    = 100
	gammaMaxMarkets  = 1000
)

// FetchActiveMarkets devuelve todos los mercados activos de Gamma.
// Pagina con limit/offset hasta agotar resultados o llegar a gammaMaxMarkets.
// Si una página intermedia falla tras los retries, devuelve lo acumulado:
// un listado parcial es mejor que vaciar el universo.
func (c *Client) FetchActiveMarkets(ctx context.Context) ([]domain.RawMarket, error) {
	var all []domain.RawMarket

	for offset := 0; len(all) < gammaMaxMarkets; offset += gammaPageSize {
		url := fmt.Sprintf("%s%s?active=true&closed=false&limit=%d&offset=%d",
			c.gammaBase, gammaMarketsPath, gammaPageSize, offset)

		var resp gammaMarketsResponse
		if err := c.get(ctx, c.gammaLimiter, url, &resp); err != nil {
			if len(all) == 0 {
				return nil, fmt.Errorf("gamma.FetchActiveMarkets: %w", err)
			}
			slog.Warn("gamma page failed, returning partial listing",
				"offset", offset, "fetched", len(all), "err", err)
			break
		}

		all = append(all, mapGammaMarkets(resp)...)

		slog.Debug("fetched gamma markets page",
			"count", len(resp),
			"total", len(all),
		)

		if len(resp) < gammaPageSize {
			break
		}
	}

	slog.Info("gamma markets fetched", "total", len(all))
	return all, nil
}
