package polymarket

import (
	"context"
	"fmt"
	"strconv"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

const pricePath = "/price"

// FetchYesNoPrices devuelve los precios BUY actuales de ambos lados del
// mercado. Falla si cualquiera de los dos fetches falla tras los retries:
// un instrumento con un solo lado actualizado no sirve para marcar posiciones.
func (c *Client) FetchYesNoPrices(ctx context.Context, pair domain.TokenPair) (yes, no float64, err error) {
	yes, err = c.fetchPrice(ctx, pair.Yes)
	if err != nil {
		return 0, 0, fmt.Errorf("clob.FetchYesNoPrices: yes side: %w", err)
	}
	no, err = c.fetchPrice(ctx, pair.No)
	if err != nil {
		return 0, 0, fmt.Errorf("clob.FetchYesNoPrices: no side: %w", err)
	}
	return yes, no, nil
}

// fetchPrice pide el precio BUY (lowest ask) de un token del CLOB.
func (c *Client) fetchPrice(ctx context.Context, tokenID string) (float64, error) {
	url := fmt.Sprintf("%s%s?token_id=%s&side=BUY", c.clobBase, pricePath, tokenID)

	var resp priceResponse
	if err := c.get(ctx, c.priceLimiter, url, &resp); err != nil {
		return 0, err
	}

	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", resp.Price, err)
	}
	if price <= 0 || price >= 1 {
		return 0, fmt.Errorf("price %.4f outside (0,1)", price)
	}
	return price, nil
}
