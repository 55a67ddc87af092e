package polymarket

import (
	"encoding/json"
	"time"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

// mapGammaMarkets convierte los DTOs de Gamma a domain.RawMarket.
func mapGammaMarkets(raw []gammaMarket) []domain.RawMarket {
	markets := make([]domain.RawMarket, 0, len(raw))
	for _, r := range raw {
		markets = append(markets, mapGammaMarket(r))
	}
	return markets
}

// mapGammaMarket convierte un gammaMarket DTO a domain.RawMarket. No valida
// nada: decidir qué mercados sirven es trabajo del classifier.
func mapGammaMarket(r gammaMarket) domain.RawMarket {
	m := domain.RawMarket{
		ID:          r.ID,
		Title:       firstNonEmpty(r.Question, r.Title),
		Description: r.Description,
		Active:      r.Active && !r.Closed,
		TokenIDs:    parseTokenIDs(r.ClobTokenIDs),
	}

	if v, err := r.PriceToBeat.Float64(); err == nil && v > 0 {
		m.PriceToBeat = v
	}
	if v, err := r.DurationMinutes.Int64(); err == nil && v > 0 {
		m.DurationMinutes = int(v)
	}
	m.EndTime = parseEndDate(firstNonEmpty(r.EndDateISO, r.EndDate))

	return m
}

// parseEndDate intenta los formatos de fecha más comunes de Polymarket.
func parseEndDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseTokenIDs decodifica el campo clobTokenIds, que Gamma serializa como
// string conteniendo un array JSON: "[\"123\",\"456\"]".
func parseTokenIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
