package polymarket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapGammaMarket(t *testing.T) {
	m := mapGammaMarket(gammaMarket{
		ID:              "1234",
		Question:        "Bitcoin Up or Down - 15 Minutes",
		Description:     "Will BTC be above $65,000?",
		EndDateISO:      "2026-03-10T12:15:00Z",
		PriceToBeat:     json.Number("65000"),
		DurationMinutes: json.Number("15"),
		ClobTokenIDs:    `["111","222"]`,
		Active:          true,
	})

	assert.Equal(t, "1234", m.ID)
	assert.Equal(t, "Bitcoin Up or Down - 15 Minutes", m.Title)
	assert.True(t, m.Active)
	assert.Equal(t, []string{"111", "222"}, m.TokenIDs)
	assert.Equal(t, 65000.0, m.PriceToBeat)
	assert.Equal(t, 15, m.DurationMinutes)
	assert.Equal(t, time.Date(2026, 3, 10, 12, 15, 0, 0, time.UTC), m.EndTime)
}

func TestMapGammaMarket_ClosedOverridesActive(t *testing.T) {
	m := mapGammaMarket(gammaMarket{ID: "x", Active: true, Closed: true})
	assert.False(t, m.Active)
}

func TestMapGammaMarket_TitleFallback(t *testing.T) {
	m := mapGammaMarket(gammaMarket{Title: "fallback title"})
	assert.Equal(t, "fallback title", m.Title)

	m = mapGammaMarket(gammaMarket{Question: "question wins", Title: "fallback title"})
	assert.Equal(t, "question wins", m.Title)
}

func TestParseEndDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-10T12:15:00Z", time.Date(2026, 3, 10, 12, 15, 0, 0, time.UTC)},
		{"2026-03-10T12:15:00.000Z", time.Date(2026, 3, 10, 12, 15, 0, 0, time.UTC)},
		{"2026-03-10", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"not a date", time.Time{}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, parseEndDate(c.in), "input %q", c.in)
	}
}

func TestParseTokenIDs(t *testing.T) {
	assert.Equal(t, []string{"111", "222"}, parseTokenIDs(`["111","222"]`))
	assert.Nil(t, parseTokenIDs(""))
	assert.Nil(t, parseTokenIDs("not json"))
}

func TestMapGammaMarkets(t *testing.T) {
	out := mapGammaMarkets([]gammaMarket{{ID: "a"}, {ID: "b"}})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}
