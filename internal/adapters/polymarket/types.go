package polymarket

import "encoding/json"

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Gamma API ---

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket es un mercado del listado de Gamma. Gamma devuelve algunos
// campos numéricos como strings JSON, usamos json.Number; clobTokenIds llega
// como string con un array JSON dentro.
type gammaMarket struct {
	ID              string      `json:"id"`
	Question        string      `json:"question"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	EndDateISO      string      `json:"endDateIso"`
	EndDate         string      `json:"endDate"`
	PriceToBeat     json.Number `json:"priceToBeat"`
	DurationMinutes json.Number `json:"durationMinutes"`
	ClobTokenIDs    string      `json:"clobTokenIds"`
	Active          bool        `json:"active"`
	Closed          bool        `json:"closed"`
}

// --- CLOB API ---

// priceResponse es la respuesta de GET /price del CLOB.
type priceResponse struct {
	Price string `json:"price"`
}
