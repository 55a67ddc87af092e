package domain

import "time"

// RawMarket es el registro crudo que devuelve el listado upstream, antes de
// clasificar. El core solo necesita estos campos; el resto del payload de la
// API se queda en el adapter.
type RawMarket struct {
	ID              string
	Title           string
	Description     string
	Active          bool
	EndTime         time.Time
	PriceToBeat     float64 // 0 si el upstream no trae el campo directo
	TokenIDs        []string
	DurationMinutes int // 0 si no viene metadata explícita de duración
}
