package domain

import "time"

// Asset es uno de los cripto-activos soportados.
type Asset string

const (
	AssetBTC Asset = "BTC"
	AssetETH Asset = "ETH"
	AssetSOL Asset = "SOL"
	AssetXRP Asset = "XRP"
)

// Timeframe es la duración del mercado binario.
type Timeframe string

const (
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

// InstrumentStatus es el estado de un instrumento dentro del universo.
type InstrumentStatus string

const (
	StatusActive InstrumentStatus = "ACTIVE"
	StatusStale  InstrumentStatus = "STALE"
	StatusClosed InstrumentStatus = "CLOSED"
)

// TokenPair son los dos token IDs del CLOB usados para pedir precios en vivo.
type TokenPair struct {
	Yes string
	No  string
}

// Valid devuelve true si ambos token IDs están presentes.
func (p TokenPair) Valid() bool {
	return p.Yes != "" && p.No != ""
}

// Instrument es un mercado binario cripto ya validado y canónico.
// Los campos de precio solo los muta el fast tick; status e identidad
// solo los muta el slow tick (refresh) o el circuit breaker.
type Instrument struct {
	ID          string
	Asset       Asset
	Timeframe   Timeframe
	Title       string
	YesPrice    float64 // en (0,1), no tiene por qué sumar 1 con NoPrice
	NoPrice     float64
	PriceToBeat float64 // precio de referencia contra el que resuelve el mercado
	EndTime     time.Time
	Status      InstrumentStatus
	Tokens      TokenPair
	LastUpdated time.Time // último fetch de precio exitoso
}

// Expired devuelve true si el EndTime ya pasó en el instante dado.
func (i Instrument) Expired(now time.Time) bool {
	return !i.EndTime.After(now)
}

// ImpliedProbability es la probabilidad implícita del lado YES.
// En mercados de predicción precio = probabilidad.
func (i Instrument) ImpliedProbability() float64 {
	return i.YesPrice
}

// HoursToResolution devuelve las horas hasta la resolución, 0 si ya pasó.
func (i Instrument) HoursToResolution(now time.Time) float64 {
	h := i.EndTime.Sub(now).Hours()
	if h < 0 {
		return 0
	}
	return h
}
