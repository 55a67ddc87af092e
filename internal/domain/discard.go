package domain

// DiscardReason clasifica por qué un mercado raw no entró al universo.
type DiscardReason string

const (
	DiscardNotBinaryFormat      DiscardReason = "not_binary_format"
	DiscardUnknownAsset         DiscardReason = "unknown_asset"
	DiscardUnsupportedTimeframe DiscardReason = "unsupported_timeframe"
	DiscardMissingPriceToBeat   DiscardReason = "missing_price_to_beat"
	DiscardInactiveOrExpired    DiscardReason = "inactive_or_expired"
	DiscardMissingTokenIDs      DiscardReason = "missing_token_ids"
)

// maxTitleLen limita los títulos en los diagnósticos de descarte.
const maxTitleLen = 160

// DiscardRecord es el diagnóstico de un mercado descartado durante un refresh.
// Asset y Timeframe llevan lo que se alcanzó a resolver antes del fallo
// (vacío si el paso nunca llegó a ejecutarse).
type DiscardRecord struct {
	InstrumentID    string // puede estar vacío si el raw record no traía id
	Reason          DiscardReason
	Asset           Asset
	Timeframe       Timeframe
	TitleOriginal   string
	TitleNormalized string
}

// NewDiscardRecord construye un DiscardRecord truncando ambos títulos.
func NewDiscardRecord(id string, reason DiscardReason, asset Asset, tf Timeframe, title, titleNorm string) DiscardRecord {
	return DiscardRecord{
		InstrumentID:    id,
		Reason:          reason,
		Asset:           asset,
		Timeframe:       tf,
		TitleOriginal:   TruncateTitle(title),
		TitleNormalized: TruncateTitle(titleNorm),
	}
}

// TruncateTitle corta un título a 160 caracteres para los logs.
func TruncateTitle(s string) string {
	if len(s) > maxTitleLen {
		return s[:maxTitleLen]
	}
	return s
}
