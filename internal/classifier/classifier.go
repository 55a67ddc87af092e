package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

// Classify convierte un registro raw en un Instrument canónico, o devuelve el
// DiscardRecord con el motivo del descarte. Es una función pura: no guarda
// estado entre llamadas. Los pasos cortocircuitan en orden: formato binario,
// asset, timeframe, validación de campos.
func Classify(raw domain.RawMarket, now time.Time) (domain.Instrument, *domain.DiscardRecord) {
	titleNorm := Normalize(raw.Title)

	discard := func(reason domain.DiscardReason, asset domain.Asset, tf domain.Timeframe) (domain.Instrument, *domain.DiscardRecord) {
		rec := domain.NewDiscardRecord(raw.ID, reason, asset, tf, raw.Title, titleNorm)
		return domain.Instrument{}, &rec
	}

	if !isBinaryFormat(titleNorm) {
		return discard(domain.DiscardNotBinaryFormat, "", "")
	}

	asset, ok := extractAsset(titleNorm)
	if !ok {
		return discard(domain.DiscardUnknownAsset, "", "")
	}

	tf, ok := extractTimeframe(titleNorm, raw.DurationMinutes)
	if !ok {
		return discard(domain.DiscardUnsupportedTimeframe, asset, "")
	}

	if !raw.Active || raw.EndTime.IsZero() || !raw.EndTime.After(now) {
		return discard(domain.DiscardInactiveOrExpired, asset, tf)
	}

	pair, ok := tokenPair(raw.TokenIDs)
	if !ok {
		return discard(domain.DiscardMissingTokenIDs, asset, tf)
	}

	priceToBeat, ok := extractPriceToBeat(raw)
	if !ok {
		return discard(domain.DiscardMissingPriceToBeat, asset, tf)
	}

	return domain.Instrument{
		ID:          raw.ID,
		Asset:       asset,
		Timeframe:   tf,
		Title:       raw.Title,
		PriceToBeat: priceToBeat,
		EndTime:     raw.EndTime,
		Status:      domain.StatusActive,
		Tokens:      pair,
	}, nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize prepara un título para el matching: minúsculas, dashes Unicode
// (en dash, em dash) a guión normal, espacios colapsados, trim.
// Es idempotente: normalizar un título ya normalizado lo deja igual.
func Normalize(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, "–", "-")
	s = strings.ReplaceAll(s, "—", "-")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// binaryShapes son las variantes aceptadas de mercado direccional binario.
var binaryShapes = []string{
	"up or down",
	"up/down",
	"updown",
	"up-down",
	"higher or lower",
	"above or below",
}

func isBinaryFormat(titleNorm string) bool {
	for _, shape := range binaryShapes {
		if strings.Contains(titleNorm, shape) {
			return true
		}
	}
	return false
}

// assetPatterns matchea sinónimos como palabra completa dentro del título
// normalizado. El orden no importa: los sinónimos no se solapan entre assets.
var assetPatterns = []struct {
	re    *regexp.Regexp
	asset domain.Asset
}{
	{regexp.MustCompile(`\b(btc|bitcoin)\b`), domain.AssetBTC},
	{regexp.MustCompile(`\b(eth|ethereum)\b`), domain.AssetETH},
	{regexp.MustCompile(`\b(sol|solana)\b`), domain.AssetSOL},
	{regexp.MustCompile(`\bxrp\b`), domain.AssetXRP},
}

func extractAsset(titleNorm string) (domain.Asset, bool) {
	for _, p := range assetPatterns {
		if p.re.MatchString(titleNorm) {
			return p.asset, true
		}
	}
	return "", false
}

// timeframePatterns son los sinónimos por bucket sobre el título normalizado.
var timeframePatterns = []struct {
	re *regexp.Regexp
	tf domain.Timeframe
}{
	{regexp.MustCompile(`\b15\s*m\b`), domain.Timeframe15m},
	{regexp.MustCompile(`\b15\s*min(?:s|ute|utes)?\b`), domain.Timeframe15m},
	{regexp.MustCompile(`\b15-min(?:ute)?s?\b`), domain.Timeframe15m},
	{regexp.MustCompile(`\b1\s*h\b`), domain.Timeframe1h},
	{regexp.MustCompile(`\b1\s*hour(?:s)?\b`), domain.Timeframe1h},
	{regexp.MustCompile(`\b60\s*min(?:s|ute|utes)?\b`), domain.Timeframe1h},
	{regexp.MustCompile(`\b4\s*h\b`), domain.Timeframe4h},
	{regexp.MustCompile(`\b4\s*hour(?:s)?\b`), domain.Timeframe4h},
	{regexp.MustCompile(`\b240\s*min(?:s|ute|utes)?\b`), domain.Timeframe4h},
	{regexp.MustCompile(`\b1\s*d\b`), domain.Timeframe1d},
	{regexp.MustCompile(`\b1\s*day\b`), domain.Timeframe1d},
	{regexp.MustCompile(`\b24\s*hour(?:s)?\b`), domain.Timeframe1d},
	{regexp.MustCompile(`\b1440\s*min(?:s|ute|utes)?\b`), domain.Timeframe1d},
}

// timeWindowRe captura ventanas horarias tipo "7:30am-7:45am".
var timeWindowRe = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(am|pm)\s*-\s*(\d{1,2}):(\d{2})\s*(am|pm)`)

// extractTimeframe resuelve el timeframe en cadena de prioridad estricta:
// metadata explícita → sinónimos del título → ventana horaria. La primera
// fuente que matchea gana, sin mezclar señales parciales entre fuentes.
func extractTimeframe(titleNorm string, durationMinutes int) (domain.Timeframe, bool) {
	if durationMinutes > 0 {
		if tf, ok := minutesToTimeframe(durationMinutes); ok {
			return tf, true
		}
	}

	for _, p := range timeframePatterns {
		if p.re.MatchString(titleNorm) {
			return p.tf, true
		}
	}

	if m := timeWindowRe.FindStringSubmatch(titleNorm); m != nil {
		if tf, ok := minutesToTimeframe(windowMinutes(m)); ok {
			return tf, true
		}
	}

	return "", false
}

// minutesToTimeframe mapea minutos a un bucket estándar con bandas de
// tolerancia, para absorber ventanas inexactas (14, 16, 58 min...).
func minutesToTimeframe(minutes int) (domain.Timeframe, bool) {
	switch {
	case minutes >= 10 && minutes <= 20:
		return domain.Timeframe15m, true
	case minutes >= 45 && minutes <= 75:
		return domain.Timeframe1h, true
	case minutes >= 210 && minutes <= 270:
		return domain.Timeframe4h, true
	case minutes >= 1200 && minutes <= 1680:
		return domain.Timeframe1d, true
	}
	return "", false
}

// windowMinutes calcula la duración en minutos de una ventana am/pm capturada
// por timeWindowRe. Si cruza medianoche suma un día.
func windowMinutes(m []string) int {
	startHour, _ := strconv.Atoi(m[1])
	startMin, _ := strconv.Atoi(m[2])
	endHour, _ := strconv.Atoi(m[4])
	endMin, _ := strconv.Atoi(m[5])

	startHour = to24h(startHour, m[3])
	endHour = to24h(endHour, m[6])

	duration := (endHour*60 + endMin) - (startHour*60 + startMin)
	if duration < 0 {
		duration += 24 * 60
	}
	return duration
}

func to24h(hour int, period string) int {
	if period == "pm" && hour != 12 {
		return hour + 12
	}
	if period == "am" && hour == 12 {
		return 0
	}
	return hour
}

func tokenPair(ids []string) (domain.TokenPair, bool) {
	if len(ids) < 2 {
		return domain.TokenPair{}, false
	}
	pair := domain.TokenPair{Yes: ids[0], No: ids[1]}
	return pair, pair.Valid()
}

// priceRe captura precios tipo "$109,500.50" en títulos y descripciones.
var priceRe = regexp.MustCompile(`\$\s*(\d{1,3}(?:,\d{3})*(?:\.\d+)?)`)

// extractPriceToBeat saca el precio de referencia con cadena de fallback:
// campo directo → regex sobre el título → regex sobre la descripción.
func extractPriceToBeat(raw domain.RawMarket) (float64, bool) {
	if raw.PriceToBeat > 0 {
		return raw.PriceToBeat, true
	}
	for _, text := range []string{raw.Title, raw.Description} {
		if m := priceRe.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil && v > 0 {
				return v, true
			}
		}
	}
	return 0, false
}
