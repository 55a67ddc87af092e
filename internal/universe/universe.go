package universe

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/MochiAT/polymarket-bot-tournament/internal/classifier"
	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

const (
	// maxDiscardLogs limita los diagnósticos individuales por refresh;
	// el resto solo cuenta en el resumen agregado por motivo.
	maxDiscardLogs = 30

	DefaultStaleThreshold = 3
	DefaultStaleCooldown  = 2 * time.Minute
)

// Config controla el circuit breaker por instrumento.
type Config struct {
	StaleThreshold int           // fallos consecutivos antes de marcar Stale
	StaleCooldown  time.Duration // cuánto esperar antes de reintentar un Stale
}

// Diff es el resultado de un refresh: qué entró, qué se cerró y cuántos
// mercados se descartaron por cada motivo.
type Diff struct {
	Added          []string
	Closed         []string
	DiscardSummary map[domain.DiscardReason]int
}

// health es el estado del circuit breaker de un instrumento.
type health struct {
	consecutiveFailures int
	staleSince          time.Time
}

// Universe es la cache compartida de instrumentos canónicos. Existe
// exactamente una copia mutable por run: el scheduler escribe (refresh y
// precios), las estrategias leen snapshots. Cada operación muta de forma
// atómica bajo el lock, así ningún lector ve un diff a medio aplicar.
type Universe struct {
	mu          sync.RWMutex
	instruments map[string]domain.Instrument
	health      map[string]*health
	cfg         Config
	now         func() time.Time
}

// New crea un Universe vacío con la configuración dada.
func New(cfg Config) *Universe {
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = DefaultStaleThreshold
	}
	if cfg.StaleCooldown <= 0 {
		cfg.StaleCooldown = DefaultStaleCooldown
	}
	return &Universe{
		instruments: make(map[string]domain.Instrument),
		health:      make(map[string]*health),
		cfg:         cfg,
		now:         time.Now,
	}
}

// Refresh clasifica el batch completo de mercados raw y actualiza el universo:
// upsert de los válidos, cierre de los expirados y de los ausentes del batch.
// Nunca re-acuña un id existente ni toca sus campos de precio: de un
// instrumento ya presente solo cambian status, endTime y priceToBeat.
func (u *Universe) Refresh(rawRecords []domain.RawMarket) Diff {
	now := u.now()

	valid := make(map[string]domain.Instrument, len(rawRecords))
	summary := make(map[domain.DiscardReason]int)
	logged := 0
	for _, raw := range rawRecords {
		inst, discard := classifier.Classify(raw, now)
		if discard != nil {
			summary[discard.Reason]++
			if logged < maxDiscardLogs {
				logged++
				slog.Warn("market discarded",
					"id", discard.InstrumentID,
					"reason", discard.Reason,
					"asset", string(discard.Asset),
					"timeframe", string(discard.Timeframe),
					"title_norm", discard.TitleNormalized,
				)
			}
			continue
		}
		valid[inst.ID] = inst
	}
	if rest := totalDiscards(summary) - logged; rest > 0 {
		slog.Info("discard diagnostics capped", "logged", logged, "suppressed", rest)
	}

	diff := Diff{DiscardSummary: summary}

	u.mu.Lock()
	defer u.mu.Unlock()

	for id, inst := range valid {
		prev, exists := u.instruments[id]
		if !exists {
			u.instruments[id] = inst
			u.health[id] = &health{}
			diff.Added = append(diff.Added, id)
			continue
		}
		// Upsert: identidad y precios del estado previo se conservan,
		// el refresh solo gobierna status/endTime/metadata.
		prev.EndTime = inst.EndTime
		prev.PriceToBeat = inst.PriceToBeat
		prev.Title = inst.Title
		u.instruments[id] = prev
	}

	for id, inst := range u.instruments {
		_, present := valid[id]
		if present && !inst.Expired(now) {
			continue
		}
		delete(u.instruments, id)
		delete(u.health, id)
		diff.Closed = append(diff.Closed, id)
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Closed)
	return diff
}

// UpdatePrices aplica el fast path: para cada id del batch pide precios con
// fetch y actualiza solo yesPrice/noPrice/lastUpdated. No revalida asset ni
// timeframe. Un instrumento que falla StaleThreshold veces seguidas pasa a
// Stale y se salta hasta que expire el cooldown; entonces se reintenta y si
// responde vuelve a Active. El fallo de un instrumento nunca bloquea al resto.
// Devuelve snapshots de los instrumentos cuyo precio cambió.
func (u *Universe) UpdatePrices(ctx context.Context, ids []string, fetch func(ctx context.Context, pair domain.TokenPair) (yes, no float64, err error)) []domain.Instrument {
	var changed []domain.Instrument

	for _, id := range ids {
		if ctx.Err() != nil {
			return changed
		}

		pair, ok := u.fetchable(id)
		if !ok {
			continue
		}

		// El fetch es el único punto de suspensión: fuera del lock.
		yes, no, err := fetch(ctx, pair)

		if inst, ok := u.applyPrice(id, yes, no, err); ok {
			changed = append(changed, inst)
		}
	}

	return changed
}

// fetchable decide si el instrumento entra al fast path ahora mismo y
// devuelve su par de tokens.
func (u *Universe) fetchable(id string) (domain.TokenPair, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	inst, ok := u.instruments[id]
	if !ok || !inst.Tokens.Valid() {
		return domain.TokenPair{}, false
	}
	if inst.Status == domain.StatusStale {
		h := u.health[id]
		if h == nil || u.now().Sub(h.staleSince) < u.cfg.StaleCooldown {
			return domain.TokenPair{}, false
		}
	}
	return inst.Tokens, true
}

// applyPrice commitea el resultado de un fetch de precio. Si el refresh
// eliminó el instrumento mientras el fetch estaba en vuelo, el resultado se
// descarta: el slow tick gana sobre identidad y status.
func (u *Universe) applyPrice(id string, yes, no float64, fetchErr error) (domain.Instrument, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	inst, ok := u.instruments[id]
	if !ok {
		return domain.Instrument{}, false
	}
	h := u.health[id]
	if h == nil {
		h = &health{}
		u.health[id] = h
	}

	if fetchErr != nil {
		h.consecutiveFailures++
		if h.consecutiveFailures >= u.cfg.StaleThreshold && inst.Status == domain.StatusActive {
			inst.Status = domain.StatusStale
			h.staleSince = u.now()
			u.instruments[id] = inst
			slog.Warn("instrument marked stale",
				"id", id, "failures", h.consecutiveFailures, "err", fetchErr)
		} else if inst.Status == domain.StatusStale {
			// Reintento tras cooldown fallido: reinicia la ventana.
			h.staleSince = u.now()
		}
		return domain.Instrument{}, false
	}

	h.consecutiveFailures = 0
	if inst.Status == domain.StatusStale {
		inst.Status = domain.StatusActive
		slog.Info("instrument recovered from stale", "id", id)
	}

	priceChanged := inst.YesPrice != yes || inst.NoPrice != no
	inst.YesPrice = yes
	inst.NoPrice = no
	inst.LastUpdated = u.now()
	u.instruments[id] = inst

	return inst, priceChanged
}

// ActiveInstruments devuelve un snapshot del set Active actual. El caller no
// debe tratarlo como referencia viva.
func (u *Universe) ActiveInstruments() []domain.Instrument {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]domain.Instrument, 0, len(u.instruments))
	for _, inst := range u.instruments {
		if inst.Status == domain.StatusActive {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Instruments devuelve un snapshot de todo el universo (Active y Stale).
// Los Stale siguen visibles para las estrategias aunque no entren al fast path.
func (u *Universe) Instruments() []domain.Instrument {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]domain.Instrument, 0, len(u.instruments))
	for _, inst := range u.instruments {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveIDs devuelve los ids Active ordenados, para el round-robin del scheduler.
func (u *Universe) ActiveIDs() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()

	ids := make([]string, 0, len(u.instruments))
	for id, inst := range u.instruments {
		if inst.Status == domain.StatusActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// IDs devuelve todos los ids del universo ordenados. El scheduler hace
// round-robin sobre esta lista; UpdatePrices decide por sí solo si un Stale
// entra al fetch (cooldown cumplido) o se salta.
func (u *Universe) IDs() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()

	ids := make([]string, 0, len(u.instruments))
	for id := range u.instruments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get devuelve un snapshot del instrumento, si existe.
func (u *Universe) Get(id string) (domain.Instrument, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	inst, ok := u.instruments[id]
	return inst, ok
}

// Len devuelve cuántos instrumentos hay en el universo.
func (u *Universe) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.instruments)
}

// SetClock inyecta un reloj para tests.
func (u *Universe) SetClock(now func() time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.now = now
}

func totalDiscards(summary map[domain.DiscardReason]int) int {
	total := 0
	for _, n := range summary {
		total += n
	}
	return total
}
