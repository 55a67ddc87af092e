package candles

import (
	"sync"
	"time"
)

// maxCandles limita el histórico por instrumento y timeframe.
const maxCandles = 1000

// Candle es una vela OHLC construida a partir de ticks de precio YES.
type Candle struct {
	Timestamp time.Time // inicio del periodo, alineado al timeframe
	Open      float64
	High      float64
	Low       float64
	Close     float64
}

// Aggregator agrega ticks de precio en velas OHLC por instrumento y por
// bucket de minutos (15/60/240/1440). Lo alimenta el fast tick; lo consumen
// las estrategias basadas en histórico.
type Aggregator struct {
	mu         sync.Mutex
	timeframes []int // minutos
	completed  map[string]map[int][]Candle
	partial    map[string]map[int]*Candle
}

// New crea un Aggregator para los timeframes dados (en minutos).
func New(timeframesMinutes []int) *Aggregator {
	return &Aggregator{
		timeframes: timeframesMinutes,
		completed:  make(map[string]map[int][]Candle),
		partial:    make(map[string]map[int]*Candle),
	}
}

// AddTick incorpora un tick de precio a todas las velas parciales del
// instrumento, cerrando las que cambien de periodo.
func (a *Aggregator) AddTick(instrumentID string, ts time.Time, price float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, tf := range a.timeframes {
		a.updateCandle(instrumentID, tf, ts, price)
	}
}

func (a *Aggregator) updateCandle(id string, tfMinutes int, ts time.Time, price float64) {
	start := ts.Truncate(time.Duration(tfMinutes) * time.Minute)

	if a.partial[id] == nil {
		a.partial[id] = make(map[int]*Candle)
	}
	cur := a.partial[id][tfMinutes]

	if cur == nil || !cur.Timestamp.Equal(start) {
		if cur != nil {
			a.appendCompleted(id, tfMinutes, *cur)
		}
		a.partial[id][tfMinutes] = &Candle{
			Timestamp: start,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
		}
		return
	}

	if price > cur.High {
		cur.High = price
	}
	if price < cur.Low {
		cur.Low = price
	}
	cur.Close = price
}

func (a *Aggregator) appendCompleted(id string, tfMinutes int, c Candle) {
	if a.completed[id] == nil {
		a.completed[id] = make(map[int][]Candle)
	}
	list := append(a.completed[id][tfMinutes], c)
	if len(list) > maxCandles {
		list = list[len(list)-maxCandles:]
	}
	a.completed[id][tfMinutes] = list
}

// Candles devuelve las últimas limit velas completadas del instrumento.
func (a *Aggregator) Candles(instrumentID string, tfMinutes, limit int) []Candle {
	a.mu.Lock()
	defer a.mu.Unlock()

	list := a.completed[instrumentID][tfMinutes]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	out := make([]Candle, len(list))
	copy(out, list)
	return out
}

// Latest devuelve la última vela completada (no la parcial), si existe.
func (a *Aggregator) Latest(instrumentID string, tfMinutes int) (Candle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	list := a.completed[instrumentID][tfMinutes]
	if len(list) == 0 {
		return Candle{}, false
	}
	return list[len(list)-1], true
}
