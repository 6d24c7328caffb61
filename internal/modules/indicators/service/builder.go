package service

import (
	"fmt"
	"sync"
	"time"

	"exit_guard/internal/models"
	"exit_guard/internal/modules/config"
)

// Builder собирает снимки TechnicalIndicators из закрытых 1m свечей.
// Окна: momentum1h/4h — pct-изменение цены закрытия за N баров,
// volumeRatio — последний объём к SMA за VolumeAvgBars,
// recentHigh — максимум high за RecentHighBars, плюс EMA длинного тренда.
type Builder struct {
	cfg config.Config

	mu sync.Mutex
	st map[string]*pairState
}

type pairState struct {
	closes []float64
	highs  []float64
	vols   []float64
	ema    emaState

	lastClose float64
	lastEnd   time.Time
	ready     bool
}

func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		cfg: *cfg,
		st:  make(map[string]*pairState),
	}
}

func (b *Builder) get(pair string) *pairState {
	if s, ok := b.st[pair]; ok {
		return s
	}
	s := &pairState{
		closes: make([]float64, 0, b.cfg.Indicators.Momentum4hBars+1),
		highs:  make([]float64, 0, b.cfg.Indicators.RecentHighBars),
		vols:   make([]float64, 0, b.cfg.Indicators.VolumeAvgBars+1),
		ema:    newEMA(b.cfg.Indicators.EMAPeriod),
	}
	b.st[pair] = s
	return s
}

// OnCandle принимает закрытую 1m свечу.
// becameReady=true когда пара впервые прогрелась (хватает баров для
// momentum1h и средней объёма).
func (b *Builder) OnCandle(t models.CandleTick) (becameReady bool) {
	// защита от мусора
	if t.Close <= 0 || t.High <= 0 {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.get(t.InstID)

	// дубликат или свеча из прошлого — пропускаем
	if !t.End.IsZero() && !st.lastEnd.IsZero() && !t.End.After(st.lastEnd) {
		return false
	}

	st.closes = append(st.closes, t.Close)
	if len(st.closes) > b.cfg.Indicators.Momentum4hBars+1 {
		st.closes = st.closes[1:]
	}

	st.highs = append(st.highs, t.High)
	if len(st.highs) > b.cfg.Indicators.RecentHighBars {
		st.highs = st.highs[1:]
	}

	st.vols = append(st.vols, t.Volume)
	if len(st.vols) > b.cfg.Indicators.VolumeAvgBars+1 {
		st.vols = st.vols[1:]
	}

	st.ema.Update(t.Close)
	st.lastClose = t.Close
	st.lastEnd = t.End

	if !st.ready &&
		len(st.closes) > b.cfg.Indicators.Momentum1hBars &&
		len(st.vols) > b.cfg.Indicators.VolumeAvgBars {
		st.ready = true
		return true
	}
	return false
}

// Snapshot отдаёт снимок индикаторов по паре. ok=false если пару ещё
// не видели вообще. Недобранные окна отдают нулевые поля — детектор
// трактует их как "нет данных".
func (b *Builder) Snapshot(pair string) (models.TechnicalIndicators, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.st[pair]
	if !ok {
		return models.TechnicalIndicators{}, false
	}

	var ind models.TechnicalIndicators

	ind.Momentum1h = pctChange(st.closes, b.cfg.Indicators.Momentum1hBars)
	ind.Momentum4h = pctChange(st.closes, b.cfg.Indicators.Momentum4hBars)

	if n := len(st.vols); n > b.cfg.Indicators.VolumeAvgBars {
		avg := mean(st.vols[n-1-b.cfg.Indicators.VolumeAvgBars : n-1])
		if avg > 0 {
			ind.VolumeRatio = st.vols[n-1] / avg
		}
	}

	if st.ema.Ready() {
		ind.EMA200 = st.ema.Value()
	}
	if len(st.highs) > 0 {
		ind.RecentHigh = maxSlice(st.highs)
	}

	return ind, true
}

// LastPrice — последний close, по нему watcher марк-ту-маркетит позиции,
// тем же фидом что и индикаторы.
func (b *Builder) LastPrice(pair string) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.st[pair]
	if !ok || st.lastClose <= 0 {
		return 0, false
	}
	return st.lastClose, true
}

func (b *Builder) IsReady(pair string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.st[pair]
	return ok && st.ready
}

func (b *Builder) Dump(pair string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.st[pair]
	if !ok {
		return "ind: no state"
	}
	return fmt.Sprintf(
		"ind[%s] bars=%d vols=%d ema=%.6f ready=%v last=%.6f",
		pair, len(st.closes), len(st.vols), st.ema.Value(), st.ready, st.lastClose,
	)
}

// pctChange — изменение close за bars шагов, в процентах.
// 0 пока окно не набралось.
func pctChange(closes []float64, bars int) float64 {
	n := len(closes)
	if bars <= 0 || n <= bars {
		return 0
	}
	base := closes[n-1-bars]
	if base <= 0 {
		return 0
	}
	return (closes[n-1]/base - 1) * 100
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func maxSlice(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
