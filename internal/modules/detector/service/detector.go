package service

import (
	"fmt"

	"exit_guard/internal/models"
	"exit_guard/internal/modules/config"

	"go.uber.org/zap"
)

// Detector решает, сломался ли импульс по прибыльной позиции настолько,
// чтобы выйти заранее и зафиксировать профит до разворота.
// Чистая функция от (позиция, индикаторы): никакого I/O, никакого
// состояния между вызовами — можно дёргать из любого числа горутин.
type Detector struct {
	thr     Thresholds
	enabled bool
	log     *zap.Logger
}

func NewDetector(cfg *config.Config, log *zap.Logger) *Detector {
	return New(ThresholdsFromConfig(cfg), cfg.Detector.Enabled, log)
}

func New(thr Thresholds, enabled bool, log *zap.Logger) *Detector {
	if log == nil {
		log = zap.NewNop()
	}
	if thr.RequiredSignals <= 0 {
		thr.RequiredSignals = 2
	}
	return &Detector{thr: thr, enabled: enabled, log: log}
}

// Enabled — задел под внешнее отключение, сейчас просто флаг конфига.
func (d *Detector) Enabled() bool { return d.enabled }

func (d *Detector) Thresholds() Thresholds { return d.thr }

// Detect оценивает позицию против снимка индикаторов.
// Пустые поля индикаторов деградируют в безопасные дефолты (см. models),
// ошибок тут не бывает по построению.
func (d *Detector) Detect(pos models.OpenPosition, ind models.TechnicalIndicators) models.MomentumFailureResult {
	res := models.MomentumFailureResult{}

	// шаг 0: подушка прибыли — до +MinProfitPct не режем позицию на шуме
	if pos.ProfitPct < d.thr.MinProfitPct {
		d.log.Debug("momentum check skipped: profit below cushion",
			zap.String("pair", pos.Pair),
			zap.Float64("profitPct", pos.ProfitPct),
			zap.Float64("minProfitPct", d.thr.MinProfitPct),
		)
		return res
	}

	// шаг 1: выбор профиля порогов
	momThr := d.thr.Momentum1hShort
	volThr := d.thr.VolumeRatioShort
	profile := "short"
	if pos.PyramidLevels >= 1 {
		momThr = d.thr.Momentum1hLong
		volThr = d.thr.VolumeRatioLong
		profile = "long"
	}

	// дефолты отсутствующих полей
	mom1h := ind.Momentum1h
	mom4h := ind.Momentum4h
	volRatio := ind.VolumeRatio
	if volRatio <= 0 {
		volRatio = 1
	}
	recentHigh := ind.RecentHigh
	if recentHigh <= 0 {
		recentHigh = pos.CurrentPrice
	}

	// шаг 2: слом прайс-экшена
	priceNearPeak := pos.CurrentPrice / recentHigh
	switch {
	case priceNearPeak >= d.thr.PeakProximity && mom1h < momThr:
		res.Signals.PriceActionFailure = true
		res.Reasoning = append(res.Reasoning, fmt.Sprintf(
			"price action failure: %.1f%% of recent high, momentum1h %.2f%% < %.2f%%",
			priceNearPeak*100, mom1h, momThr,
		))
	case mom1h < momThr:
		// резкий разворот — считается и вдали от хая
		res.Signals.PriceActionFailure = true
		res.Reasoning = append(res.Reasoning, fmt.Sprintf(
			"sharp 1h reversal: momentum1h %.2f%% < %.2f%%",
			mom1h, momThr,
		))
	}

	// шаг 3: выдох объёма
	if volRatio < volThr {
		res.Signals.VolumeExhaustion = true
		res.Reasoning = append(res.Reasoning, fmt.Sprintf(
			"volume exhaustion: ratio %.2f < %.2f",
			volRatio, volThr,
		))
	}

	// шаг 4: слом на старшем ТФ — первый сработавший триггер, без двойного счёта
	switch {
	case mom4h < d.thr.Momentum4hWeak:
		res.Signals.HTFBreakdown = true
		res.Reasoning = append(res.Reasoning, fmt.Sprintf(
			"HTF weakening: momentum4h %.2f%% < %.2f%%",
			mom4h, d.thr.Momentum4hWeak,
		))
	case ind.EMA200 > 0 && pos.CurrentPrice < ind.EMA200:
		res.Signals.HTFBreakdown = true
		res.Reasoning = append(res.Reasoning, fmt.Sprintf(
			"HTF breakdown: price %.6f below EMA200 %.6f",
			pos.CurrentPrice, ind.EMA200,
		))
	}

	res.SignalCount = countSignals(res.Signals)

	// шаг 5: решение
	if res.SignalCount >= d.thr.RequiredSignals {
		res.ShouldExit = true
		res.Reasoning = append(res.Reasoning, fmt.Sprintf(
			"momentum failure confirmed: %d/%d signals at +%.2f%% profit, exiting",
			res.SignalCount, d.thr.RequiredSignals, pos.ProfitPct,
		))
		d.log.Info("momentum failure exit",
			zap.String("pair", pos.Pair),
			zap.String("profile", profile),
			zap.Int("signals", res.SignalCount),
			zap.Float64("profitPct", pos.ProfitPct),
		)
		return res
	}

	if res.SignalCount > 0 {
		d.log.Debug("momentum signals below required",
			zap.String("pair", pos.Pair),
			zap.String("profile", profile),
			zap.Int("signals", res.SignalCount),
			zap.Int("required", d.thr.RequiredSignals),
		)
	}
	return res
}

func countSignals(s models.FailureSignals) int {
	n := 0
	if s.PriceActionFailure {
		n++
	}
	if s.VolumeExhaustion {
		n++
	}
	if s.HTFBreakdown {
		n++
	}
	return n
}
