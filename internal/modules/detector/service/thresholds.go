package service

import "exit_guard/internal/modules/config"

// Thresholds — вся конфигурация детектора в одном месте, без магических
// чисел по коду. Momentum-пороги в процентных единицах (как momentum1h/4h),
// сравнение прямое, без умножения на 100.
type Thresholds struct {
	MinProfitPct  float64 // не вмешиваемся, пока прибыль меньше подушки
	PeakProximity float64 // current/recentHigh >= => "у хая"

	// короткий профиль: позиция без пирамид, горизонт ~1h
	Momentum1hShort  float64
	VolumeRatioShort float64

	// длинный профиль: пирамиды >= 1, горизонт ~4h
	Momentum1hLong  float64
	VolumeRatioLong float64

	Momentum4hWeak  float64 // фиксированный HTF-порог, от профиля не зависит
	RequiredSignals int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinProfitPct:     2.0,
		PeakProximity:    0.985,
		Momentum1hShort:  -0.5,
		VolumeRatioShort: 0.8,
		Momentum1hLong:   -0.3,
		VolumeRatioLong:  0.9,
		Momentum4hWeak:   -0.5,
		RequiredSignals:  2,
	}
}

func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	return Thresholds{
		MinProfitPct:     cfg.Detector.MinProfitPct,
		PeakProximity:    cfg.Detector.PeakProximity,
		Momentum1hShort:  cfg.Detector.Momentum1hShort,
		VolumeRatioShort: cfg.Detector.VolumeRatioShort,
		Momentum1hLong:   cfg.Detector.Momentum1hLong,
		VolumeRatioLong:  cfg.Detector.VolumeRatioLong,
		Momentum4hWeak:   cfg.Detector.Momentum4hWeak,
		RequiredSignals:  cfg.Detector.RequiredSignals,
	}
}
