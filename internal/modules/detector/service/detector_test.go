package service

import (
	"reflect"
	"strings"
	"testing"

	"exit_guard/internal/models"
)

func newTestDetector() *Detector {
	return New(DefaultThresholds(), true, nil)
}

func pos(profitPct float64, pyramids int) models.OpenPosition {
	return models.OpenPosition{
		Pair:          "BTC-USDT-SWAP",
		EntryPrice:    100,
		CurrentPrice:  100 * (1 + profitPct/100),
		ProfitPct:     profitPct,
		PyramidLevels: pyramids,
	}
}

// neutral indicators: ни один сигнал не должен сработать
func neutral() models.TechnicalIndicators {
	return models.TechnicalIndicators{
		Momentum1h:  0,
		Momentum4h:  0,
		VolumeRatio: 1,
	}
}

func TestProfitGate(t *testing.T) {
	d := newTestDetector()

	// даже с максимально медвежьими индикаторами до +2% не вмешиваемся
	bearish := models.TechnicalIndicators{
		Momentum1h:  -5,
		Momentum4h:  -5,
		VolumeRatio: 0.1,
		EMA200:      1000,
		RecentHigh:  200,
	}

	for _, profit := range []float64{-10, 0, 1.5, 1.99} {
		res := d.Detect(pos(profit, 0), bearish)
		if res.ShouldExit {
			t.Errorf("profit=%.2f: expected no exit, got exit", profit)
		}
		if res.SignalCount != 0 {
			t.Errorf("profit=%.2f: expected 0 signals, got %d", profit, res.SignalCount)
		}
		if res.Signals != (models.FailureSignals{}) {
			t.Errorf("profit=%.2f: expected all signals false, got %+v", profit, res.Signals)
		}
	}

	// на границе 2.0 проверка уже работает
	res := d.Detect(pos(2.0, 0), bearish)
	if !res.ShouldExit {
		t.Error("profit=2.0 with bearish indicators: expected exit")
	}
}

func TestSignalCountConsistency(t *testing.T) {
	d := newTestDetector()

	cases := []struct {
		name string
		ind  models.TechnicalIndicators
	}{
		{"neutral", neutral()},
		{"momentum only", models.TechnicalIndicators{Momentum1h: -0.6, VolumeRatio: 1}},
		{"volume only", models.TechnicalIndicators{VolumeRatio: 0.5}},
		{"htf only", models.TechnicalIndicators{Momentum4h: -0.6, VolumeRatio: 1}},
		{"all three", models.TechnicalIndicators{Momentum1h: -1, Momentum4h: -1, VolumeRatio: 0.3}},
		{"ema breakdown", models.TechnicalIndicators{VolumeRatio: 1, EMA200: 200}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := d.Detect(pos(3, 0), tc.ind)

			want := 0
			if res.Signals.PriceActionFailure {
				want++
			}
			if res.Signals.VolumeExhaustion {
				want++
			}
			if res.Signals.HTFBreakdown {
				want++
			}
			if res.SignalCount != want {
				t.Errorf("SignalCount=%d, signals say %d", res.SignalCount, want)
			}
			if res.ShouldExit != (res.SignalCount >= 2) {
				t.Errorf("ShouldExit=%v with %d signals", res.ShouldExit, res.SignalCount)
			}
		})
	}
}

func TestShortProfileSingleSignal(t *testing.T) {
	d := newTestDetector()

	// momentum1h -0.6 < -0.5 (короткий профиль), остальное нейтрально:
	// ровно один сигнал, выхода нет
	ind := neutral()
	ind.Momentum1h = -0.6

	res := d.Detect(pos(3, 0), ind)

	if !res.Signals.PriceActionFailure {
		t.Error("expected priceActionFailure to fire")
	}
	if res.Signals.VolumeExhaustion || res.Signals.HTFBreakdown {
		t.Errorf("unexpected extra signals: %+v", res.Signals)
	}
	if res.SignalCount != 1 {
		t.Errorf("expected 1 signal, got %d", res.SignalCount)
	}
	if res.ShouldExit {
		t.Error("one signal must not trigger exit")
	}
}

func TestTwoSignalsTriggerExit(t *testing.T) {
	d := newTestDetector()

	ind := neutral()
	ind.Momentum1h = -0.6
	ind.VolumeRatio = 0.5 // < 0.8 короткого профиля

	res := d.Detect(pos(3, 0), ind)

	if !res.Signals.PriceActionFailure || !res.Signals.VolumeExhaustion {
		t.Fatalf("expected priceActionFailure+volumeExhaustion, got %+v", res.Signals)
	}
	if res.SignalCount != 2 {
		t.Errorf("expected 2 signals, got %d", res.SignalCount)
	}
	if !res.ShouldExit {
		t.Error("two signals must trigger exit")
	}

	// последняя строка reasoning — итоговая сводка
	last := res.Reasoning[len(res.Reasoning)-1]
	if !strings.Contains(last, "momentum failure confirmed") {
		t.Errorf("expected summary line, got %q", last)
	}
}

func TestPyramidProfileThreshold(t *testing.T) {
	d := newTestDetector()

	// -0.4: выше короткого порога -0.5, но ниже длинного -0.3
	ind := neutral()
	ind.Momentum1h = -0.4

	t.Run("short profile does not fire", func(t *testing.T) {
		res := d.Detect(pos(3, 0), ind)
		if res.Signals.PriceActionFailure {
			t.Error("-0.4 must not breach short threshold -0.5")
		}
	})

	t.Run("long profile fires", func(t *testing.T) {
		res := d.Detect(pos(3, 1), ind)
		if !res.Signals.PriceActionFailure {
			t.Error("-0.4 must breach long threshold -0.3")
		}
		if res.SignalCount != 1 {
			t.Errorf("expected exactly 1 signal, got %d", res.SignalCount)
		}
	})

	t.Run("long profile volume threshold", func(t *testing.T) {
		// 0.85 проходит короткий порог 0.8, но ниже длинного 0.9
		i := neutral()
		i.VolumeRatio = 0.85

		if res := d.Detect(pos(3, 0), i); res.Signals.VolumeExhaustion {
			t.Error("0.85 must not breach short volume threshold 0.8")
		}
		if res := d.Detect(pos(3, 2), i); !res.Signals.VolumeExhaustion {
			t.Error("0.85 must breach long volume threshold 0.9")
		}
	})
}

func TestHTFBreakdownPaths(t *testing.T) {
	d := newTestDetector()

	t.Run("momentum path", func(t *testing.T) {
		ind := neutral()
		ind.Momentum4h = -0.6

		res := d.Detect(pos(3, 0), ind)
		if !res.Signals.HTFBreakdown {
			t.Error("momentum4h=-0.6 must fire HTF breakdown")
		}
		if !strings.Contains(strings.Join(res.Reasoning, "\n"), "HTF weakening") {
			t.Errorf("expected momentum reasoning, got %v", res.Reasoning)
		}
	})

	t.Run("momentum path ignores ema", func(t *testing.T) {
		ind := neutral()
		ind.Momentum4h = -0.6
		ind.EMA200 = 1 // цена заведомо выше EMA — не должно мешать

		res := d.Detect(pos(3, 0), ind)
		if !res.Signals.HTFBreakdown {
			t.Error("momentum path must fire regardless of ema200")
		}
	})

	t.Run("ema path", func(t *testing.T) {
		p := pos(3, 0)
		p.CurrentPrice = 100
		ind := neutral()
		ind.EMA200 = 110
		ind.RecentHigh = 100 // чтобы ratio был корректный, сигнал 1 всё равно молчит

		res := d.Detect(p, ind)
		if !res.Signals.HTFBreakdown {
			t.Error("price below ema200 must fire HTF breakdown")
		}
		if !strings.Contains(strings.Join(res.Reasoning, "\n"), "below EMA200") {
			t.Errorf("expected ema reasoning, got %v", res.Reasoning)
		}
	})

	t.Run("ema sentinel disables path", func(t *testing.T) {
		p := pos(3, 0)
		p.CurrentPrice = 100
		ind := neutral()
		ind.EMA200 = 0 // недоступна

		res := d.Detect(p, ind)
		if res.Signals.HTFBreakdown {
			t.Error("ema200=0 must disable the ema path")
		}
	})
}

func TestEmptyIndicatorsDefaults(t *testing.T) {
	d := newTestDetector()

	// пустой снимок: momentum -> 0, volumeRatio -> 1, ema200 -> выключена,
	// recentHigh -> currentPrice; ни один сигнал не срабатывает
	res := d.Detect(pos(5, 0), models.TechnicalIndicators{})

	if res.ShouldExit {
		t.Error("empty indicators must not trigger exit")
	}
	if res.SignalCount != 0 {
		t.Errorf("expected 0 signals, got %d: %v", res.SignalCount, res.Reasoning)
	}
}

func TestDeterminism(t *testing.T) {
	d := newTestDetector()

	p := pos(4, 1)
	ind := models.TechnicalIndicators{
		Momentum1h:  -0.35,
		Momentum4h:  -0.2,
		VolumeRatio: 0.87,
		EMA200:      95,
		RecentHigh:  105,
	}

	first := d.Detect(p, ind)
	second := d.Detect(p, ind)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different results:\n%+v\n%+v", first, second)
	}
}

func TestDisabledToggle(t *testing.T) {
	enabled := New(DefaultThresholds(), true, nil)
	disabled := New(DefaultThresholds(), false, nil)

	if !enabled.Enabled() {
		t.Error("expected Enabled()==true")
	}
	if disabled.Enabled() {
		t.Error("expected Enabled()==false")
	}
}
