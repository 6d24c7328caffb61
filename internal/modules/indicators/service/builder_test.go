package service

import (
	"math"
	"testing"
	"time"

	"exit_guard/internal/models"
	"exit_guard/internal/modules/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	// маленькие окна, чтобы не кормить сотни свечей
	cfg.Indicators.Momentum1hBars = 4
	cfg.Indicators.Momentum4hBars = 8
	cfg.Indicators.VolumeAvgBars = 3
	cfg.Indicators.RecentHighBars = 8
	cfg.Indicators.EMAPeriod = 5
	return cfg
}

func candle(pair string, i int, close, high, vol float64) models.CandleTick {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
	return models.CandleTick{
		InstID:       pair,
		Open:         close,
		High:         high,
		Low:          close,
		Close:        close,
		Volume:       vol,
		Start:        start,
		End:          start.Add(time.Minute),
		TimeframeRaw: "1m",
	}
}

func TestSnapshotMath(t *testing.T) {
	b := NewBuilder(testConfig())

	// close растёт 100 -> 108, объём постоянный, кроме последнего бара
	closes := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108}
	for i, c := range closes {
		vol := 10.0
		if i == len(closes)-1 {
			vol = 5.0
		}
		b.OnCandle(candle("BTC-USDT-SWAP", i, c, c+1, vol))
	}

	ind, ok := b.Snapshot("BTC-USDT-SWAP")
	if !ok {
		t.Fatal("expected snapshot for fed pair")
	}

	// momentum за 4 бара: 108/104 - 1
	wantM1 := (108.0/104.0 - 1) * 100
	if math.Abs(ind.Momentum1h-wantM1) > 1e-9 {
		t.Errorf("Momentum1h=%v want %v", ind.Momentum1h, wantM1)
	}

	// momentum за 8 баров: 108/100 - 1
	wantM4 := (108.0/100.0 - 1) * 100
	if math.Abs(ind.Momentum4h-wantM4) > 1e-9 {
		t.Errorf("Momentum4h=%v want %v", ind.Momentum4h, wantM4)
	}

	// последний объём 5 против среднего 10 за предыдущие 3 бара
	if math.Abs(ind.VolumeRatio-0.5) > 1e-9 {
		t.Errorf("VolumeRatio=%v want 0.5", ind.VolumeRatio)
	}

	if ind.RecentHigh != 109 {
		t.Errorf("RecentHigh=%v want 109", ind.RecentHigh)
	}

	if ind.EMA200 <= 0 {
		t.Error("EMA must be ready after warmup bars")
	}

	last, ok := b.LastPrice("BTC-USDT-SWAP")
	if !ok || last != 108 {
		t.Errorf("LastPrice=%v,%v want 108,true", last, ok)
	}
}

func TestWarmupGating(t *testing.T) {
	b := NewBuilder(testConfig())
	pair := "ETH-USDT-SWAP"

	if b.IsReady(pair) {
		t.Error("unknown pair must not be ready")
	}
	if _, ok := b.Snapshot(pair); ok {
		t.Error("unknown pair must not produce snapshot")
	}

	becameReady := false
	for i := 0; i < 10; i++ {
		if b.OnCandle(candle(pair, i, 100, 100, 10)) {
			if becameReady {
				t.Error("becameReady must fire exactly once")
			}
			becameReady = true
		}
	}
	if !becameReady {
		t.Fatal("pair never became ready")
	}
	if !b.IsReady(pair) {
		t.Error("pair must be ready after warmup")
	}

	// до прогрева momentum-поля нулевые (дефолт "нет данных")
	b2 := NewBuilder(testConfig())
	b2.OnCandle(candle(pair, 0, 100, 100, 10))
	ind, ok := b2.Snapshot(pair)
	if !ok {
		t.Fatal("expected snapshot after first candle")
	}
	if ind.Momentum1h != 0 || ind.Momentum4h != 0 || ind.VolumeRatio != 0 {
		t.Errorf("cold snapshot must default to zero fields, got %+v", ind)
	}
}

func TestStaleAndGarbageCandles(t *testing.T) {
	b := NewBuilder(testConfig())
	pair := "SOL-USDT-SWAP"

	b.OnCandle(candle(pair, 5, 100, 100, 10))

	// свеча из прошлого не двигает состояние
	b.OnCandle(candle(pair, 3, 50, 50, 10))
	if last, _ := b.LastPrice(pair); last != 100 {
		t.Errorf("stale candle applied: last=%v", last)
	}

	// мусор отбрасываем
	b.OnCandle(models.CandleTick{InstID: pair, Close: -1, High: 1})
	if last, _ := b.LastPrice(pair); last != 100 {
		t.Errorf("garbage candle applied: last=%v", last)
	}
}
