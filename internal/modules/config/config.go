package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	OKX struct {
		APIKey     string `yaml:"api_key"`
		APISecret  string `yaml:"api_secret"`
		Passphrase string `yaml:"passphrase"`
	} `yaml:"okx"`

	// Какие пары ведём (instId OKX). Позиции по другим парам игнорируем —
	// по ним нет индикаторов.
	Watchlist []string `yaml:"watchlist"`

	HealthAddr   string        `yaml:"health_addr"`
	PollInterval time.Duration `yaml:"poll_interval"` // период обхода открытых позиций

	// Детектор слома импульса. Все momentum-пороги в процентных единицах,
	// сравниваются с momentum1h/4h напрямую, без до-масштабирования.
	Detector struct {
		Enabled       bool    `yaml:"enabled"`
		MinProfitPct  float64 `yaml:"min_profit_pct"`  // 2.0 => не трогаем позиции до +2%
		PeakProximity float64 `yaml:"peak_proximity"`  // 0.985 => цена в пределах 1.5% от хая
		// короткий профиль (без пирамид)
		Momentum1hShort  float64 `yaml:"momentum_1h_short"`  // -0.5
		VolumeRatioShort float64 `yaml:"volume_ratio_short"` // 0.8
		// длинный профиль (пирамиды >= 1)
		Momentum1hLong  float64 `yaml:"momentum_1h_long"`  // -0.3
		VolumeRatioLong float64 `yaml:"volume_ratio_long"` // 0.9

		Momentum4hWeak  float64 `yaml:"momentum_4h_weak"` // -0.5, не зависит от профиля
		RequiredSignals int     `yaml:"required_signals"` // 2
	} `yaml:"detector"`

	// Окна индикаторов в 1m свечах
	Indicators struct {
		Momentum1hBars int `yaml:"momentum_1h_bars"` // 60
		Momentum4hBars int `yaml:"momentum_4h_bars"` // 240
		VolumeAvgBars  int `yaml:"volume_avg_bars"`  // 20
		RecentHighBars int `yaml:"recent_high_bars"` // 240
		EMAPeriod      int `yaml:"ema_period"`       // 200
	} `yaml:"indicators"`
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		HealthAddr:   getenvDefault("HEALTH_ADDR", ":8080"),
		PollInterval: durationFromEnv("POLL_INTERVAL", "30s"),
	}
	config.Detector.Enabled = boolFromEnv("DETECTOR_ENABLED", true)
	config.Detector.MinProfitPct = floatFromEnv("DETECTOR_MIN_PROFIT_PCT", 2.0)
	config.Detector.PeakProximity = floatFromEnv("DETECTOR_PEAK_PROXIMITY", 0.985)
	config.Detector.Momentum1hShort = floatFromEnv("DETECTOR_MOM1H_SHORT", -0.5)
	config.Detector.VolumeRatioShort = floatFromEnv("DETECTOR_VOL_SHORT", 0.8)
	config.Detector.Momentum1hLong = floatFromEnv("DETECTOR_MOM1H_LONG", -0.3)
	config.Detector.VolumeRatioLong = floatFromEnv("DETECTOR_VOL_LONG", 0.9)
	config.Detector.Momentum4hWeak = floatFromEnv("DETECTOR_MOM4H_WEAK", -0.5)
	config.Detector.RequiredSignals = intFromEnv("DETECTOR_REQUIRED_SIGNALS", 2)

	config.Indicators.Momentum1hBars = intFromEnv("IND_MOM1H_BARS", 60)
	config.Indicators.Momentum4hBars = intFromEnv("IND_MOM4H_BARS", 240)
	config.Indicators.VolumeAvgBars = intFromEnv("IND_VOL_AVG_BARS", 20)
	config.Indicators.RecentHighBars = intFromEnv("IND_RECENT_HIGH_BARS", 240)
	config.Indicators.EMAPeriod = intFromEnv("IND_EMA_PERIOD", 200)

	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if wl := os.Getenv("WATCHLIST"); wl != "" {
		config.Watchlist = strings.Split(wl, ",")
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
