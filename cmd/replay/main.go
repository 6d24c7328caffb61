// replay прогоняет детектор слома импульса по сценариям из yaml-файла:
// удобно крутить пороги на исторических снимках без биржи и БД.
//
//	REPLAY_FILE=scenarios go run ./cmd/replay
package main

import (
	"fmt"
	"os"

	"exit_guard/internal/models"
	detsvc "exit_guard/internal/modules/detector/service"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

type scenario struct {
	Name     string `mapstructure:"name"`
	Position struct {
		Pair          string  `mapstructure:"pair"`
		EntryPrice    float64 `mapstructure:"entry_price"`
		CurrentPrice  float64 `mapstructure:"current_price"`
		ProfitPct     float64 `mapstructure:"profit_pct"`
		PyramidLevels int     `mapstructure:"pyramid_levels"`
	} `mapstructure:"position"`
	Indicators struct {
		Momentum1h  float64 `mapstructure:"momentum_1h"`
		Momentum4h  float64 `mapstructure:"momentum_4h"`
		VolumeRatio float64 `mapstructure:"volume_ratio"`
		EMA200      float64 `mapstructure:"ema_200"`
		RecentHigh  float64 `mapstructure:"recent_high"`
	} `mapstructure:"indicators"`
}

type report struct {
	Name        string   `yaml:"name"`
	ShouldExit  bool     `yaml:"should_exit"`
	SignalCount int      `yaml:"signal_count"`
	Reasoning   []string `yaml:"reasoning,omitempty"`
}

func loadScenarios() ([]scenario, error) {
	name := os.Getenv("REPLAY_FILE")
	if name == "" {
		name = "replay"
	}
	viper.SetConfigName(name)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("configs")
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read replay config")
	}

	var scenarios []scenario
	if err := viper.UnmarshalKey("scenarios", &scenarios); err != nil {
		return nil, errors.Wrap(err, "unmarshal scenarios")
	}
	if len(scenarios) == 0 {
		return nil, errors.New("has no scenarios in config")
	}
	return scenarios, nil
}

// пороги можно переопределить в том же файле, секция thresholds
func loadThresholds() detsvc.Thresholds {
	thr := detsvc.DefaultThresholds()
	if !viper.IsSet("thresholds") {
		return thr
	}
	_ = viper.UnmarshalKey("thresholds", &thr)
	return thr
}

func main() {
	scenarios, err := loadScenarios()
	if err != nil {
		panic(fmt.Errorf("load scenarios: %w", err))
	}

	det := detsvc.New(loadThresholds(), true, nil)

	reports := make([]report, 0, len(scenarios))
	for _, sc := range scenarios {
		pos := models.OpenPosition{
			Pair:          sc.Position.Pair,
			EntryPrice:    sc.Position.EntryPrice,
			CurrentPrice:  sc.Position.CurrentPrice,
			ProfitPct:     sc.Position.ProfitPct,
			PyramidLevels: sc.Position.PyramidLevels,
		}
		ind := models.TechnicalIndicators{
			Momentum1h:  sc.Indicators.Momentum1h,
			Momentum4h:  sc.Indicators.Momentum4h,
			VolumeRatio: sc.Indicators.VolumeRatio,
			EMA200:      sc.Indicators.EMA200,
			RecentHigh:  sc.Indicators.RecentHigh,
		}

		res := det.Detect(pos, ind)
		reports = append(reports, report{
			Name:        sc.Name,
			ShouldExit:  res.ShouldExit,
			SignalCount: res.SignalCount,
			Reasoning:   res.Reasoning,
		})
	}

	bs, err := yaml.Marshal(reports)
	if err != nil {
		panic(errors.Wrap(err, "marshal report to yaml"))
	}
	fmt.Print(string(bs))
	fmt.Printf("done: %d scenarios\n", len(reports))
}
