package models

import "time"

// FailureSignals — три независимых признака слома импульса.
type FailureSignals struct {
	PriceActionFailure bool `json:"priceActionFailure"`
	VolumeExhaustion   bool `json:"volumeExhaustion"`
	HTFBreakdown       bool `json:"htfBreakdown"`
}

// MomentumFailureResult — результат одной проверки. Строится заново на
// каждый вызов, нигде не кэшируется.
type MomentumFailureResult struct {
	ShouldExit  bool           `json:"shouldExit"`
	Signals     FailureSignals `json:"signals"`
	SignalCount int            `json:"signalCount"`
	Reasoning   []string       `json:"reasoning"`
}

// ExitDecision — то, что пишем в БД при положительном решении.
type ExitDecision struct {
	PositionID  int64
	Pair        string
	ProfitPct   float64
	SignalCount int
	Reasoning   []string
	DecidedAt   time.Time
}
