package models

import "time"

// CandleTick — закрытая свеча из WS-стрима.
type CandleTick struct {
	InstID       string
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	QuoteVolume  float64
	Start        time.Time
	End          time.Time
	TimeframeRaw string
}
