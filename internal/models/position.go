package models

import "time"

type PositionStatus string

const (
	PositionOpen    PositionStatus = "OPEN"
	PositionClosing PositionStatus = "CLOSING"
	PositionClosed  PositionStatus = "CLOSED"
)

// OpenPosition — снимок открытой позиции на момент проверки.
// ProfitPct считает вызывающая сторона (mark-to-market по тому же фиду,
// что и индикаторы), детектор его не перепроверяет.
type OpenPosition struct {
	ID           int64
	Pair         string // instId, напр. "BTC-USDT-SWAP"
	EntryPrice   float64
	CurrentPrice float64
	ProfitPct    float64 // подписанный, в процентах
	// Сколько пирамид-доливок уже сработало: >=1 => "длинный" профиль порогов
	PyramidLevels int
	Size          float64
	Status        PositionStatus
	OpenedAt      time.Time
}
