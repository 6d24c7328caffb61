package models

// TechnicalIndicators — снимок индикаторов по паре.
// Нулевые значения означают "нет данных", детектор подставляет безопасные
// дефолты: momentum -> 0, VolumeRatio <= 0 -> 1, EMA200 <= 0 -> недоступна,
// RecentHigh <= 0 -> CurrentPrice позиции.
type TechnicalIndicators struct {
	Momentum1h  float64 // проценты за окно 1h
	Momentum4h  float64 // проценты за окно 4h
	VolumeRatio float64 // текущий объём / скользящее среднее, 1.0 = средний
	EMA200      float64
	RecentHigh  float64
}
