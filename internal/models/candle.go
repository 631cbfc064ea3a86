package models

import "time"

// CandleTick — закрытая свеча одного таймфрейма.
// Брокерский шлюз отдаёт только валидные свечи: мусор (NaN, отрицательный
// объём) отбрасывается на границе, до ядра он не доходит.
type CandleTick struct {
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64

	// Seq — монотонный номер свечи в рамках одного потока.
	Seq int64

	Start        time.Time
	End          time.Time
	TimeframeRaw string
}
