package service

import "momentum_bot/internal/models"

// BreakEvent — пробой уровня. Живёт внутри машины окна до срабатывания
// сигнала или истечения отсчёта.
type BreakEvent struct {
	Level     float64
	Direction models.Direction
}

// BreakDetector сравнивает цену с известными уровнями.
type BreakDetector struct {
	tolerance float64 // доля цены, 0.001 => 0.1%
}

func NewBreakDetector(tolerance float64) *BreakDetector {
	return &BreakDetector{tolerance: tolerance}
}

// Detect сканирует уровни в порядке списка (от старых к новым) и
// останавливается на первом пробитом. Сопротивления проверяются раньше
// поддержек — при одновременном пробое побеждает сопротивление, это
// наблюдаемый порядок, не случайность.
func (d *BreakDetector) Detect(price float64, resistances, supports []float64) (BreakEvent, bool) {
	for _, r := range resistances {
		if price > r*(1+d.tolerance) {
			return BreakEvent{Level: r, Direction: models.DirLong}, true
		}
	}
	for _, s := range supports {
		if price < s*(1-d.tolerance) {
			return BreakEvent{Level: s, Direction: models.DirShort}, true
		}
	}
	return BreakEvent{}, false
}
