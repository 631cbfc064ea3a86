package service

import (
	"math"

	"momentum_bot/internal/models"
)

// Имена факторов. Порядок фиксирован — он попадает в reasons сигнала.
const (
	FactorSqueezeExit   = "squeeze_exit"
	FactorMomentumAlign = "momentum_align"
	FactorTrendFast     = "trend_fast_align"
	FactorTrendSlow     = "trend_slow_align"
	FactorBreakStrength = "break_strength"
)

var factorOrder = []string{
	FactorSqueezeExit,
	FactorMomentumAlign,
	FactorTrendFast,
	FactorTrendSlow,
	FactorBreakStrength,
}

// FactorCount — всего независимых факторов подтверждения.
const FactorCount = 5

// ConfluenceScore — эфемерный результат одной оценки; пересчитывается
// каждый цикл, пока окно активно.
type ConfluenceScore struct {
	Factors map[string]bool
	Count   int
}

// TrueFactors отдаёт имена сработавших факторов в фиксированном порядке.
func (s ConfluenceScore) TrueFactors() []string {
	var out []string
	for _, name := range factorOrder {
		if s.Factors[name] {
			out = append(out, name)
		}
	}
	return out
}

// ConfluenceEvaluator оценивает пять независимых булевых факторов против
// направления пробоя. Ошибок нет: нехватка данных делает фактор false.
type ConfluenceEvaluator struct {
	tolerance float64 // минимальная сила пробоя, доля цены
}

func NewConfluenceEvaluator(tolerance float64) *ConfluenceEvaluator {
	return &ConfluenceEvaluator{tolerance: tolerance}
}

func (e *ConfluenceEvaluator) Evaluate(dir models.Direction, breakLevel float64, snap IndicatorSnapshot) ConfluenceScore {
	f := map[string]bool{
		FactorSqueezeExit:   !snap.Squeeze.InSqueeze,
		FactorMomentumAlign: false,
		FactorTrendFast:     false,
		FactorTrendSlow:     false,
		FactorBreakStrength: false,
	}

	switch dir {
	case models.DirLong:
		f[FactorMomentumAlign] = snap.Squeeze.Momentum > 0
		f[FactorTrendFast] = snap.TrendFast >= 0 // нейтральный тоже считается
		f[FactorTrendSlow] = snap.TrendSlow >= 0
	case models.DirShort:
		f[FactorMomentumAlign] = snap.Squeeze.Momentum < 0
		f[FactorTrendFast] = snap.TrendFast <= 0
		f[FactorTrendSlow] = snap.TrendSlow <= 0
	}

	if breakLevel > 0 && snap.LastClose > 0 {
		f[FactorBreakStrength] = math.Abs(snap.LastClose-breakLevel)/breakLevel >= e.tolerance
	}

	cnt := 0
	for _, ok := range f {
		if ok {
			cnt++
		}
	}
	return ConfluenceScore{Factors: f, Count: cnt}
}
