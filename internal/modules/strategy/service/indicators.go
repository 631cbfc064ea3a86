package service

import (
	"math"

	"momentum_bot/internal/modules/config"
)

// momentumLookback — окно нормализации моментума, фиксированные 20 баров.
const momentumLookback = 20

// SqueezeState — сжатие волатильности: Bollinger целиком внутри Keltner.
type SqueezeState struct {
	InSqueeze bool
	Momentum  float64
	BBUpper   float64
	BBLower   float64
	KCUpper   float64
	KCLower   float64
}

// IndicatorSnapshot — значения индикаторов на момент закрытия одной свечи.
// Считается заново каждый цикл и после оценки выбрасывается.
// Нули и пустые списки — сентинели "данных пока мало", не ошибки.
type IndicatorSnapshot struct {
	TrendFast int // +1 бычий / -1 медвежий / 0 нейтральный
	TrendSlow int

	Squeeze SqueezeState

	// Уровни от старых к новым, максимум по пять каждого вида.
	Supports    []float64
	Resistances []float64

	LastClose float64
	SMASlow   float64
}

// IndicatorEngine — чистая функция Series -> IndicatorSnapshot.
// На коротких историях никогда не падает: деградирует до нейтральных значений.
type IndicatorEngine struct {
	cfg config.StrategyConfig
}

func NewIndicatorEngine(cfg config.StrategyConfig) *IndicatorEngine {
	return &IndicatorEngine{cfg: cfg}
}

func (e *IndicatorEngine) Compute(s *Series) IndicatorSnapshot {
	highs, lows, closes := s.Highs(), s.Lows(), s.Closes()

	supports, resistances := PivotLevels(highs, lows, e.cfg.PivotLeft, e.cfg.PivotRight)

	return IndicatorSnapshot{
		TrendFast:   TrendFlow(closes, e.cfg.TrendFast),
		TrendSlow:   TrendFlow(closes, e.cfg.TrendSlow),
		Squeeze:     e.squeezeMomentum(highs, lows, closes),
		Supports:    supports,
		Resistances: resistances,
		LastClose:   s.LastClose(),
		SMASlow:     SMA(closes, e.cfg.SMASlow),
	}
}

// SMA — среднее последних period закрытий, 0 если данных меньше периода.
func SMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}
	var sum float64
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period)
}

// EMA сидируется самым старым закрытием и идёт вперёд по всей истории
// с множителем 2/(period+1). При нехватке данных вырождается в последнее
// закрытие.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if len(prices) < period {
		return prices[len(prices)-1]
	}

	mult := 2.0 / float64(period+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*mult + ema*(1-mult)
	}
	return ema
}

// ATR — среднее последних period истинных диапазонов; если диапазонов
// меньше периода — среднее всех. Меньше двух баров — 0.
func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) < 2 || len(lows) < 2 || len(closes) < 2 {
		return 0
	}

	trs := make([]float64, 0, len(highs)-1)
	for i := 1; i < len(highs); i++ {
		tr := highs[i] - lows[i]
		if v := math.Abs(highs[i] - closes[i-1]); v > tr {
			tr = v
		}
		if v := math.Abs(lows[i] - closes[i-1]); v > tr {
			tr = v
		}
		trs = append(trs, tr)
	}

	if len(trs) < period {
		var sum float64
		for _, tr := range trs {
			sum += tr
		}
		return sum / float64(len(trs))
	}

	var sum float64
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	return sum / float64(period)
}

// Bollinger — middle = SMA, ширина = mult * популяционное стандартное
// отклонение (делим на period, не на period-1).
func Bollinger(prices []float64, period int, mult float64) (upper, middle, lower float64) {
	if len(prices) < period {
		return 0, 0, 0
	}

	sma := SMA(prices, period)
	var variance float64
	for _, p := range prices[len(prices)-period:] {
		d := p - sma
		variance += d * d
	}
	variance /= float64(period)
	std := math.Sqrt(variance)

	return sma + std*mult, sma, sma - std*mult
}

// Keltner — middle = EMA закрытий, ширина = mult * ATR.
func Keltner(highs, lows, closes []float64, period int, mult float64) (upper, middle, lower float64) {
	if len(closes) < period {
		return 0, 0, 0
	}

	middle = EMA(closes, period)
	width := ATR(highs, lows, closes, period) * mult
	return middle + width, middle, middle - width
}

func (e *IndicatorEngine) squeezeMomentum(highs, lows, closes []float64) SqueezeState {
	bbU, _, bbL := Bollinger(closes, e.cfg.BBLength, e.cfg.BBMult)
	kcU, _, kcL := Keltner(highs, lows, closes, e.cfg.KCLength, e.cfg.KCMult)

	st := SqueezeState{
		InSqueeze: bbU < kcU && bbL > kcL,
		BBUpper:   bbU,
		BBLower:   bbL,
		KCUpper:   kcU,
		KCLower:   kcL,
	}

	if len(closes) >= momentumLookback {
		highest := maxSlice(highs[len(highs)-momentumLookback:])
		lowest := minSlice(lows[len(lows)-momentumLookback:])
		closep := closes[len(closes)-1]

		if highest != lowest {
			mid := (highest + lowest) / 2
			st.Momentum = ((closep - mid) + (closep - SMA(closes, momentumLookback))) / 2
		}
	}

	return st
}

// TrendFlow — адаптивный трендовый сигнал: сравниваем закрытие с EMA(smooth),
// смещённой на порог чувствительности. Требует max(main, smooth) баров, иначе 0.
func TrendFlow(closes []float64, cfg config.TrendFlowConfig) int {
	need := cfg.Main
	if cfg.Smooth > need {
		need = cfg.Smooth
	}
	if need <= 0 || len(closes) < need {
		return 0
	}

	smoothed := EMA(closes, cfg.Smooth)
	price := closes[len(closes)-1]

	switch {
	case price > smoothed+cfg.Sens:
		return 1
	case price < smoothed-cfg.Sens:
		return -1
	default:
		return 0
	}
}

// PivotLevels ищет пивоты в стиле LuxAlgo: lows[i] — поддержка, только если
// строго ниже всех low в left баров слева и right баров справа; равенство
// пивотом не считается. Симметрично для сопротивлений по high.
// Храним только пять самых свежих уровней каждого вида.
func PivotLevels(highs, lows []float64, left, right int) (supports, resistances []float64) {
	if left <= 0 || right <= 0 || len(lows) < left+right+1 {
		return nil, nil
	}

	for i := left; i < len(lows)-right; i++ {
		if isPivotLow(lows, i, left, right) {
			supports = append(supports, lows[i])
		}
		if isPivotHigh(highs, i, left, right) {
			resistances = append(resistances, highs[i])
		}
	}

	if len(supports) > 5 {
		supports = supports[len(supports)-5:]
	}
	if len(resistances) > 5 {
		resistances = resistances[len(resistances)-5:]
	}
	return supports, resistances
}

func isPivotLow(lows []float64, i, left, right int) bool {
	cur := lows[i]
	for j := i - left; j < i; j++ {
		if lows[j] <= cur {
			return false
		}
	}
	for j := i + 1; j <= i+right; j++ {
		if lows[j] <= cur {
			return false
		}
	}
	return true
}

func isPivotHigh(highs []float64, i, left, right int) bool {
	cur := highs[i]
	for j := i - left; j < i; j++ {
		if highs[j] >= cur {
			return false
		}
	}
	for j := i + 1; j <= i+right; j++ {
		if highs[j] >= cur {
			return false
		}
	}
	return true
}

func maxSlice(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, v := range xs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minSlice(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, v := range xs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
