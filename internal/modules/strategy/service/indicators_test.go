package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum_bot/internal/modules/config"
)

func constSlice(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSMA(t *testing.T) {
	t.Run("short history is sentinel zero", func(t *testing.T) {
		assert.Zero(t, SMA([]float64{1, 2}, 3))
		assert.Zero(t, SMA(nil, 1))
	})

	t.Run("averages the tail", func(t *testing.T) {
		assert.InDelta(t, 4.0, SMA([]float64{1, 2, 3, 5}, 2), 1e-9)
	})
}

func TestEMA(t *testing.T) {
	t.Run("empty is zero", func(t *testing.T) {
		assert.Zero(t, EMA(nil, 5))
	})

	t.Run("short history degrades to last close", func(t *testing.T) {
		assert.Equal(t, 7.0, EMA([]float64{3, 7}, 5))
	})

	t.Run("period one tracks the last price", func(t *testing.T) {
		// множитель 2/(1+1)=1: каждый шаг полностью замещает аккумулятор
		assert.InDelta(t, 42.0, EMA([]float64{10, 99, 42}, 1), 1e-9)
	})

	t.Run("constant series stays constant", func(t *testing.T) {
		assert.InDelta(t, 100.0, EMA(constSlice(100, 50), 14), 1e-9)
	})

	t.Run("walks the whole history, not just the tail", func(t *testing.T) {
		// хвосты одинаковые, но разный сид даёт разный результат
		a := EMA([]float64{50, 100, 110}, 3)
		b := EMA([]float64{100, 100, 110}, 3)
		assert.InDelta(t, 92.5, a, 1e-9)
		assert.InDelta(t, 105.0, b, 1e-9)
	})
}

func TestATR(t *testing.T) {
	t.Run("fewer than two bars is zero", func(t *testing.T) {
		assert.Zero(t, ATR([]float64{10}, []float64{9}, []float64{9.5}, 14))
	})

	t.Run("plain high low range", func(t *testing.T) {
		highs := []float64{101, 101, 101}
		lows := []float64{99, 99, 99}
		closes := []float64{100, 100, 100}
		assert.InDelta(t, 2.0, ATR(highs, lows, closes, 2), 1e-9)
	})

	t.Run("gap widens the true range", func(t *testing.T) {
		// разрыв вверх: |high - prevClose| больше чем high-low
		highs := []float64{100, 110}
		lows := []float64{99, 109}
		closes := []float64{100, 109.5}
		assert.InDelta(t, 10.0, ATR(highs, lows, closes, 1), 1e-9)
	})

	t.Run("fewer ranges than period averages them all", func(t *testing.T) {
		highs := []float64{101, 102, 103}
		lows := []float64{100, 100, 100}
		closes := []float64{100.5, 101, 102}
		// два TR: 2 и 3, периода 14 не набирается
		assert.InDelta(t, 2.5, ATR(highs, lows, closes, 14), 1e-9)
	})
}

func TestBollinger(t *testing.T) {
	t.Run("short history is sentinel zeros", func(t *testing.T) {
		u, m, l := Bollinger(constSlice(100, 5), 20, 2.0)
		assert.Zero(t, u)
		assert.Zero(t, m)
		assert.Zero(t, l)
	})

	t.Run("constant series collapses the bands", func(t *testing.T) {
		u, m, l := Bollinger(constSlice(100, 25), 20, 2.0)
		assert.Equal(t, 100.0, u)
		assert.Equal(t, 100.0, m)
		assert.Equal(t, 100.0, l)
	})

	t.Run("population deviation", func(t *testing.T) {
		// значения 98 и 102 поровну: среднее 100, дисперсия ровно 4
		prices := []float64{98, 102, 98, 102}
		u, m, l := Bollinger(prices, 4, 2.0)
		assert.InDelta(t, 100.0, m, 1e-9)
		assert.InDelta(t, 104.0, u, 1e-9)
		assert.InDelta(t, 96.0, l, 1e-9)
	})
}

func TestKeltner(t *testing.T) {
	t.Run("short history is sentinel zeros", func(t *testing.T) {
		u, m, l := Keltner(constSlice(101, 3), constSlice(99, 3), constSlice(100, 3), 20, 1.5)
		assert.Zero(t, u)
		assert.Zero(t, m)
		assert.Zero(t, l)
	})

	t.Run("ema center atr width", func(t *testing.T) {
		highs := constSlice(101, 25)
		lows := constSlice(99, 25)
		closes := constSlice(100, 25)
		u, m, l := Keltner(highs, lows, closes, 20, 1.5)
		assert.InDelta(t, 100.0, m, 1e-9)
		assert.InDelta(t, 103.0, u, 1e-9) // ATR=2, mult=1.5
		assert.InDelta(t, 97.0, l, 1e-9)
	})
}

func testStrategyConfig() config.StrategyConfig {
	return config.StrategyConfig{
		Symbol:    "NQ",
		PrimaryTF: "1m",
		SlowTF:    "15m",
		MaxBars:   200,
		MinBars:   50,
		TrendFast: config.TrendFlowConfig{Main: 6, Smooth: 14, Sens: 2.0},
		TrendSlow: config.TrendFlowConfig{Main: 10, Smooth: 14, Sens: 2.0},

		PivotLeft:  10,
		PivotRight: 5,

		BBLength: 20,
		BBMult:   2.0,
		KCLength: 20,
		KCMult:   1.5,

		SMASlow:        200,
		BreakTolerance: 0.001,
		MomentumWindow: 6,
		ConfluenceMin:  4,
	}
}

func TestSqueezeMomentum(t *testing.T) {
	eng := NewIndicatorEngine(testStrategyConfig())

	t.Run("quiet closes inside wide range squeeze on", func(t *testing.T) {
		// закрытия стоят на месте (BB схлопнут), high/low гуляют (KC широкий)
		s := NewSeries(200)
		for i := 0; i < 30; i++ {
			s.Append(101, 99, 100, 1)
		}
		st := eng.squeezeMomentum(s.Highs(), s.Lows(), s.Closes())
		assert.True(t, st.InSqueeze)
		assert.Zero(t, st.Momentum) // highest=101, lowest=99, но close в центре и SMA=close
	})

	t.Run("trending closes squeeze off", func(t *testing.T) {
		// устойчивый тренд: разброс закрытий большой (BB широкий),
		// бар к бару ход маленький (ATR и KC узкие)
		s := NewSeries(200)
		for i := 0; i < 30; i++ {
			c := 100 + float64(i)
			s.Append(c+0.1, c-0.1, c, 1)
		}
		st := eng.squeezeMomentum(s.Highs(), s.Lows(), s.Closes())
		assert.False(t, st.InSqueeze)
	})

	t.Run("flat range momentum zero", func(t *testing.T) {
		s := NewSeries(200)
		for i := 0; i < 30; i++ {
			s.Append(100, 100, 100, 1)
		}
		st := eng.squeezeMomentum(s.Highs(), s.Lows(), s.Closes())
		assert.Zero(t, st.Momentum) // highest == lowest
	})

	t.Run("rising closes momentum positive", func(t *testing.T) {
		s := NewSeries(200)
		for i := 0; i < 30; i++ {
			c := 100 + float64(i)
			s.Append(c+0.5, c-0.5, c, 1)
		}
		st := eng.squeezeMomentum(s.Highs(), s.Lows(), s.Closes())
		assert.Greater(t, st.Momentum, 0.0)
	})

	t.Run("under twenty bars momentum zero", func(t *testing.T) {
		s := NewSeries(200)
		for i := 0; i < 10; i++ {
			c := 100 + float64(i)
			s.Append(c+1, c-1, c, 1)
		}
		st := eng.squeezeMomentum(s.Highs(), s.Lows(), s.Closes())
		assert.Zero(t, st.Momentum)
	})
}

func TestTrendFlow(t *testing.T) {
	cfg := config.TrendFlowConfig{Main: 6, Smooth: 14, Sens: 2.0}

	t.Run("short history is neutral", func(t *testing.T) {
		assert.Zero(t, TrendFlow(constSlice(100, 13), cfg))
	})

	t.Run("flat series is neutral", func(t *testing.T) {
		assert.Zero(t, TrendFlow(constSlice(100, 30), cfg))
	})

	t.Run("breakaway above the band is bullish", func(t *testing.T) {
		closes := append(constSlice(100, 30), 105)
		assert.Equal(t, 1, TrendFlow(closes, cfg))
	})

	t.Run("breakdown below the band is bearish", func(t *testing.T) {
		closes := append(constSlice(100, 30), 95)
		assert.Equal(t, -1, TrendFlow(closes, cfg))
	})

	t.Run("inside the sensitivity band is neutral", func(t *testing.T) {
		closes := append(constSlice(100, 30), 101)
		// EMA подтянется чуть выше 100, порог 2.0 не пробит
		assert.Zero(t, TrendFlow(closes, cfg))
	})
}

func TestPivotLevels(t *testing.T) {
	t.Run("needs left plus right plus one bars", func(t *testing.T) {
		sup, res := PivotLevels(constSlice(100, 3), constSlice(99, 3), 2, 2)
		assert.Nil(t, sup)
		assert.Nil(t, res)
	})

	t.Run("flat series has no pivots", func(t *testing.T) {
		sup, res := PivotLevels(constSlice(100, 40), constSlice(99, 40), 10, 5)
		assert.Empty(t, sup)
		assert.Empty(t, res)
	})

	t.Run("single spike makes a resistance", func(t *testing.T) {
		highs := constSlice(100, 21)
		highs[10] = 105 // строго выше десяти слева и пяти справа
		lows := constSlice(99, 21)
		sup, res := PivotLevels(highs, lows, 10, 5)
		require.Len(t, res, 1)
		assert.Equal(t, 105.0, res[0])
		assert.Empty(t, sup)
	})

	t.Run("single dip makes a support", func(t *testing.T) {
		highs := constSlice(100, 21)
		lows := constSlice(99, 21)
		lows[10] = 95
		sup, res := PivotLevels(highs, lows, 10, 5)
		require.Len(t, sup, 1)
		assert.Equal(t, 95.0, sup[0])
		assert.Empty(t, res)
	})

	t.Run("equal neighbour kills the pivot", func(t *testing.T) {
		highs := constSlice(100, 21)
		highs[10] = 105
		highs[12] = 105 // дубликат в правом окне — ни один не доминирует строго
		lows := constSlice(99, 21)
		_, res := PivotLevels(highs, lows, 10, 5)
		assert.Empty(t, res)
	})

	t.Run("keeps only the five most recent", func(t *testing.T) {
		// зигзаг с узкими окнами даёт много пивотов подряд
		n := 40
		highs := make([]float64, n)
		lows := make([]float64, n)
		for i := 0; i < n; i++ {
			highs[i] = 100
			lows[i] = 90
			if i%3 == 1 {
				highs[i] = 101 + float64(i)*0.01 // каждый пик уникален
				lows[i] = 89 - float64(i)*0.01
			}
		}
		sup, res := PivotLevels(highs, lows, 1, 1)
		assert.Len(t, res, 5)
		assert.Len(t, sup, 5)
		// остаются именно самые свежие
		assert.InDelta(t, 101+0.37, res[4], 1e-9)
	})
}
