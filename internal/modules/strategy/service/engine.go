package service

import (
	"fmt"
	"log"
	"sync"
	"time"

	"momentum_bot/internal/models"
	"momentum_bot/internal/modules/config"
)

// WindowState — явное состояние машины окна. break-поля осмысленны
// только в StateArmed.
type WindowState int

const (
	StateIdle WindowState = iota
	StateArmed
)

// Result — выход одного цикла. Exit ортогонален входной машине и может
// сработать в том же цикле, что и Entry; что исполнять — решает потребитель.
type Result struct {
	Entry models.Signal
	Exit  *models.Signal
}

const exitStrength = 0.8

// Engine — движок стратегии: два независимых буфера таймфреймов,
// индикаторы, детектор пробоев и машина momentum-окна.
//
// Оценка строго последовательна: одна свеча на входе — один Result на
// выходе, мьютекс не даёт войти в цикл конкурентно.
type Engine struct {
	cfg config.StrategyConfig

	ind        *IndicatorEngine
	breaks     *BreakDetector
	confluence *ConfluenceEvaluator

	mu      sync.Mutex
	primary *Series
	slow    *Series

	state           WindowState
	windowRemaining int
	breakLevel      float64
	breakDir        models.Direction

	lastSignalKind string
}

func NewEngine(cfg *config.Config) *Engine {
	sc := cfg.Strategy
	return &Engine{
		cfg:            sc,
		ind:            NewIndicatorEngine(sc),
		breaks:         NewBreakDetector(sc.BreakTolerance),
		confluence:     NewConfluenceEvaluator(sc.BreakTolerance),
		primary:        NewSeries(sc.MaxBars),
		slow:           NewSeries(sc.MaxBars),
		state:          StateIdle,
		lastSignalKind: "NONE",
	}
}

// OnCandle принимает закрытую свечу любого из двух таймфреймов.
// Медленный таймфрейм только пополняет свой буфер; полный цикл оценки
// идёт по основному. Паника внутри цикла не валит процесс:
// она ловится здесь и превращается в NO_SIGNAL с причиной.
func (e *Engine) OnCandle(t models.CandleTick, position int) (res Result) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ENGINE] evaluation fault on %s %s: %v", t.Symbol, t.TimeframeRaw, r)
			res = Result{Entry: e.noSignal(t, fmt.Sprintf("evaluation fault: %v", r))}
		}
	}()

	switch normTF(t.TimeframeRaw) {
	case normTF(e.cfg.SlowTF):
		e.slow.Append(t.High, t.Low, t.Close, t.Volume)
		return Result{Entry: e.noSignal(t, "slow timeframe candle buffered")}

	case normTF(e.cfg.PrimaryTF):
		e.primary.Append(t.High, t.Low, t.Close, t.Volume)
		return e.evaluate(t, position)

	default:
		return Result{Entry: e.noSignal(t, "unknown timeframe "+t.TimeframeRaw)}
	}
}

func (e *Engine) evaluate(t models.CandleTick, position int) Result {
	price := t.Close

	if e.primary.Len() < e.cfg.MinBars {
		return Result{Entry: e.noSignal(t, "insufficient data")}
	}

	snap := e.ind.Compute(e.primary)

	// Медленный фильтр считаем по собственному буферу 15m, когда тот
	// прогрет; до тех пор зеркалим быстрое значение, чтобы интерфейс
	// двух независимых факторов сохранялся.
	if e.slowWarm() {
		snap.TrendSlow = TrendFlow(e.slow.Closes(), e.cfg.TrendSlow)
	} else {
		snap.TrendSlow = snap.TrendFast
	}

	// Выход проверяется каждый цикл, независимо от состояния окна.
	exit := e.checkExit(t, position, snap.TrendFast)

	entry := e.step(t, price, snap)

	if entry.Kind != models.SignalNone {
		e.lastSignalKind = string(entry.Kind)
	}
	if exit != nil {
		e.lastSignalKind = string(models.SignalExit)
	}

	return Result{Entry: entry, Exit: exit}
}

// step — переходы машины окна, ровно один на входящую свечу.
func (e *Engine) step(t models.CandleTick, price float64, snap IndicatorSnapshot) models.Signal {
	switch e.state {
	case StateArmed:
		score := e.confluence.Evaluate(e.breakDir, e.breakLevel, snap)

		if score.Count >= e.cfg.ConfluenceMin {
			sig := models.Signal{
				Symbol:    t.Symbol,
				TF:        e.cfg.PrimaryTF,
				Kind:      e.breakDir.Kind(),
				Strength:  float64(score.Count) / FactorCount,
				Price:     price,
				Reasons:   score.TrueFactors(),
				CreatedAt: time.Now(),
			}
			e.reset()
			return sig
		}

		e.windowRemaining--
		if e.windowRemaining <= 0 {
			// тихое истечение: окно сгорело, сигнала нет
			e.reset()
			return e.noSignal(t, "momentum window expired")
		}
		return e.noSignal(t, fmt.Sprintf("confluence %d/%d, %d candles left",
			score.Count, FactorCount, e.windowRemaining))

	default: // StateIdle
		if ev, ok := e.breaks.Detect(price, snap.Resistances, snap.Supports); ok {
			e.state = StateArmed
			e.breakLevel = ev.Level
			e.breakDir = ev.Direction
			e.windowRemaining = e.cfg.MomentumWindow
			// в цикле взведения сигнал не отдаём
			return e.noSignal(t, fmt.Sprintf("momentum window armed: %s break of %.2f",
				ev.Direction, ev.Level))
		}
		return e.noSignal(t, "waiting for setup")
	}
}

// checkExit — разворот быстрого трендового потока против открытой позиции.
func (e *Engine) checkExit(t models.CandleTick, position, trendFast int) *models.Signal {
	var reason string
	switch {
	case position > 0 && trendFast < 0:
		reason = "trend flow flipped bearish"
	case position < 0 && trendFast > 0:
		reason = "trend flow flipped bullish"
	default:
		return nil
	}

	return &models.Signal{
		Symbol:    t.Symbol,
		TF:        e.cfg.PrimaryTF,
		Kind:      models.SignalExit,
		Strength:  exitStrength,
		Price:     t.Close,
		Reasons:   []string{reason},
		CreatedAt: time.Now(),
	}
}

func (e *Engine) reset() {
	e.state = StateIdle
	e.windowRemaining = 0
	e.breakLevel = 0
	e.breakDir = models.DirNone
}

func (e *Engine) slowWarm() bool {
	need := e.cfg.TrendSlow.Main
	if e.cfg.TrendSlow.Smooth > need {
		need = e.cfg.TrendSlow.Smooth
	}
	return e.slow.Len() >= need
}

func (e *Engine) noSignal(t models.CandleTick, reason string) models.Signal {
	return models.Signal{
		Symbol:    t.Symbol,
		TF:        e.cfg.PrimaryTF,
		Kind:      models.SignalNone,
		Price:     t.Close,
		Reasons:   []string{reason},
		CreatedAt: time.Now(),
	}
}

// Warm — набрал ли основной буфер минимум для оценки.
func (e *Engine) Warm() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.primary.Len() >= e.cfg.MinBars
}

// Started — видел ли движок хоть одну свечу.
func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.primary.Len() > 0 || e.slow.Len() > 0
}

// Status — read-only снимок для дашборда.
func (e *Engine) Status() models.EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	return models.EngineStatus{
		WindowActive:    e.state == StateArmed,
		WindowRemaining: e.windowRemaining,
		BreakLevel:      e.breakLevel,
		BreakDirection:  e.breakDir.String(),
		BufferedBars: map[string]int{
			e.cfg.PrimaryTF: e.primary.Len(),
			e.cfg.SlowTF:    e.slow.Len(),
		},
		LastSignalKind: e.lastSignalKind,
	}
}

func normTF(raw string) string {
	switch raw {
	case "60m", "60M", "1H", "1h":
		return "1h"
	case "15m", "15M":
		return "15m"
	case "5m", "5M":
		return "5m"
	case "1m", "1M":
		return "1m"
	default:
		return raw
	}
}
