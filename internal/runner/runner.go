package runner

import (
	"context"
	"log"
	"time"

	"github.com/opentracing/opentracing-go"

	"momentum_bot/internal/models"
	bootstrapsvc "momentum_bot/internal/modules/bootstrap/service"
	brokersvc "momentum_bot/internal/modules/broker/service"
	"momentum_bot/internal/modules/config"
	dashboardsvc "momentum_bot/internal/modules/dashboard/service"
	strategysvc "momentum_bot/internal/modules/strategy/service"
	"momentum_bot/internal/notify"
)

// Runner — ведущий цикл: свечи двух таймфреймов с брокера, позиция по REST,
// один вызов движка на свечу. Никакого троттлинга сверх прихода свечей:
// медленный цикл просто задержит следующую оценку.
type Runner struct {
	cfg    *config.Config
	broker *brokersvc.Client
	engine *strategysvc.Engine
	warmup *bootstrapsvc.Warmuper
	state  *dashboardsvc.State
	n      notify.Notifier
	out    chan<- models.Signal

	// последнее известное значение позиции; обновляется только из цикла
	position int
}

func New(
	cfg *config.Config,
	broker *brokersvc.Client,
	engine *strategysvc.Engine,
	warmup *bootstrapsvc.Warmuper,
	state *dashboardsvc.State,
	n notify.Notifier,
	out chan<- models.Signal,
) *Runner {
	return &Runner{
		cfg:    cfg,
		broker: broker,
		engine: engine,
		warmup: warmup,
		state:  state,
		n:      n,
		out:    out,
	}
}

func (r *Runner) Run(ctx context.Context) {
	if err := r.warmup.Warmup(ctx); err != nil {
		// без истории тоже можно: буферы наберутся из живого потока
		log.Printf("[RUNNER] warmup error: %v", err)
		r.n.Sendf("⚠️ warmup failed, filling buffers from live stream: %v", err)
	}

	primary := r.broker.StreamCandles(ctx, r.cfg.Strategy.PrimaryTF)
	slow := r.broker.StreamCandles(ctx, r.cfg.Strategy.SlowTF)
	r.state.SetWSConnected(true)

	log.Printf("[RUNNER] ▶️ стрим запущен: %s %s/%s",
		r.cfg.Strategy.Symbol, r.cfg.Strategy.PrimaryTF, r.cfg.Strategy.SlowTF)

	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-primary:
			if !ok {
				r.state.SetWSConnected(false)
				return
			}
			r.onCandle(ctx, tick, true)
		case tick, ok := <-slow:
			if !ok {
				r.state.SetWSConnected(false)
				return
			}
			r.onCandle(ctx, tick, false)
		}
	}
}

func (r *Runner) onCandle(ctx context.Context, tick models.CandleTick, primary bool) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "evaluate_cycle")
	defer span.Finish()
	span.SetTag("timeframe", tick.TimeframeRaw)

	if primary {
		r.refreshPosition(ctx)
	}

	res := r.engine.OnCandle(tick, r.position)

	r.state.MarkCandle(tick.End)
	if !r.state.Ready() && r.engine.Warm() {
		r.state.SetReady(true)
		r.n.Sendf("✅ Engine warm: %s evaluating live candles", r.cfg.Strategy.Symbol)
	}

	log.Printf("[TICK] %s %s close=%.2f -> %s",
		tick.Symbol, tick.TimeframeRaw, tick.Close, res.Entry.Kind)
	span.SetTag("signal", string(res.Entry.Kind))

	// выход и вход могут сработать в одном цикле: отдаём оба,
	// что исполнять — решает потребитель
	if res.Exit != nil {
		r.push(*res.Exit)
	}
	if res.Entry.Kind != models.SignalNone {
		r.push(res.Entry)
	}
}

func (r *Runner) refreshPosition(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pos, err := r.broker.CurrentPosition(pctx)
	if err != nil {
		// оставляем последнее известное значение
		log.Printf("[RUNNER] position fetch error: %v", err)
		return
	}
	r.position = pos
}

// push не блокирует цикл: при заполненном канале сигнал теряется с алертом.
func (r *Runner) push(sig models.Signal) {
	select {
	case r.out <- sig:
	default:
		r.n.Sendf("⚠️ signal channel full, drop %s %s @ %.2f", sig.Symbol, sig.Kind, sig.Price)
	}
}
