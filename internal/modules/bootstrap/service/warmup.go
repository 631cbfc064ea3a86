package service

import (
	"context"

	"github.com/pkg/errors"

	brokersvc "momentum_bot/internal/modules/broker/service"
	"momentum_bot/internal/modules/config"
	strategysvc "momentum_bot/internal/modules/strategy/service"
	"momentum_bot/internal/notify"
)

// Warmuper прогревает буферы движка историей по REST до запуска стрима:
// сначала медленный таймфрейм, потом основной, чтобы медленный фильтр
// был готов к первым живым свечам.
type Warmuper struct {
	broker *brokersvc.Client
	engine *strategysvc.Engine
	n      notify.Notifier
	cfg    *config.Config
}

func NewWarmuper(broker *brokersvc.Client, engine *strategysvc.Engine, n notify.Notifier, cfg *config.Config) *Warmuper {
	return &Warmuper{broker: broker, engine: engine, n: n, cfg: cfg}
}

func (w *Warmuper) Warmup(ctx context.Context) error {
	sc := w.cfg.Strategy

	slowNeed := sc.TrendSlow.Smooth + 30
	primaryNeed := sc.MinBars + 30
	if primaryNeed > sc.MaxBars {
		primaryNeed = sc.MaxBars
	}

	w.n.Sendf("🔥 REST warmup start: %s=%d %s=%d", sc.SlowTF, slowNeed, sc.PrimaryTF, primaryNeed)

	slow, err := w.broker.GetCandles(ctx, sc.SlowTF, slowNeed)
	if err != nil {
		return errors.Wrap(err, "warmup slow timeframe")
	}
	for _, c := range slow {
		w.engine.OnCandle(c, 0)
	}

	primary, err := w.broker.GetCandles(ctx, sc.PrimaryTF, primaryNeed)
	if err != nil {
		return errors.Wrap(err, "warmup primary timeframe")
	}
	for _, c := range primary {
		w.engine.OnCandle(c, 0)
	}

	w.n.Sendf("✅ Warmup finished: %d+%d bars buffered", len(primary), len(slow))
	return nil
}
