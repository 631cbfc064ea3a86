package runner

import (
	"context"
	"strings"

	"momentum_bot/internal/models"
	"momentum_bot/pkg/logger"
)

// HandleSignal — потребитель канала сигналов: лог, алерт и, если включён
// AutoTrade, ордер у брокера. NO_SIGNAL сюда не доходит — раннер фильтрует.
func (r *Runner) HandleSignal(ctx context.Context, sig models.Signal) {
	logger.Info("signal %s %s strength=%.2f price=%.2f reasons=[%s]",
		sig.Kind, sig.Symbol, sig.Strength, sig.Price, strings.Join(sig.Reasons, ", "))

	r.n.Sendf("🚨 %s %s @ %.2f (strength %.2f)\n%s",
		sig.Kind, sig.Symbol, sig.Price, sig.Strength, strings.Join(sig.Reasons, "\n"))

	if !r.cfg.AutoTrade {
		return
	}

	var err error
	switch sig.Kind {
	case models.SignalLong:
		err = r.broker.PlaceMarketOrder(ctx, "BUY", r.cfg.OrderSize)
	case models.SignalShort:
		err = r.broker.PlaceMarketOrder(ctx, "SELL", r.cfg.OrderSize)
	case models.SignalExit:
		err = r.broker.ClosePosition(ctx)
	default:
		return
	}

	if err != nil {
		logger.Error("order error for %s: %v", sig.Kind, err)
		r.n.Sendf("❌ order failed: %s %s: %v", sig.Kind, sig.Symbol, err)
	}
}
