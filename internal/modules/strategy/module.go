package strategy

import (
	"go.uber.org/fx"

	"momentum_bot/internal/models"
	"momentum_bot/internal/modules/strategy/service"
)

func newSignalsChan() chan models.Signal {
	return make(chan models.Signal, 4096)
}
func asSendOnlySignals(ch chan models.Signal) chan<- models.Signal { return ch }

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			newSignalsChan,    // chan models.Signal
			asSendOnlySignals, // chan<- models.Signal
			service.NewEngine, // *service.Engine
		),
	)
}
