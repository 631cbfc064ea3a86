package bootstrap

import (
	"go.uber.org/fx"

	"momentum_bot/internal/modules/bootstrap/service"
)

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			service.NewWarmuper,
		),
	)
}
