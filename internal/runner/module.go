package runner

import (
	"context"

	"go.uber.org/fx"

	"momentum_bot/internal/models"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			New, // *Runner
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			r *Runner,
			sigs chan models.Signal,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go r.Run(ctx)
					go func() {
						for {
							select {
							case <-ctx.Done():
								return
							case sig := <-sigs:
								r.HandleSignal(ctx, sig)
							}
						}
					}()
					return nil
				},
			})
		}),
	)
}
