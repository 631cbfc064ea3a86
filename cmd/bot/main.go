package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"momentum_bot/internal/modules/bootstrap"
	"momentum_bot/internal/modules/broker"
	"momentum_bot/internal/modules/config"
	"momentum_bot/internal/modules/dashboard"
	"momentum_bot/internal/modules/strategy"
	"momentum_bot/internal/notify"
	"momentum_bot/internal/runner"
	"momentum_bot/pkg/logger"
	"momentum_bot/pkg/tracing"
)

const serviceName = "momentum_bot"

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	logger.SetServiceName(serviceName)

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			notify.NewTelegram,
		),
		config.Module(),
		broker.Module(),
		strategy.Module(),
		bootstrap.Module(),
		dashboard.Module(),
		runner.Module(),
		fx.Invoke(setupTracing, logEffectiveConfig),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-app.Done()
	if err := app.Stop(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func setupTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if !cfg.Tracing.Enabled {
		return nil
	}

	_, closer, err := tracing.InitTracer(serviceName, tracing.Config{
		Host: cfg.Tracing.Host,
		Port: cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}

func logEffectiveConfig(cfg *config.Config) {
	logger.Info("effective config:\n%s", cfg.Render())
}
