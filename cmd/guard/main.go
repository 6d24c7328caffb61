package main

import (
	"context"
	"log"

	"exit_guard/internal/modules/config"
	"exit_guard/internal/modules/detector"
	"exit_guard/internal/modules/health"
	"exit_guard/internal/modules/indicators"
	"exit_guard/internal/modules/okx_websocket"
	"exit_guard/internal/modules/positions"
	"exit_guard/internal/modules/postgres"
	"exit_guard/internal/modules/watcher"
	"exit_guard/internal/notify"
	"exit_guard/pkg/logger"
	"exit_guard/pkg/tracing"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const serviceName = "exit_guard"

func main() {
	if err := logger.Init(serviceName); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			func() *zap.Logger { return logger.InfoLogger },

			// Notifier: если TELEGRAM_* нет — используем stdout
			func(cfg *config.Config) notify.Notifier {
				if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
					if tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID); err == nil {
						return tg
					}
				}
				return notify.NewStdout()
			},
		),
		config.Module(),
		postgres.Module(),
		health.Module(),
		okx_websocket.Module(),
		indicators.Module(),
		detector.Module(),
		positions.Module(),
		watcher.Module(),

		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			tracing.SetServiceName(serviceName)
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
	)
	app.Run()
}
