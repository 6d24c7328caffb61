package okx_websocket

import (
	"context"

	"exit_guard/internal/modules/okx_websocket/service"
	"exit_guard/internal/notify"

	"go.uber.org/fx"
)

// Module поднимает стример свечей OKX.
func Module() fx.Option {
	return fx.Module("okx_websocket",
		fx.Provide(
			// адаптер: notify.Notifier -> service.ServiceNotifier
			func(n notify.Notifier) service.ServiceNotifier { return n },
			service.NewClient, // *service.Client
			func() chan service.OutTick {
				// общий буфер для свечей
				return make(chan service.OutTick, 1024)
			},
			func(ch chan service.OutTick) <-chan service.OutTick { return ch },
		),
		fx.Invoke(func(lc fx.Lifecycle, s *service.Client, out chan service.OutTick) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go s.Start(ctx, out)
					return nil
				},
			})
		}),
	)
}
