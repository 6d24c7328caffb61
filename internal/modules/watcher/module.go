package watcher

import (
	"context"

	indsvc "exit_guard/internal/modules/indicators/service"
	okxsvc "exit_guard/internal/modules/okx_client/service"
	"exit_guard/internal/modules/positions/service/pg"
	"exit_guard/internal/modules/watcher/service"
	"exit_guard/internal/notify"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("watcher",
		fx.Provide(
			okxsvc.NewClient, // *okxsvc.Client

			// адаптеры под узкие интерфейсы watcher-а
			func(s *pg.Store) service.PositionStore { return s },
			func(b *indsvc.Builder) service.IndicatorSource { return b },
			func(c *okxsvc.Client) service.OrderExecutor { return c },
			func(c *okxsvc.Client) service.ExchangeAccount { return c },
			func(n notify.Notifier) service.Notifier { return n },

			service.NewWatcher, // *service.Watcher
		),

		fx.Invoke(func(lc fx.Lifecycle, w *service.Watcher, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go w.Run(ctx)
					return nil
				},
			})
		}),
	)
}
