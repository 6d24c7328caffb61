package indicators

import (
	"context"
	"log"

	"exit_guard/internal/models"
	"exit_guard/internal/modules/config"
	"exit_guard/internal/modules/indicators/service"
	"exit_guard/internal/notify"
	healthsvc "exit_guard/internal/modules/health/service"
	okxws "exit_guard/internal/modules/okx_websocket/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("indicators",
		fx.Provide(
			service.NewBuilder, // *service.Builder
		),

		fx.Invoke(func(
			lc fx.Lifecycle,
			cfg *config.Config,
			b *service.Builder,
			state *healthsvc.State,
			n notify.Notifier,
			ticks <-chan okxws.OutTick,
		) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						log.Printf("[IND] builder loop started")
						readyCnt := 0
						for {
							select {
							case <-ctx.Done():
								log.Printf("[IND] builder loop stopped")
								return
							case t, ok := <-ticks:
								if !ok {
									log.Printf("[IND] ticks channel closed")
									return
								}

								ct := models.CandleTick{
									InstID:       t.InstID,
									Open:         t.Candle.Open,
									High:         t.Candle.High,
									Low:          t.Candle.Low,
									Close:        t.Candle.Close,
									Volume:       t.Candle.Volume,
									QuoteVolume:  t.Candle.QuoteVolume,
									Start:        t.Candle.Start,
									End:          t.Candle.End,
									TimeframeRaw: t.Timeframe,
								}

								state.TouchTick(ct.End)

								if !b.OnCandle(ct) {
									continue
								}

								readyCnt++
								// прогрев закончен — можно выпускать watcher
								if readyCnt >= len(cfg.Watchlist) && !state.Ready() {
									state.SetReady(true)
									n.Sendf("🔥 Прогрев индикаторов завершён: %d пар", readyCnt)
								}
							}
						}
					}()
					return nil
				},
			})
		}),
	)
}
