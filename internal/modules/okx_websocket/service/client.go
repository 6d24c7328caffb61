package service

import (
	"context"
	"log"
	"net/http"
	"time"

	"exit_guard/internal/models"
	"exit_guard/internal/modules/config"
	healthsvc "exit_guard/internal/modules/health/service"

	"github.com/gorilla/websocket"
)

type ServiceNotifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Client — стример закрытых свечей OKX по watchlist из конфига.
type Client struct {
	cfg   *config.Config
	n     ServiceNotifier
	state *healthsvc.State

	http     *http.Client
	wsDialer *websocket.Dialer
}

func NewClient(cfg *config.Config, n ServiceNotifier, state *healthsvc.State) *Client {
	return &Client{
		wsDialer: &websocket.Dialer{},
		http:     &http.Client{Timeout: 10 * time.Second},
		cfg:      cfg,
		n:        n,
		state:    state,
	}
}

// OutTick — что отдаём наружу (в indicators.Builder).
type OutTick struct {
	InstID    string
	Timeframe string
	Candle    models.CandleTick
}

// Start стримит 1m свечи по парам watchlist: индикаторные окна детектора
// (momentum 1h/4h, средняя объёма, recentHigh) считаются из минуток.
func (c *Client) Start(ctx context.Context, out chan<- OutTick) {
	syms := c.cfg.Watchlist
	if len(syms) == 0 {
		if c.n != nil {
			c.n.Send("⚠️ Рынок: watchlist пуст — стример не запущен.")
		}
		log.Println("[MARKET] пустой watchlist")
		return
	}

	const timeframe = "1m"

	if c.n != nil {
		c.n.Sendf(
			"🚀 OKX: WebSocket-стример запущен\n"+
				"• Таймфрейм: %s\n"+
				"• Инструментов: %d",
			timeframe, len(syms),
		)
	}

	go c.runTimeframe(ctx, timeframe, syms, out)
}

func (c *Client) runTimeframe(
	ctx context.Context,
	timeframe string,
	syms []string,
	out chan<- OutTick,
) {
	ticks := c.StreamCandlesBatch(ctx, syms, timeframe)

	for {
		select {
		case <-ctx.Done():
			if c.n != nil {
				c.n.Sendf("[РЫНОК] ⏹ WS: остановка %s", timeframe)
			}
			return

		case tick, ok := <-ticks:
			if !ok {
				if c.n != nil {
					c.n.Sendf("[РЫНОК] ❌ WS: поток закрыт %s", timeframe)
				}
				return
			}

			select {
			case out <- OutTick{
				InstID:    tick.InstID,
				Timeframe: timeframe,
				Candle:    tick,
			}:
				// ok
			case <-ctx.Done():
				return
			}
		}
	}
}
