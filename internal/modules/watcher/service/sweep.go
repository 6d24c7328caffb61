package service

import (
	"context"
	"strings"
	"time"

	"exit_guard/internal/models"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

// Sweep — один обход открытых позиций.
// Позиции по парам вне watchlist или с холодными индикаторами пропускаем:
// детектор на дефолтах всё равно промолчит, но и профит мы тогда
// не можем посчитать честно.
func (w *Watcher) Sweep(ctx context.Context) {
	if !w.det.Enabled() {
		return
	}

	span := opentracing.StartSpan("watcher.sweep")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	positions, err := w.store.Open(ctx)
	if err != nil {
		w.log.Error("sweep: load open positions", zap.Error(err))
		return
	}
	span.SetTag("positions", len(positions))

	for _, p := range positions {
		if !w.ind.IsReady(p.Pair) {
			continue
		}
		last, ok := w.ind.LastPrice(p.Pair)
		if !ok || p.EntryPrice <= 0 {
			continue
		}
		snap, ok := w.ind.Snapshot(p.Pair)
		if !ok {
			continue
		}

		// mark-to-market тем же фидом, что и индикаторы
		p.CurrentPrice = last
		p.ProfitPct = (last/p.EntryPrice - 1) * 100

		res := w.det.Detect(p, snap)
		if !res.ShouldExit {
			continue
		}

		span.LogKV("event", "exit_signal", "pair", p.Pair, "signals", res.SignalCount)
		w.closePosition(ctx, p, res)
	}

	if w.state != nil {
		w.state.TouchSweep(time.Now())
	}
}

func (w *Watcher) closePosition(ctx context.Context, p models.OpenPosition, res models.MomentumFailureResult) {
	claimed, err := w.store.ClaimExit(ctx, models.ExitDecision{
		PositionID:  p.ID,
		Pair:        p.Pair,
		ProfitPct:   p.ProfitPct,
		SignalCount: res.SignalCount,
		Reasoning:   res.Reasoning,
		DecidedAt:   time.Now(),
	})
	if err != nil {
		w.log.Error("claim exit", zap.String("pair", p.Pair), zap.Error(err))
		return
	}
	if !claimed {
		// позицию уже закрывает кто-то другой
		return
	}

	ordID, err := w.okx.CloseMarket(ctx, p.Pair, p.Size)
	if err != nil {
		w.log.Error("close market", zap.String("pair", p.Pair), zap.Error(err))
		// вернём в OPEN — попробуем на следующем обходе
		if rErr := w.store.Reopen(ctx, p.ID); rErr != nil {
			w.log.Error("reopen after failed close", zap.Int64("id", p.ID), zap.Error(rErr))
		}
		if w.n != nil {
			w.n.Sendf("❗️ [%s] Не удалось закрыть позицию: %v", p.Pair, err)
		}
		return
	}

	if mErr := w.store.MarkClosed(ctx, p.ID, time.Now()); mErr != nil {
		w.log.Error("mark closed", zap.Int64("id", p.ID), zap.Error(mErr))
	}

	if w.n != nil {
		w.n.Sendf(
			"📉 [%s] Выход по слому импульса: +%.2f%% | сигналов %d | ordId=%s\n%s",
			p.Pair, p.ProfitPct, res.SignalCount, ordID,
			strings.Join(res.Reasoning, "\n"),
		)
	}
}
