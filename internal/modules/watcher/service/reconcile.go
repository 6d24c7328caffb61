package service

import (
	"context"

	okxsvc "exit_guard/internal/modules/okx_client/service"

	"go.uber.org/zap"
)

type ExchangeAccount interface {
	OpenPositions(ctx context.Context) ([]okxsvc.ExchangePosition, error)
}

// Reconcile сверяет наши OPEN-позиции с биржей. Ничего не чинит сам:
// позиция могла закрыться руками или по SL мимо нас — об этом надо
// знать, а не молча держать мёртвую строку в 'OPEN'.
func (w *Watcher) Reconcile(ctx context.Context, acct ExchangeAccount) {
	if acct == nil {
		return
	}

	dbPositions, err := w.store.Open(ctx)
	if err != nil {
		w.log.Error("reconcile: load open positions", zap.Error(err))
		return
	}
	if len(dbPositions) == 0 {
		return
	}

	exchange, err := acct.OpenPositions(ctx)
	if err != nil {
		w.log.Error("reconcile: exchange positions", zap.Error(err))
		return
	}

	onExchange := make(map[string]float64, len(exchange))
	for _, p := range exchange {
		if p.PosSide == "long" {
			onExchange[p.InstID] += p.Size
		}
	}

	for _, p := range dbPositions {
		size, ok := onExchange[p.Pair]
		switch {
		case !ok:
			w.log.Error("reconcile: position missing on exchange",
				zap.String("pair", p.Pair), zap.Int64("id", p.ID))
			if w.n != nil {
				w.n.Sendf("⚠️ [%s] Позиция #%d есть в БД, но не найдена на бирже", p.Pair, p.ID)
			}
		case size < p.Size:
			w.log.Error("reconcile: exchange size below tracked size",
				zap.String("pair", p.Pair),
				zap.Float64("tracked", p.Size),
				zap.Float64("exchange", size))
		}
	}
}
