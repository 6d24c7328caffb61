package service

import (
	"context"
	"time"

	"exit_guard/internal/models"
	"exit_guard/internal/modules/config"
	detsvc "exit_guard/internal/modules/detector/service"
	healthsvc "exit_guard/internal/modules/health/service"

	"go.uber.org/zap"
)

type PositionStore interface {
	Open(ctx context.Context) ([]models.OpenPosition, error)
	ClaimExit(ctx context.Context, dec models.ExitDecision) (bool, error)
	Reopen(ctx context.Context, positionID int64) error
	MarkClosed(ctx context.Context, positionID int64, closedAt time.Time) error
}

type IndicatorSource interface {
	Snapshot(pair string) (models.TechnicalIndicators, bool)
	LastPrice(pair string) (float64, bool)
	IsReady(pair string) bool
}

type OrderExecutor interface {
	CloseMarket(ctx context.Context, instID string, size float64) (string, error)
}

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Watcher раз в PollInterval прогоняет открытые позиции через детектор.
// Сам детектор чистый; вся грязь (БД, биржа, телеграм) живёт здесь.
type Watcher struct {
	cfg   *config.Config
	det   *detsvc.Detector
	store PositionStore
	ind   IndicatorSource
	okx   OrderExecutor
	acct  ExchangeAccount
	n     Notifier
	state *healthsvc.State
	log   *zap.Logger
}

func NewWatcher(
	cfg *config.Config,
	det *detsvc.Detector,
	store PositionStore,
	ind IndicatorSource,
	okx OrderExecutor,
	acct ExchangeAccount,
	n Notifier,
	state *healthsvc.State,
	log *zap.Logger,
) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		cfg:   cfg,
		det:   det,
		store: store,
		ind:   ind,
		okx:   okx,
		acct:  acct,
		n:     n,
		state: state,
		log:   log,
	}
}

func (w *Watcher) Run(ctx context.Context) {
	interval := w.cfg.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	// сверка с биржей сильно реже обхода
	const reconcileEvery = 20

	w.log.Info("watcher started", zap.Duration("interval", interval))
	for ticks := 0; ; {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return
		case <-t.C:
			w.Sweep(ctx)
			ticks++
			if ticks%reconcileEvery == 0 {
				w.Reconcile(ctx, w.acct)
			}
		}
	}
}
