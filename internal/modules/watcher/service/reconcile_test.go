package service

import (
	"context"
	"strings"
	"testing"

	okxsvc "exit_guard/internal/modules/okx_client/service"
)

type fakeAccount struct {
	positions []okxsvc.ExchangePosition
}

func (f *fakeAccount) OpenPositions(ctx context.Context) ([]okxsvc.ExchangePosition, error) {
	return f.positions, nil
}

func TestReconcileReportsMissingPosition(t *testing.T) {
	store := newFakeStore(testPosition()) // BTC-USDT-SWAP в БД
	n := &fakeNotifier{}
	w := newTestWatcher(store, &fakeIndicators{}, &fakeExecutor{}, n)

	// на бирже только ETH — BTC должен всплыть как расхождение
	acct := &fakeAccount{positions: []okxsvc.ExchangePosition{
		{InstID: "ETH-USDT-SWAP", PosSide: "long", Size: 1},
	}}

	w.Reconcile(context.Background(), acct)

	if len(n.msgs) != 1 {
		t.Fatalf("expected 1 mismatch notification, got %d", len(n.msgs))
	}
	if !strings.Contains(n.msgs[0], "не найдена на бирже") {
		t.Errorf("unexpected message %q", n.msgs[0])
	}
}

func TestReconcileQuietWhenMatched(t *testing.T) {
	store := newFakeStore(testPosition())
	n := &fakeNotifier{}
	w := newTestWatcher(store, &fakeIndicators{}, &fakeExecutor{}, n)

	acct := &fakeAccount{positions: []okxsvc.ExchangePosition{
		{InstID: "BTC-USDT-SWAP", PosSide: "long", Size: 2},
	}}

	w.Reconcile(context.Background(), acct)

	if len(n.msgs) != 0 {
		t.Errorf("expected no notifications, got %v", n.msgs)
	}
}
