package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mtlprog/networth/internal/domain"
)

type mockRefresher struct {
	callCount atomic.Int32
	err       error
}

func (m *mockRefresher) RefreshHeld(_ context.Context) ([]domain.RefreshResult, error) {
	m.callCount.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return []domain.RefreshResult{{Symbol: "BTC"}, {Symbol: "DOGE", Error: "price not found"}}, nil
}

func TestRateWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockRefresher{}
	w := NewRateWorker(mock, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	// Should have run at least the initial refresh + some ticks
	if got := mock.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want >= 2", got)
	}
}

func TestRateWorkerSurvivesErrors(t *testing.T) {
	mock := &mockRefresher{err: errors.New("db down")}
	w := NewRateWorker(mock, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := mock.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want the worker to keep ticking after failures", got)
	}
}
