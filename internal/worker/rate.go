package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/networth/internal/domain"
)

// RateRefresher refreshes the current prices of the held assets.
type RateRefresher interface {
	RefreshHeld(ctx context.Context) ([]domain.RefreshResult, error)
}

// RateWorker periodically refreshes cached prices so valuations rarely wait on the oracle.
type RateWorker struct {
	refresher RateRefresher
	interval  time.Duration
}

// NewRateWorker creates a new RateWorker.
func NewRateWorker(refresher RateRefresher, interval time.Duration) *RateWorker {
	return &RateWorker{
		refresher: refresher,
		interval:  interval,
	}
}

func (w *RateWorker) refresh(ctx context.Context, phase string) {
	results, err := w.refresher.RefreshHeld(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			slog.Info("RateWorker: no snapshot yet, nothing to refresh")
			return
		}
		slog.Error("RateWorker: "+phase+" refresh failed", "error", err)
		return
	}

	failed := lo.CountBy(results, func(r domain.RefreshResult) bool { return r.Error != "" })
	slog.Info("RateWorker: "+phase+" refresh completed", "symbols", len(results), "failed", failed)
}

// Run starts the rate worker loop. It blocks until the context is cancelled.
func (w *RateWorker) Run(ctx context.Context) {
	slog.Info("RateWorker: starting")

	// Refresh immediately on startup
	w.refresh(ctx, "initial")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RateWorker: shutting down")
			return
		case <-ticker.C:
			w.refresh(ctx, "periodic")
		}
	}
}
