package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mtlprog/networth/internal/allocation"
	"github.com/mtlprog/networth/internal/domain"
)

// AllocationReporter compares the latest snapshot with the allocation targets.
type AllocationReporter interface {
	Allocation(ctx context.Context, date *time.Time) (domain.AllocationReport, error)
}

// AfterReportHook is called after each successful report.
type AfterReportHook interface {
	Export(ctx context.Context, alloc domain.AllocationReport, rebalance domain.RebalancingReport) error
}

// ReportWorker periodically builds the allocation and rebalancing reports.
type ReportWorker struct {
	reporter AllocationReporter
	interval time.Duration
	hook     AfterReportHook // optional
}

// NewReportWorker creates a new ReportWorker with an optional post-report hook.
func NewReportWorker(reporter AllocationReporter, interval time.Duration, hook AfterReportHook) *ReportWorker {
	return &ReportWorker{
		reporter: reporter,
		interval: interval,
		hook:     hook,
	}
}

// runHook calls the post-report hook if one is configured.
func (w *ReportWorker) runHook(ctx context.Context, alloc domain.AllocationReport, rebalance domain.RebalancingReport) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, alloc, rebalance); err != nil {
		slog.Error("ReportWorker: export hook failed", "error", err)
	} else {
		slog.Info("ReportWorker: export hook completed")
	}
}

func (w *ReportWorker) report(ctx context.Context, phase string) {
	alloc, err := w.reporter.Allocation(ctx, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			slog.Info("ReportWorker: nothing to report", "reason", err)
			return
		}
		slog.Error("ReportWorker: "+phase+" report failed", "error", err)
		return
	}

	rebalance := allocation.Suggest(alloc, nil)
	slog.Info("ReportWorker: "+phase+" report completed",
		"date", alloc.Date.Format(domain.DateLayout),
		"total", alloc.TotalValue.StringFixed(2),
		"balanced", rebalance.IsBalanced)
	w.runHook(ctx, alloc, rebalance)
}

// Run starts the report worker loop. It blocks until the context is cancelled.
func (w *ReportWorker) Run(ctx context.Context) {
	slog.Info("ReportWorker: starting")

	// Report immediately on startup
	w.report(ctx, "initial")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ReportWorker: shutting down")
			return
		case <-ticker.C:
			w.report(ctx, "periodic")
		}
	}
}
