package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
)

// TargetLister returns the configured allocation targets.
type TargetLister interface {
	List(ctx context.Context) ([]domain.AllocationTarget, error)
}

// Valuer values the snapshot for a date, or the latest one at current prices when date is nil.
type Valuer interface {
	ValueSnapshot(ctx context.Context, date *time.Time) (domain.ValuationReport, error)
}

// Service compares valued snapshots with the configured targets.
type Service struct {
	targets   TargetLister
	valuer    Valuer
	tolerance decimal.Decimal
}

// NewService creates an allocation service. defaultTolerance applies to targets without their own.
func NewService(targets TargetLister, valuer Valuer, defaultTolerance decimal.Decimal) *Service {
	return &Service{targets: targets, valuer: valuer, tolerance: defaultTolerance}
}

// Allocation compares the snapshot valuation for date with the targets.
// Targets are loaded first so that an unconfigured target set never triggers price fetches.
func (s *Service) Allocation(ctx context.Context, date *time.Time) (domain.AllocationReport, error) {
	targets, err := s.targets.List(ctx)
	if err != nil {
		return domain.AllocationReport{}, fmt.Errorf("loading targets: %w", err)
	}
	if len(targets) == 0 {
		return domain.AllocationReport{}, fmt.Errorf("no allocation targets: %w", domain.ErrNoData)
	}

	valuation, err := s.valuer.ValueSnapshot(ctx, date)
	if err != nil {
		return domain.AllocationReport{}, err
	}
	return Compare(valuation, targets, s.tolerance)
}

// Rebalancing suggests the trades that bring the snapshot for date back to its targets.
func (s *Service) Rebalancing(ctx context.Context, date *time.Time, toleranceOverride *decimal.Decimal) (domain.RebalancingReport, error) {
	report, err := s.Allocation(ctx, date)
	if err != nil {
		return domain.RebalancingReport{}, err
	}
	return Suggest(report, toleranceOverride), nil
}
