package valuation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
	"github.com/mtlprog/networth/internal/snapshot"
)

// SnapshotReader loads snapshots with their holdings and liabilities.
type SnapshotReader interface {
	GetByDate(ctx context.Context, date time.Time) (domain.Snapshot, error)
	GetLatest(ctx context.Context) (domain.Snapshot, error)
	ListHoldings(ctx context.Context, snapshotID int) ([]domain.Holding, error)
	ListLiabilities(ctx context.Context, snapshotID int) ([]domain.LiabilityBalance, error)
}

// Service values stored snapshots and refreshes current prices.
type Service struct {
	snapshots SnapshotReader
	rates     RateSource
	oracle    PriceOracle
	currency  string
}

// NewService creates a valuation service. oracle may be nil, in which case only stored rates are used.
func NewService(snapshots SnapshotReader, rates RateSource, oracle PriceOracle, baseCurrency string) *Service {
	return &Service{
		snapshots: snapshots,
		rates:     rates,
		oracle:    oracle,
		currency:  domain.NormalizeSymbol(baseCurrency),
	}
}

// Currency returns the base currency reports are expressed in.
func (s *Service) Currency() string { return s.currency }

// ValueSnapshot values the snapshot recorded on date at that date's historical rates, or the
// latest snapshot at current prices when date is nil. It returns domain.ErrNoData if there is no
// such snapshot.
func (s *Service) ValueSnapshot(ctx context.Context, date *time.Time) (domain.ValuationReport, error) {
	snap, err := s.loadSnapshot(ctx, date)
	if err != nil {
		return domain.ValuationReport{}, err
	}

	holdings, err := s.snapshots.ListHoldings(ctx, snap.ID)
	if err != nil {
		return domain.ValuationReport{}, fmt.Errorf("loading holdings: %w", err)
	}
	liabilities, err := s.snapshots.ListLiabilities(ctx, snap.ID)
	if err != nil {
		return domain.ValuationReport{}, fmt.Errorf("loading liabilities: %w", err)
	}

	report, err := Value(ctx, holdings, Request{Date: date, Currency: s.currency}, s.rates, s.oracle)
	if err != nil {
		return domain.ValuationReport{}, err
	}

	report.Date = snap.Date
	report.Liabilities = liabilities
	report.TotalLiabilities = lo.Reduce(liabilities, func(acc decimal.Decimal, l domain.LiabilityBalance, _ int) decimal.Decimal {
		return acc.Add(l.Balance)
	}, decimal.Zero)
	report.NetWorth = report.TotalValue.Sub(report.TotalLiabilities)

	if report.AbsentCount > 0 || report.StaleCount > 0 {
		slog.Warn("valuation incomplete",
			"date", snap.Date.Format(domain.DateLayout),
			"absent", report.AbsentCount,
			"stale", report.StaleCount)
	}
	return report, nil
}

func (s *Service) loadSnapshot(ctx context.Context, date *time.Time) (domain.Snapshot, error) {
	var (
		snap domain.Snapshot
		err  error
	)
	if date == nil {
		snap, err = s.snapshots.GetLatest(ctx)
	} else {
		snap, err = s.snapshots.GetByDate(ctx, domain.Day(*date))
	}
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return domain.Snapshot{}, fmt.Errorf("no snapshot to value: %w", domain.ErrNoData)
		}
		return domain.Snapshot{}, fmt.Errorf("loading snapshot: %w", err)
	}
	return snap, nil
}

// RefreshRates fetches the current price of each symbol with its own oracle request and stores it
// in the cache. It returns one result per symbol and never fails as a whole.
func (s *Service) RefreshRates(ctx context.Context, symbols []string) []domain.RefreshResult {
	symbols = lo.Uniq(lo.Map(symbols, func(sym string, _ int) string { return domain.NormalizeSymbol(sym) }))
	results := make([]domain.RefreshResult, 0, len(symbols))

	for _, symbol := range symbols {
		result := domain.RefreshResult{Symbol: symbol}
		if s.oracle == nil {
			result.Error = "no price oracle configured"
			results = append(results, result)
			continue
		}

		price, err := s.oracle.GetPrice(ctx, symbol, s.currency)
		if err != nil {
			slog.Warn("rate refresh failed", "symbol", symbol, "error", err)
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		if err := s.rates.UpdateCachedRate(ctx, symbol, s.currency, price, domain.RateSourceOracle); err != nil {
			slog.Warn("failed to store refreshed rate", "symbol", symbol, "error", err)
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.Price = &price
		results = append(results, result)
	}
	return results
}

// RefreshHeld refreshes every oracle-priced asset held in the latest snapshot.
func (s *Service) RefreshHeld(ctx context.Context) ([]domain.RefreshResult, error) {
	snap, err := s.loadSnapshot(ctx, nil)
	if err != nil {
		return nil, err
	}
	holdings, err := s.snapshots.ListHoldings(ctx, snap.ID)
	if err != nil {
		return nil, fmt.Errorf("loading holdings: %w", err)
	}

	symbols := lo.FilterMap(holdings, func(h domain.Holding, _ int) (string, bool) {
		return h.Asset.Symbol, h.Asset.ValuationSource == domain.ValuationSourceOracle && !h.Asset.IsCash(s.currency)
	})
	return s.RefreshRates(ctx, symbols), nil
}
