package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/networth/internal/domain"
)

// Service manages snapshot creation and retrieval and the asset catalogue.
type Service struct {
	repo     Repository
	currency string
}

// NewService creates a new snapshot service. Assets registered without a currency get baseCurrency.
func NewService(repo Repository, baseCurrency string) *Service {
	return &Service{repo: repo, currency: domain.NormalizeSymbol(baseCurrency)}
}

// Create validates and stores a new snapshot. Every holding must reference a registered asset,
// appear once, and have a non-negative amount. A second snapshot for the same date is a conflict.
func (s *Service) Create(ctx context.Context, in domain.SnapshotInput) (domain.Snapshot, error) {
	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return domain.Snapshot{}, err
	}

	holdings := make([]domain.Holding, 0, len(in.Holdings))
	seen := make(map[string]bool, len(in.Holdings))
	for _, h := range in.Holdings {
		symbol := domain.NormalizeSymbol(h.Symbol)
		if symbol == "" {
			return domain.Snapshot{}, domain.ValidationError("symbol", h.Symbol, "symbol is required")
		}
		if seen[symbol] {
			return domain.Snapshot{}, domain.ValidationError("symbol", symbol, "asset appears more than once in the snapshot")
		}
		seen[symbol] = true
		if h.Amount.IsNegative() {
			return domain.Snapshot{}, domain.ValidationError("amount", h.Amount.String(), "amount must not be negative")
		}

		asset, err := s.repo.GetAsset(ctx, symbol)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return domain.Snapshot{}, domain.NotFoundError("asset", symbol)
			}
			return domain.Snapshot{}, fmt.Errorf("loading asset: %w", err)
		}

		holdings = append(holdings, domain.Holding{
			Asset:            asset,
			Amount:           h.Amount,
			AcquisitionPrice: h.AcquisitionPrice,
			AcquisitionDate:  h.AcquisitionDate,
		})
	}

	liabilities := make([]domain.LiabilityBalance, 0, len(in.Liabilities))
	for _, l := range in.Liabilities {
		if l.Name == "" {
			return domain.Snapshot{}, domain.ValidationError("liability", "", "name is required")
		}
		if l.Balance.IsNegative() {
			return domain.Snapshot{}, domain.ValidationError("balance", l.Balance.String(), "balance must not be negative")
		}
		liabilities = append(liabilities, domain.LiabilityBalance{Name: l.Name, Balance: l.Balance})
	}

	snap, err := s.repo.Create(ctx, domain.Snapshot{Date: date, Notes: in.Notes}, holdings, liabilities)
	if err != nil {
		if errors.Is(err, ErrDuplicateDate) {
			return domain.Snapshot{}, domain.ConflictError("snapshot", in.Date, "a snapshot already exists for this date")
		}
		return domain.Snapshot{}, fmt.Errorf("creating snapshot: %w", err)
	}

	slog.Info("snapshot created", "date", in.Date, "holdings", len(holdings), "liabilities", len(liabilities))
	return snap, nil
}

// GetLatest retrieves the most recent snapshot.
func (s *Service) GetLatest(ctx context.Context) (domain.Snapshot, error) {
	return s.repo.GetLatest(ctx)
}

// GetByDate retrieves the snapshot recorded on date.
func (s *Service) GetByDate(ctx context.Context, date time.Time) (domain.Snapshot, error) {
	return s.repo.GetByDate(ctx, date)
}

// List retrieves recent snapshots, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	return s.repo.List(ctx, limit)
}

// ListHoldings returns the holdings of a snapshot with their assets.
func (s *Service) ListHoldings(ctx context.Context, snapshotID int) ([]domain.Holding, error) {
	return s.repo.ListHoldings(ctx, snapshotID)
}

// ListLiabilities returns the liability balances of a snapshot.
func (s *Service) ListLiabilities(ctx context.Context, snapshotID int) ([]domain.LiabilityBalance, error) {
	return s.repo.ListLiabilities(ctx, snapshotID)
}

// RegisterAsset validates and upserts an asset. Crypto assets default to oracle pricing,
// everything else to manual rates.
func (s *Service) RegisterAsset(ctx context.Context, a domain.Asset) (domain.Asset, error) {
	a.Symbol = domain.NormalizeSymbol(a.Symbol)
	if a.Symbol == "" {
		return domain.Asset{}, domain.ValidationError("symbol", "", "symbol is required")
	}
	class, ok := domain.ParseAssetClass(string(a.Class))
	if !ok {
		return domain.Asset{}, domain.ValidationError("class", string(a.Class), "unknown asset class")
	}
	a.Class = class

	switch a.ValuationSource {
	case domain.ValuationSourceOracle, domain.ValuationSourceManual:
	case "":
		a.ValuationSource = domain.ValuationSourceManual
		if class == domain.AssetClassCrypto {
			a.ValuationSource = domain.ValuationSourceOracle
		}
	default:
		return domain.Asset{}, domain.ValidationError("valuationSource", string(a.ValuationSource), "must be oracle or manual")
	}

	a.Currency = lo.Ternary(a.Currency == "", s.currency, domain.NormalizeSymbol(a.Currency))
	if a.Name == "" {
		a.Name = a.Symbol
	}

	if err := s.repo.UpsertAsset(ctx, a); err != nil {
		return domain.Asset{}, err
	}
	return a, nil
}

// ListAssets returns every registered asset.
func (s *Service) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	return s.repo.ListAssets(ctx)
}

// ExternalIDs maps the symbols of oracle-priced assets to their provider identifiers.
func (s *Service) ExternalIDs(ctx context.Context) (map[string]string, error) {
	assets, err := s.repo.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	oracleAssets := lo.Filter(assets, func(a domain.Asset, _ int) bool {
		return a.ValuationSource == domain.ValuationSourceOracle && a.ExternalID != ""
	})
	return lo.SliceToMap(oracleAssets, func(a domain.Asset) (string, string) {
		return a.Symbol, a.ExternalID
	}), nil
}
