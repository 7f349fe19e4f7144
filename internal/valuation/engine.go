package valuation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
)

// RateSource resolves prices from the rate store and accepts freshly fetched ones.
type RateSource interface {
	RateFor(ctx context.Context, symbol string, date *time.Time) (decimal.Decimal, bool, error)
	UpdateCachedRate(ctx context.Context, symbol, currency string, price decimal.Decimal, source string) error
}

// PriceOracle fetches current prices from an external provider.
type PriceOracle interface {
	GetPrice(ctx context.Context, symbol, currency string) (decimal.Decimal, error)
	GetPrices(ctx context.Context, symbols []string, currency string) (map[string]decimal.Decimal, error)
}

// Request selects the prices a valuation uses. A nil Date means current prices.
type Request struct {
	Date     *time.Time
	Currency string
}

// Value prices holdings. Historical requests never reach the oracle. Current requests read the
// cache first and fetch every miss from the oracle in one call, writing the results back.
// A holding without a price falls back to its stored value, or is reported absent and counted
// in AbsentCount. Only storage read failures are returned as errors.
func Value(ctx context.Context, holdings []domain.Holding, req Request, rates RateSource, oracle PriceOracle) (domain.ValuationReport, error) {
	currency := domain.NormalizeSymbol(req.Currency)
	prices := make(map[string]decimal.Decimal, len(holdings))

	for _, h := range holdings {
		symbol := h.Asset.Symbol
		if _, done := prices[symbol]; done {
			continue
		}
		if h.Asset.IsCash(currency) {
			prices[symbol] = decimal.NewFromInt(1)
			continue
		}
		price, ok, err := rates.RateFor(ctx, symbol, req.Date)
		if err != nil {
			return domain.ValuationReport{}, fmt.Errorf("resolving rate for %s: %w", symbol, err)
		}
		if ok {
			prices[symbol] = price
		}
	}

	if req.Date == nil && oracle != nil {
		fetchMissing(ctx, holdings, prices, currency, rates, oracle)
	}

	report := domain.ValuationReport{
		Currency: currency,
		Holdings: make([]domain.ValuedHolding, 0, len(holdings)),
	}
	if req.Date != nil {
		asOf := domain.Day(*req.Date)
		report.AsOf = &asOf
	}

	for _, h := range holdings {
		row := domain.ValuedHolding{
			Symbol: h.Asset.Symbol,
			Name:   h.Asset.DisplayName(),
			Class:  h.Asset.Class,
			Amount: h.Amount,
		}
		switch price, ok := prices[h.Asset.Symbol]; {
		case ok:
			value := h.Amount.Mul(price)
			row.Price = &price
			row.Value = &value
			row.Status = domain.PriceResolved
		case h.StoredValue != nil:
			value := *h.StoredValue
			row.Value = &value
			row.Status = domain.PriceStale
			report.StaleCount++
		default:
			row.Status = domain.PriceAbsent
			report.AbsentCount++
		}
		report.Holdings = append(report.Holdings, row)
	}

	report.TotalValue = lo.Reduce(report.Holdings, func(acc decimal.Decimal, h domain.ValuedHolding, _ int) decimal.Decimal {
		return acc.Add(h.ValueOrZero())
	}, decimal.Zero)
	report.NetWorth = report.TotalValue

	return report, nil
}

func fetchMissing(ctx context.Context, holdings []domain.Holding, prices map[string]decimal.Decimal, currency string, rates RateSource, oracle PriceOracle) {
	missing := lo.Uniq(lo.FilterMap(holdings, func(h domain.Holding, _ int) (string, bool) {
		_, resolved := prices[h.Asset.Symbol]
		return h.Asset.Symbol, !resolved && h.Asset.ValuationSource == domain.ValuationSourceOracle
	}))
	if len(missing) == 0 {
		return
	}

	fetched, err := oracle.GetPrices(ctx, missing, currency)
	if err != nil {
		slog.Warn("oracle fetch failed, affected holdings degrade", "symbols", missing, "error", err)
		return
	}

	for _, symbol := range missing {
		price, ok := fetched[symbol]
		if !ok || !price.IsPositive() {
			slog.Warn("oracle returned no price", "symbol", symbol, "currency", currency)
			continue
		}
		prices[symbol] = price
		if err := rates.UpdateCachedRate(ctx, symbol, currency, price, domain.RateSourceOracle); err != nil {
			slog.Warn("failed to cache fetched rate", "symbol", symbol, "error", err)
		}
	}
}
