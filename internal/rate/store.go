package rate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
)

// DefaultCacheTTL is how long a cached current price stays valid.
const DefaultCacheTTL = 10 * time.Minute

// Store answers "what was or is the price of X" from the historical ledger and the current-price cache.
// A missing price is reported as ok == false, never as an error; errors are storage failures.
type Store struct {
	repo     Repository
	ttl      time.Duration
	currency string
	now      func() time.Time
}

// NewStore creates a rate store. Rates without an explicit currency are in baseCurrency.
func NewStore(repo Repository, ttl time.Duration, baseCurrency string) *Store {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Store{
		repo:     repo,
		ttl:      ttl,
		currency: domain.NormalizeSymbol(baseCurrency),
		now:      time.Now,
	}
}

// BaseCurrency returns the store's default currency.
func (s *Store) BaseCurrency() string { return s.currency }

func (s *Store) currencyOr(currency string) string {
	if currency == "" {
		return s.currency
	}
	return domain.NormalizeSymbol(currency)
}

// timestamp returns the current time at database precision.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// CachedRate returns the live cache entry for (symbol, currency) if it is not older than the TTL.
// An expired entry is deleted by this call and reported absent.
func (s *Store) CachedRate(ctx context.Context, symbol, currency string) (domain.Rate, bool, error) {
	symbol, currency = domain.NormalizeSymbol(symbol), s.currencyOr(currency)

	entry, err := s.repo.GetCachedRate(ctx, symbol, currency)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Rate{}, false, nil
		}
		return domain.Rate{}, false, err
	}

	if s.now().Sub(entry.UpdatedAt) > s.ttl {
		if err := s.repo.EvictCachedRate(ctx, symbol, currency, entry.UpdatedAt); err != nil {
			return domain.Rate{}, false, err
		}
		slog.Debug("evicted expired cached rate", "symbol", symbol, "currency", currency, "updatedAt", entry.UpdatedAt)
		return domain.Rate{}, false, nil
	}

	return entry.Rate(), true, nil
}

// UpdateCachedRate upserts the current price for (symbol, currency) and records it as a historical rate.
func (s *Store) UpdateCachedRate(ctx context.Context, symbol, currency string, price decimal.Decimal, source string) error {
	if symbol == "" {
		return domain.ValidationError("symbol", symbol, "symbol is required")
	}
	if !price.IsPositive() {
		return domain.ValidationError("price", price.String(), "price must be positive")
	}
	if source == "" {
		source = domain.RateSourceOracle
	}

	entry := domain.CachedRate{
		Symbol:    domain.NormalizeSymbol(symbol),
		Currency:  s.currencyOr(currency),
		Price:     price,
		Source:    source,
		UpdatedAt: s.timestamp(),
	}
	if err := s.repo.StoreCurrentRate(ctx, entry); err != nil {
		return fmt.Errorf("updating cached rate: %w", err)
	}
	return nil
}

// SaveHistoricalRate records a rate. Saving the same (symbol, currency, timestamp) again overwrites it.
func (s *Store) SaveHistoricalRate(ctx context.Context, in domain.RateInput) error {
	if in.Symbol == "" {
		return domain.ValidationError("symbol", in.Symbol, "symbol is required")
	}
	if !in.Price.IsPositive() {
		return domain.ValidationError("price", in.Price.String(), "price must be positive")
	}
	if in.Timestamp.IsZero() {
		return domain.ValidationError("timestamp", "", "timestamp is required")
	}
	source := in.Source
	if source == "" {
		source = domain.RateSourceManual
	}

	rt := domain.Rate{
		Symbol:    domain.NormalizeSymbol(in.Symbol),
		Currency:  s.currencyOr(in.Currency),
		Price:     in.Price,
		Timestamp: in.Timestamp.UTC().Truncate(time.Microsecond),
		Source:    source,
	}
	if err := s.repo.SaveRate(ctx, rt); err != nil {
		return fmt.Errorf("saving historical rate: %w", err)
	}
	return nil
}

// HistoricalRate resolves the price of symbol on date. Among rates whose calendar date is on or
// before date, the latest one wins: an exact-date match beats earlier dates, and within a date the
// latest intraday sample wins. Rates after date are never used.
func (s *Store) HistoricalRate(ctx context.Context, symbol string, date time.Time, currency string) (domain.Rate, bool, error) {
	symbol, currency = domain.NormalizeSymbol(symbol), s.currencyOr(currency)

	rt, err := s.repo.LatestRateBefore(ctx, symbol, currency, domain.NextDay(date))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Rate{}, false, nil
		}
		return domain.Rate{}, false, err
	}
	return rt, true, nil
}

// HistoricalRatesForAsset returns the recorded rates for symbol, most recent first.
// limit <= 0 returns all of them.
func (s *Store) HistoricalRatesForAsset(ctx context.Context, symbol, currency string, limit int) ([]domain.Rate, error) {
	return s.repo.ListRates(ctx, domain.NormalizeSymbol(symbol), s.currencyOr(currency), limit)
}

// HistoricalRatesRange returns the rates recorded between the calendar dates start and end inclusive, oldest first.
func (s *Store) HistoricalRatesRange(ctx context.Context, symbol, currency string, start, end time.Time) ([]domain.Rate, error) {
	if domain.Day(end).Before(domain.Day(start)) {
		return nil, domain.ValidationError("range", fmt.Sprintf("%s..%s", start.Format(domain.DateLayout), end.Format(domain.DateLayout)), "end is before start")
	}
	return s.repo.ListRatesBetween(ctx, domain.NormalizeSymbol(symbol), s.currencyOr(currency), domain.Day(start), domain.NextDay(end))
}

// RateFor returns the price of symbol in the base currency. With a nil date it only consults the
// live cache and never fetches; otherwise it resolves the historical rate for that date.
func (s *Store) RateFor(ctx context.Context, symbol string, date *time.Time) (decimal.Decimal, bool, error) {
	var (
		rt  domain.Rate
		ok  bool
		err error
	)
	if date == nil {
		rt, ok, err = s.CachedRate(ctx, symbol, s.currency)
	} else {
		rt, ok, err = s.HistoricalRate(ctx, symbol, *date, s.currency)
	}
	if err != nil || !ok {
		return decimal.Zero, false, err
	}
	return rt.Price, true, nil
}

// HasRateForDate reports whether a rate was recorded for symbol on the calendar date of date.
func (s *Store) HasRateForDate(ctx context.Context, symbol string, date time.Time, currency string) (bool, error) {
	rt, ok, err := s.HistoricalRate(ctx, symbol, date, currency)
	if err != nil || !ok {
		return false, err
	}
	return domain.Day(rt.Timestamp).Equal(domain.Day(date)), nil
}

// DeleteCachedRate removes the cache entry for (symbol, currency).
func (s *Store) DeleteCachedRate(ctx context.Context, symbol, currency string) error {
	return s.repo.DeleteCachedRate(ctx, domain.NormalizeSymbol(symbol), s.currencyOr(currency))
}

// ClearCache removes every cache entry. Historical rates are kept.
func (s *Store) ClearCache(ctx context.Context) error {
	n, err := s.repo.ClearCache(ctx)
	if err != nil {
		return err
	}
	slog.Info("rate cache cleared", "entries", n)
	return nil
}
