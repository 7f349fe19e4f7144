package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/networth/internal/domain"
)

// ErrNotFound indicates that no rate or cache entry matched.
var ErrNotFound = errors.New("rate not found")

// Repository defines persistent storage for historical rates and the current-price cache.
type Repository interface {
	GetCachedRate(ctx context.Context, symbol, currency string) (domain.CachedRate, error)
	// StoreCurrentRate upserts the cache entry and appends the matching historical rate atomically.
	StoreCurrentRate(ctx context.Context, entry domain.CachedRate) error
	// EvictCachedRate deletes the cache entry only if it still carries the given update time.
	EvictCachedRate(ctx context.Context, symbol, currency string, updatedAt time.Time) error
	DeleteCachedRate(ctx context.Context, symbol, currency string) error
	ClearCache(ctx context.Context) (int64, error)

	SaveRate(ctx context.Context, r domain.Rate) error
	// LatestRateBefore returns the rate with the greatest timestamp strictly before `before`.
	LatestRateBefore(ctx context.Context, symbol, currency string, before time.Time) (domain.Rate, error)
	// ListRates returns rates most recent first; limit <= 0 returns all.
	ListRates(ctx context.Context, symbol, currency string, limit int) ([]domain.Rate, error)
	// ListRatesBetween returns rates with from <= timestamp < to, oldest first.
	ListRatesBetween(ctx context.Context, symbol, currency string, from, to time.Time) ([]domain.Rate, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL rate repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) GetCachedRate(ctx context.Context, symbol, currency string) (domain.CachedRate, error) {
	var c domain.CachedRate
	err := r.pool.QueryRow(ctx,
		`SELECT symbol, currency, price, source, updated_at
		 FROM rate_cache WHERE symbol = $1 AND currency = $2`,
		symbol, currency).Scan(&c.Symbol, &c.Currency, &c.Price, &c.Source, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CachedRate{}, ErrNotFound
		}
		return domain.CachedRate{}, fmt.Errorf("getting cached rate for %s/%s: %w", symbol, currency, err)
	}
	return c, nil
}

func (r *PgRepository) StoreCurrentRate(ctx context.Context, entry domain.CachedRate) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO rate_cache (symbol, currency, price, source, updated_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (symbol, currency)
			 DO UPDATE SET price = $3, source = $4, updated_at = $5`,
			entry.Symbol, entry.Currency, entry.Price, entry.Source, entry.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upserting cached rate for %s/%s: %w", entry.Symbol, entry.Currency, err)
		}
		if err := saveRate(ctx, tx, entry.Rate()); err != nil {
			return err
		}
		return nil
	})
}

func (r *PgRepository) EvictCachedRate(ctx context.Context, symbol, currency string, updatedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM rate_cache WHERE symbol = $1 AND currency = $2 AND updated_at = $3`,
		symbol, currency, updatedAt)
	if err != nil {
		return fmt.Errorf("evicting cached rate for %s/%s: %w", symbol, currency, err)
	}
	return nil
}

func (r *PgRepository) DeleteCachedRate(ctx context.Context, symbol, currency string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM rate_cache WHERE symbol = $1 AND currency = $2`, symbol, currency)
	if err != nil {
		return fmt.Errorf("deleting cached rate for %s/%s: %w", symbol, currency, err)
	}
	return nil
}

func (r *PgRepository) ClearCache(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rate_cache`)
	if err != nil {
		return 0, fmt.Errorf("clearing rate cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) SaveRate(ctx context.Context, rt domain.Rate) error {
	return saveRate(ctx, r.pool, rt)
}

func (r *PgRepository) LatestRateBefore(ctx context.Context, symbol, currency string, before time.Time) (domain.Rate, error) {
	var rt domain.Rate
	err := r.pool.QueryRow(ctx,
		`SELECT symbol, currency, price, rate_timestamp, source
		 FROM historical_rates
		 WHERE symbol = $1 AND currency = $2 AND rate_timestamp < $3
		 ORDER BY rate_timestamp DESC
		 LIMIT 1`,
		symbol, currency, before).Scan(&rt.Symbol, &rt.Currency, &rt.Price, &rt.Timestamp, &rt.Source)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rate{}, ErrNotFound
		}
		return domain.Rate{}, fmt.Errorf("getting rate for %s/%s before %s: %w", symbol, currency, before.Format(time.RFC3339), err)
	}
	return rt, nil
}

func (r *PgRepository) ListRates(ctx context.Context, symbol, currency string, limit int) ([]domain.Rate, error) {
	query := `SELECT symbol, currency, price, rate_timestamp, source
		 FROM historical_rates
		 WHERE symbol = $1 AND currency = $2
		 ORDER BY rate_timestamp DESC`
	args := []any{symbol, currency}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rates for %s/%s: %w", symbol, currency, err)
	}
	return collectRates(rows)
}

func (r *PgRepository) ListRatesBetween(ctx context.Context, symbol, currency string, from, to time.Time) ([]domain.Rate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT symbol, currency, price, rate_timestamp, source
		 FROM historical_rates
		 WHERE symbol = $1 AND currency = $2 AND rate_timestamp >= $3 AND rate_timestamp < $4
		 ORDER BY rate_timestamp ASC`,
		symbol, currency, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing rates for %s/%s in range: %w", symbol, currency, err)
	}
	return collectRates(rows)
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func saveRate(ctx context.Context, db execer, rt domain.Rate) error {
	_, err := db.Exec(ctx,
		`INSERT INTO historical_rates (symbol, currency, price, rate_timestamp, source)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (symbol, currency, rate_timestamp)
		 DO UPDATE SET price = $3, source = $5`,
		rt.Symbol, rt.Currency, rt.Price, rt.Timestamp, rt.Source)
	if err != nil {
		return fmt.Errorf("saving rate for %s/%s at %s: %w", rt.Symbol, rt.Currency, rt.Timestamp.Format(time.RFC3339), err)
	}
	return nil
}

func collectRates(rows pgx.Rows) ([]domain.Rate, error) {
	defer rows.Close()

	var rates []domain.Rate
	for rows.Next() {
		var rt domain.Rate
		if err := rows.Scan(&rt.Symbol, &rt.Currency, &rt.Price, &rt.Timestamp, &rt.Source); err != nil {
			return nil, fmt.Errorf("scanning rate: %w", err)
		}
		rates = append(rates, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rates: %w", err)
	}
	return rates, nil
}
