package snapshot

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

var (
	// ErrNotFound indicates that the requested snapshot or asset was not found.
	ErrNotFound = errors.New("snapshot not found")
	// ErrDuplicateDate indicates that a snapshot already exists for the date.
	ErrDuplicateDate = errors.New("snapshot already exists for date")
)

const uniqueViolation = "23505"

// Repository defines persistent storage for snapshots, their holdings and liabilities, and assets.
type Repository interface {
	GetByDate(ctx context.Context, date time.Time) (domain.Snapshot, error)
	GetLatest(ctx context.Context) (domain.Snapshot, error)
	List(ctx context.Context, limit int) ([]domain.Snapshot, error)
	// Create stores the snapshot with its holdings and liabilities in one transaction.
	Create(ctx context.Context, snap domain.Snapshot, holdings []domain.Holding, liabilities []domain.LiabilityBalance) (domain.Snapshot, error)
	ListHoldings(ctx context.Context, snapshotID int) ([]domain.Holding, error)
	ListLiabilities(ctx context.Context, snapshotID int) ([]domain.LiabilityBalance, error)

	UpsertAsset(ctx context.Context, asset domain.Asset) error
	GetAsset(ctx context.Context, symbol string) (domain.Asset, error)
	ListAssets(ctx context.Context) ([]domain.Asset, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const snapshotColumns = `id, snapshot_date, notes, created_at`

func scanSnapshot(row pgx.Row) (domain.Snapshot, error) {
	var s domain.Snapshot
	err := row.Scan(&s.ID, &s.Date, &s.Notes, &s.CreatedAt)
	return s, err
}

func (r *PgRepository) GetByDate(ctx context.Context, date time.Time) (domain.Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE snapshot_date = $1`, domain.Day(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("getting snapshot by date: %w", err)
	}
	return s, nil
}

func (r *PgRepository) GetLatest(ctx context.Context) (domain.Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots ORDER BY snapshot_date DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("getting latest snapshot: %w", err)
	}
	return s, nil
}

func (r *PgRepository) List(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots ORDER BY snapshot_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *PgRepository) Create(ctx context.Context, snap domain.Snapshot, holdings []domain.Holding, liabilities []domain.LiabilityBalance) (domain.Snapshot, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO snapshots (snapshot_date, notes) VALUES ($1, $2)
			 RETURNING id, created_at`,
			domain.Day(snap.Date), snap.Notes).Scan(&snap.ID, &snap.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return ErrDuplicateDate
			}
			return fmt.Errorf("inserting snapshot: %w", err)
		}

		for _, h := range holdings {
			_, err := tx.Exec(ctx,
				`INSERT INTO holdings (snapshot_id, asset_symbol, amount, acquisition_price, acquisition_date, value_eur)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				snap.ID, h.Asset.Symbol, h.Amount, h.AcquisitionPrice, h.AcquisitionDate, h.StoredValue)
			if err != nil {
				return fmt.Errorf("inserting holding %s: %w", h.Asset.Symbol, err)
			}
		}

		for _, l := range liabilities {
			_, err := tx.Exec(ctx,
				`INSERT INTO liability_balances (snapshot_id, name, balance) VALUES ($1, $2, $3)`,
				snap.ID, l.Name, l.Balance)
			if err != nil {
				return fmt.Errorf("inserting liability %s: %w", l.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func (r *PgRepository) ListHoldings(ctx context.Context, snapshotID int) ([]domain.Holding, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT h.id, h.snapshot_id, h.amount, h.acquisition_price, h.acquisition_date, h.value_eur,
		        a.symbol, a.name, a.asset_class, a.valuation_source, a.external_id, a.currency
		 FROM holdings h
		 JOIN assets a ON a.symbol = h.asset_symbol
		 WHERE h.snapshot_id = $1
		 ORDER BY a.symbol`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.ID, &h.SnapshotID, &h.Amount, &h.AcquisitionPrice, &h.AcquisitionDate, &h.StoredValue,
			&h.Asset.Symbol, &h.Asset.Name, &h.Asset.Class, &h.Asset.ValuationSource, &h.Asset.ExternalID, &h.Asset.Currency); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holdings: %w", err)
	}
	return holdings, nil
}

func (r *PgRepository) ListLiabilities(ctx context.Context, snapshotID int) ([]domain.LiabilityBalance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, snapshot_id, name, balance FROM liability_balances
		 WHERE snapshot_id = $1 ORDER BY name`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("listing liabilities: %w", err)
	}
	defer rows.Close()

	var out []domain.LiabilityBalance
	for rows.Next() {
		var l domain.LiabilityBalance
		if err := rows.Scan(&l.ID, &l.SnapshotID, &l.Name, &l.Balance); err != nil {
			return nil, fmt.Errorf("scanning liability: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating liabilities: %w", err)
	}
	return out, nil
}

func (r *PgRepository) UpsertAsset(ctx context.Context, a domain.Asset) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO assets (symbol, name, asset_class, valuation_source, external_id, currency)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (symbol)
		 DO UPDATE SET name = $2, asset_class = $3, valuation_source = $4, external_id = $5, currency = $6`,
		a.Symbol, a.Name, a.Class, a.ValuationSource, a.ExternalID, a.Currency)
	if err != nil {
		return fmt.Errorf("upserting asset %s: %w", a.Symbol, err)
	}
	return nil
}

const assetColumns = `symbol, name, asset_class, valuation_source, external_id, currency`

func (r *PgRepository) GetAsset(ctx context.Context, symbol string) (domain.Asset, error) {
	var a domain.Asset
	err := r.pool.QueryRow(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE symbol = $1`, symbol).
		Scan(&a.Symbol, &a.Name, &a.Class, &a.ValuationSource, &a.ExternalID, &a.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Asset{}, ErrNotFound
		}
		return domain.Asset{}, fmt.Errorf("getting asset %s: %w", symbol, err)
	}
	return a, nil
}

func (r *PgRepository) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.Symbol, &a.Name, &a.Class, &a.ValuationSource, &a.ExternalID, &a.Currency); err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assets: %w", err)
	}
	return assets, nil
}
