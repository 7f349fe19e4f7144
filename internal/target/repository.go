package target

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/networth/internal/domain"
)

// Repository defines persistent storage for the allocation target set.
type Repository interface {
	ListAllocationTargets(ctx context.Context) ([]domain.AllocationTarget, error)
	// ReplaceAllocationTargets swaps the whole set in one transaction.
	ReplaceAllocationTargets(ctx context.Context, targets []domain.AllocationTarget) error
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL target repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) ListAllocationTargets(ctx context.Context) ([]domain.AllocationTarget, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, target_key, target_type, target_pct, tolerance_pct
		 FROM allocation_targets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing allocation targets: %w", err)
	}
	defer rows.Close()

	var targets []domain.AllocationTarget
	for rows.Next() {
		var t domain.AllocationTarget
		if err := rows.Scan(&t.ID, &t.Key, &t.Type, &t.TargetPct, &t.TolerancePct); err != nil {
			return nil, fmt.Errorf("scanning allocation target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating allocation targets: %w", err)
	}
	return targets, nil
}

func (r *PgRepository) ReplaceAllocationTargets(ctx context.Context, targets []domain.AllocationTarget) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM allocation_targets`); err != nil {
			return fmt.Errorf("clearing allocation targets: %w", err)
		}

		batch := &pgx.Batch{}
		for i, t := range targets {
			batch.Queue(
				`INSERT INTO allocation_targets (id, target_key, target_type, target_pct, tolerance_pct, position)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				t.ID, t.Key, t.Type, t.TargetPct, t.TolerancePct, i)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting allocation targets: %w", err)
		}
		return nil
	})
}
