package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/networth/internal/allocation"
	"github.com/mtlprog/networth/internal/config"
	"github.com/mtlprog/networth/internal/database"
	"github.com/mtlprog/networth/internal/oracle"
	"github.com/mtlprog/networth/internal/rate"
	"github.com/mtlprog/networth/internal/snapshot"
	"github.com/mtlprog/networth/internal/target"
	"github.com/mtlprog/networth/internal/valuation"
)

// app holds the wired services shared by every command.
type app struct {
	cfg   config.Config
	pool  *pgxpool.Pool
	queue *oracle.Queue

	rates      *rate.Store
	snapshots  *snapshot.Service
	targets    *target.Service
	valuation  *valuation.Service
	allocation *allocation.Service
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	rates := rate.NewStore(rate.NewPgRepository(pool), cfg.RateCacheTTL, cfg.BaseCurrency)
	snapshotSvc := snapshot.NewService(snapshot.NewPgRepository(pool), cfg.BaseCurrency)
	targetSvc := target.NewService(target.NewPgRepository(pool))

	coingecko := oracle.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.CoinGeckoAPIKey, cfg.OracleTimeout, 0, cfg.CoinGeckoRetryMax)
	if ids, err := snapshotSvc.ExternalIDs(ctx); err != nil {
		slog.Warn("failed to load asset external IDs", "error", err)
	} else {
		coingecko.RegisterIDs(ids)
	}
	queue := oracle.NewQueue(cfg.OracleDelay)
	priceOracle := oracle.NewThrottled(coingecko, queue)

	valuationSvc := valuation.NewService(snapshotSvc, rates, priceOracle, cfg.BaseCurrency)

	return &app{
		cfg:        cfg,
		pool:       pool,
		queue:      queue,
		rates:      rates,
		snapshots:  snapshotSvc,
		targets:    targetSvc,
		valuation:  valuationSvc,
		allocation: allocation.NewService(targetSvc, valuationSvc, cfg.DefaultTolerance),
	}, nil
}

func (a *app) Close() {
	a.queue.Close()
	a.pool.Close()
}

// withApp wires the services before running fn and releases them afterwards.
func withApp(fn func(c *cli.Context, a *app) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		a, err := newApp(c.Context, config.Load())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(c, a)
	}
}
