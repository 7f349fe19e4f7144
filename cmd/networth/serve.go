package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/networth/internal/api"
	"github.com/mtlprog/networth/internal/export"
	"github.com/mtlprog/networth/internal/worker"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP API and the background workers",
		Action: withApp(serve),
	}
}

func serve(c *cli.Context, a *app) error {
	ctx, stop := context.WithCancel(c.Context)
	defer stop()

	rateWorker := worker.NewRateWorker(a.valuation, a.cfg.RateWorkerInterval)
	go rateWorker.Run(ctx)

	var hook worker.AfterReportHook
	if a.cfg.GoogleSheetsID != "" && a.cfg.GoogleCredentials != "" {
		sheetsWriter, err := export.NewSheetsWriter(ctx, a.cfg.GoogleSheetsID, a.cfg.GoogleCredentials)
		if err != nil {
			slog.Error("failed to create Google Sheets writer, export disabled", "error", err)
		} else {
			hook = export.NewService(sheetsWriter)
		}
	}
	reportWorker := worker.NewReportWorker(a.allocation, a.cfg.ReportWorkerInterval, hook)
	go reportWorker.Run(ctx)

	if a.cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, mutating endpoints are unprotected")
	}

	srv := api.NewServer(a.cfg.HTTPPort, api.Services{
		Valuation:  a.valuation,
		Allocation: a.allocation,
		Targets:    a.targets,
		Snapshots:  a.snapshots,
		Rates:      a.rates,
	}, a.cfg.AdminAPIKey)

	go func() {
		slog.Info("HTTP server listening", "port", a.cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
