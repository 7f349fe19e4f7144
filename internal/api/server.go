package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
)

// Valuer values snapshots and refreshes current prices.
type Valuer interface {
	ValueSnapshot(ctx context.Context, date *time.Time) (domain.ValuationReport, error)
	RefreshRates(ctx context.Context, symbols []string) []domain.RefreshResult
	RefreshHeld(ctx context.Context) ([]domain.RefreshResult, error)
}

// Allocator compares a valued portfolio with its targets.
type Allocator interface {
	Allocation(ctx context.Context, date *time.Time) (domain.AllocationReport, error)
	Rebalancing(ctx context.Context, date *time.Time, toleranceOverride *decimal.Decimal) (domain.RebalancingReport, error)
}

// TargetStore reads and replaces the allocation target set.
type TargetStore interface {
	List(ctx context.Context) ([]domain.AllocationTarget, error)
	Replace(ctx context.Context, targets []domain.AllocationTarget, allowInvalidSum bool) ([]domain.AllocationTarget, domain.TargetValidation, error)
}

// SnapshotStore records snapshots and the asset catalogue.
type SnapshotStore interface {
	List(ctx context.Context, limit int) ([]domain.Snapshot, error)
	Create(ctx context.Context, in domain.SnapshotInput) (domain.Snapshot, error)
	ListAssets(ctx context.Context) ([]domain.Asset, error)
	RegisterAsset(ctx context.Context, a domain.Asset) (domain.Asset, error)
}

// RateBook reads and records historical rates and manages the current-price cache.
type RateBook interface {
	HistoricalRatesForAsset(ctx context.Context, symbol, currency string, limit int) ([]domain.Rate, error)
	HistoricalRatesRange(ctx context.Context, symbol, currency string, start, end time.Time) ([]domain.Rate, error)
	SaveHistoricalRate(ctx context.Context, in domain.RateInput) error
	DeleteCachedRate(ctx context.Context, symbol, currency string) error
	ClearCache(ctx context.Context) error
}

// Services are the components served over HTTP.
type Services struct {
	Valuation  Valuer
	Allocation Allocator
	Targets    TargetStore
	Snapshots  SnapshotStore
	Rates      RateBook
}

// NewServer creates an HTTP server with all routes configured.
// Mutating routes require the admin API key when one is set.
func NewServer(port string, svc Services, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewMux(svc, adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers every route on a new ServeMux.
func NewMux(svc Services, adminAPIKey string) *http.ServeMux {
	h := NewHandler(svc)

	protect := func(fn http.HandlerFunc) http.Handler {
		if adminAPIKey == "" {
			return fn
		}
		return requireAuth(adminAPIKey, fn)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/valuation", h.GetValuation)
	mux.HandleFunc("GET /api/v1/valuation/{date}", h.GetValuation)
	mux.HandleFunc("GET /api/v1/allocation", h.GetAllocation)
	mux.HandleFunc("GET /api/v1/rebalance", h.GetRebalance)

	mux.HandleFunc("GET /api/v1/targets", h.ListTargets)
	mux.Handle("PUT /api/v1/targets", protect(h.ReplaceTargets))
	mux.HandleFunc("POST /api/v1/targets/remaining", h.RemainingTargets)

	mux.HandleFunc("GET /api/v1/snapshots", h.ListSnapshots)
	mux.Handle("POST /api/v1/snapshots", protect(h.CreateSnapshot))
	mux.HandleFunc("GET /api/v1/assets", h.ListAssets)
	mux.Handle("PUT /api/v1/assets/{symbol}", protect(h.PutAsset))

	mux.Handle("POST /api/v1/rates/refresh", protect(h.RefreshRates))
	mux.HandleFunc("GET /api/v1/rates/{symbol}", h.ListRates)
	mux.Handle("POST /api/v1/rates", protect(h.SaveRate))
	mux.Handle("DELETE /api/v1/rates/cache", protect(h.ClearRateCache))
	mux.Handle("DELETE /api/v1/rates/cache/{symbol}", protect(h.DeleteCachedRate))

	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
