package api

import (
	"net/http"

	"github.com/mtlprog/networth/internal/domain"
)

type refreshRequest struct {
	Symbols []string `json:"symbols"`
}

// RefreshRates handles POST /api/v1/rates/refresh. Without symbols it refreshes every
// oracle-priced asset of the latest snapshot.
func (h *Handler) RefreshRates(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	if len(req.Symbols) > 0 {
		writeJSON(w, http.StatusOK, h.svc.Valuation.RefreshRates(r.Context(), req.Symbols))
		return
	}

	results, err := h.svc.Valuation.RefreshHeld(r.Context())
	if err != nil {
		writeServiceError(w, err, "refresh rates")
		return
	}
	if results == nil {
		results = []domain.RefreshResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// ListRates handles GET /api/v1/rates/{symbol}[?limit=&currency=&from=&to=].
// With from and to it returns the range oldest first, otherwise the latest rates first.
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	q := r.URL.Query()
	currency := q.Get("currency")

	var (
		rates []domain.Rate
		err   error
	)
	if from, to := q.Get("from"), q.Get("to"); from != "" || to != "" {
		start, perr := domain.ParseDate(from)
		if perr != nil {
			writeServiceError(w, perr, "list rates")
			return
		}
		end, perr := domain.ParseDate(to)
		if perr != nil {
			writeServiceError(w, perr, "list rates")
			return
		}
		rates, err = h.svc.Rates.HistoricalRatesRange(r.Context(), symbol, currency, start, end)
	} else {
		rates, err = h.svc.Rates.HistoricalRatesForAsset(r.Context(), symbol, currency, queryLimit(r, 30, 1000))
	}
	if err != nil {
		writeServiceError(w, err, "list rates")
		return
	}
	if rates == nil {
		rates = []domain.Rate{}
	}
	writeJSON(w, http.StatusOK, rates)
}

// SaveRate handles POST /api/v1/rates.
func (h *Handler) SaveRate(w http.ResponseWriter, r *http.Request) {
	var in domain.RateInput
	if !decodeBody(w, r, &in) {
		return
	}
	if err := h.svc.Rates.SaveHistoricalRate(r.Context(), in); err != nil {
		writeServiceError(w, err, "save rate")
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// DeleteCachedRate handles DELETE /api/v1/rates/cache/{symbol}[?currency=].
func (h *Handler) DeleteCachedRate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Rates.DeleteCachedRate(r.Context(), r.PathValue("symbol"), r.URL.Query().Get("currency")); err != nil {
		writeServiceError(w, err, "delete cached rate")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearRateCache handles DELETE /api/v1/rates/cache.
func (h *Handler) ClearRateCache(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Rates.ClearCache(r.Context()); err != nil {
		writeServiceError(w, err, "clear rate cache")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
