package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
)

const maxBodyBytes = 1 << 20

// Handler provides HTTP endpoints for valuation, allocation and rebalancing.
type Handler struct {
	svc Services
}

// NewHandler creates a new API handler.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// GetValuation handles GET /api/v1/valuation and GET /api/v1/valuation/{date}.
func (h *Handler) GetValuation(w http.ResponseWriter, r *http.Request) {
	var date *time.Time
	if s := r.PathValue("date"); s != "" {
		d, err := domain.ParseDate(s)
		if err != nil {
			writeServiceError(w, err, "valuation")
			return
		}
		date = &d
	}

	report, err := h.svc.Valuation.ValueSnapshot(r.Context(), date)
	if err != nil {
		writeServiceError(w, err, "valuation")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetAllocation handles GET /api/v1/allocation[?date=].
func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r)
	if err != nil {
		writeServiceError(w, err, "allocation")
		return
	}

	report, err := h.svc.Allocation.Allocation(r.Context(), date)
	if err != nil {
		writeServiceError(w, err, "allocation")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetRebalance handles GET /api/v1/rebalance[?date=&tolerance=].
func (h *Handler) GetRebalance(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r)
	if err != nil {
		writeServiceError(w, err, "rebalance")
		return
	}

	var tolerance *decimal.Decimal
	if s := r.URL.Query().Get("tolerance"); s != "" {
		t, err := decimal.NewFromString(s)
		if err != nil || t.IsNegative() {
			writeError(w, http.StatusBadRequest, "tolerance must be a non-negative number")
			return
		}
		tolerance = &t
	}

	report, err := h.svc.Allocation.Rebalancing(r.Context(), date, tolerance)
	if err != nil {
		writeServiceError(w, err, "rebalance")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func queryDate(r *http.Request) (*time.Time, error) {
	s := r.URL.Query().Get("date")
	if s == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func queryLimit(r *http.Request, def, maxLimit int) int {
	limit := def
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}
	return limit
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// writeServiceError maps an error kind to its HTTP status. Internal errors are logged and hidden.
func writeServiceError(w http.ResponseWriter, err error, op string) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindUpstream:
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "op", op, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
