package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
	"github.com/mtlprog/networth/internal/target"
)

// ListTargets handles GET /api/v1/targets.
func (h *Handler) ListTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.svc.Targets.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "list targets")
		return
	}
	if targets == nil {
		targets = []domain.AllocationTarget{}
	}
	writeJSON(w, http.StatusOK, targets)
}

type replaceTargetsResponse struct {
	Targets    []domain.AllocationTarget `json:"targets"`
	Validation domain.TargetValidation   `json:"validation"`
}

// ReplaceTargets handles PUT /api/v1/targets[?allowInvalidSum=true].
func (h *Handler) ReplaceTargets(w http.ResponseWriter, r *http.Request) {
	var targets []domain.AllocationTarget
	if !decodeBody(w, r, &targets) {
		return
	}
	allow := r.URL.Query().Get("allowInvalidSum") == "true"

	saved, validation, err := h.svc.Targets.Replace(r.Context(), targets, allow)
	if err != nil {
		writeServiceError(w, err, "replace targets")
		return
	}
	writeJSON(w, http.StatusOK, replaceTargetsResponse{Targets: saved, Validation: validation})
}

type remainingResponse struct {
	Sum       decimal.Decimal `json:"sum"`
	Remaining decimal.Decimal `json:"remaining"`
}

// RemainingTargets handles POST /api/v1/targets/remaining. It reports how much of 100% a partial
// target set leaves unassigned and stores nothing.
func (h *Handler) RemainingTargets(w http.ResponseWriter, r *http.Request) {
	var targets []domain.AllocationTarget
	if !decodeBody(w, r, &targets) {
		return
	}
	writeJSON(w, http.StatusOK, remainingResponse{
		Sum:       target.Sum(targets),
		Remaining: target.RemainingPercentage(targets),
	})
}

// ListSnapshots handles GET /api/v1/snapshots[?limit=].
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.svc.Snapshots.List(r.Context(), queryLimit(r, 30, 365))
	if err != nil {
		writeServiceError(w, err, "list snapshots")
		return
	}
	if snapshots == nil {
		snapshots = []domain.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// CreateSnapshot handles POST /api/v1/snapshots.
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var in domain.SnapshotInput
	if !decodeBody(w, r, &in) {
		return
	}

	snap, err := h.svc.Snapshots.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, "create snapshot")
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// ListAssets handles GET /api/v1/assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.svc.Snapshots.ListAssets(r.Context())
	if err != nil {
		writeServiceError(w, err, "list assets")
		return
	}
	if assets == nil {
		assets = []domain.Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

// PutAsset handles PUT /api/v1/assets/{symbol}.
func (h *Handler) PutAsset(w http.ResponseWriter, r *http.Request) {
	var a domain.Asset
	if !decodeBody(w, r, &a) {
		return
	}
	a.Symbol = r.PathValue("symbol")

	saved, err := h.svc.Snapshots.RegisterAsset(r.Context(), a)
	if err != nil {
		writeServiceError(w, err, "register asset")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
