package handlers

import (
	"encoding/json"
	"net/http"

	"payssd/internal/pkg/errors"
	"payssd/internal/workers"
)

// CronHandler exposes the scheduled jobs over HTTP so an external scheduler
// can drive them when no worker process runs.
type CronHandler struct {
	runner *workers.Runner
}

func NewCronHandler(runner *workers.Runner) *CronHandler {
	return &CronHandler{runner: runner}
}

func (h *CronHandler) ExpirePayments(w http.ResponseWriter, r *http.Request) {
	count, err := h.runner.RunExpiry()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Expiry sweep failed", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"expired": count})
}

func (h *CronHandler) GenerateRenewals(w http.ResponseWriter, r *http.Request) {
	run, err := h.runner.RunRenewals()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Renewal generation failed", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}
