package handler

import (
	"fmt"
	"net/http"

	"github.com/yndnr/opslab-go/internal/telemetry/logger"
)

// handleSimulateLoad handles GET /simulate-load.
func (h *Handler) handleSimulateLoad(w http.ResponseWriter, r *http.Request) {
	res, err := h.sim.SimulateLoad(r.Context())
	if err != nil {
		logger.L(r.Context()).Warn("load simulation failed", "error", err)
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, LoadResponse{
		Message:   "Load simulation completed",
		Duration:  fmt.Sprintf("%.2fs", res.Elapsed.Seconds()),
		Timestamp: unixSeconds(res.Timestamp),
	})
}

// handleSimulateError handles GET /simulate-error.
func (h *Handler) handleSimulateError(w http.ResponseWriter, r *http.Request) {
	value, err := h.sim.SimulateError(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, SuccessResponse{
		Message: "Success response",
		Value:   value,
	})
}

// handleUserActivity handles GET /user-activity.
func (h *Handler) handleUserActivity(w http.ResponseWriter, r *http.Request) {
	a := h.sim.UserActivity(r.Context())

	h.writeJSON(w, http.StatusOK, ActivityResponse{
		ActiveUsers: a.ActiveUsers,
		Hour:        a.Hour,
		Timestamp:   unixSeconds(a.Timestamp),
	})
}
