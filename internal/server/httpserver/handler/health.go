package handler

import (
	"net/http"

	"github.com/yndnr/opslab-go/internal/core/domain"
	"github.com/yndnr/opslab-go/internal/core/service"
	"github.com/yndnr/opslab-go/internal/telemetry/logger"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	report, err := h.sim.Health(r.Context())
	if err != nil {
		logger.L(r.Context()).Warn("health check failed", "error", err)
		if code := domain.GetErrorCode(err); code != "" {
			w.Header().Set("X-Error-Code", code)
		}
		h.writeJSON(w, http.StatusInternalServerError, UnhealthyResponse{
			Status: service.StatusUnhealthy,
			Error:  errorMessage(err),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    report.Status,
		Timestamp: unixSeconds(report.Timestamp),
		System: SystemStats{
			CPUPercent:    report.CPUPercent,
			MemoryPercent: report.MemoryPercent,
		},
		Warnings: report.Warnings,
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status:    "ready",
		Timestamp: unixSeconds(h.now()),
	})
}
