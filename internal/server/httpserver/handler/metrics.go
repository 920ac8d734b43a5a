package handler

import (
	"bytes"
	"net/http"

	"github.com/yndnr/opslab-go/internal/core/domain"
	"github.com/yndnr/opslab-go/internal/telemetry/logger"
	"github.com/yndnr/opslab-go/internal/telemetry/metric"
)

// metricsUnavailable is the body served when exposition fails.
const metricsUnavailable = "# Metrics unavailable\n"

// handleMetrics handles GET /metrics. The system gauges are refreshed
// first, then the whole registry is rendered into a buffer so a failure
// part way through never produces a truncated 200.
func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", metric.ContentType)

	var buf bytes.Buffer
	err := h.sim.RefreshSystemStats(r.Context(), h.cfg.MetricsCPUInterval)
	if err == nil {
		err = metric.Serialize(&buf, h.registry.Snapshot())
	}
	if err != nil {
		logger.L(r.Context()).Error("metrics exposition failed", "error", err)
		if rerr := h.metrics.RecordError(domain.KindMetricsError); rerr != nil {
			h.logger.Warn("metric update failed", "error", rerr)
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(metricsUnavailable))
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("metrics write aborted", "error", err)
	}
}
