package metric

import (
	"strconv"
	"time"

	"github.com/yndnr/opslab-go/internal/core/domain"
)

// Application metric names.
const (
	NameRequestsTotal   = "app_requests_total"
	NameRequestDuration = "app_request_duration_seconds"
	NameActiveUsers     = "app_active_users"
	NameSystemCPU       = "app_system_cpu_percent"
	NameSystemMemory    = "app_system_memory_percent"
	NameErrorsTotal     = "app_errors_total"
	NameBuildInfo       = "app_build_info"
)

// AppMetrics holds the application instruments.
type AppMetrics struct {
	// Request metrics
	RequestsTotal   *Counter
	RequestDuration *Histogram

	// Business metrics
	ActiveUsers *Gauge
	ErrorsTotal *Counter

	// System metrics
	SystemCPU    *Gauge
	SystemMemory *Gauge

	BuildInfo *Gauge
}

// NewAppMetrics creates the application instruments and registers them in
// reg. latencyBuckets may be nil for the default buckets.
func NewAppMetrics(reg *Registry, latencyBuckets []float64) (*AppMetrics, error) {
	m := &AppMetrics{}
	var err error

	if m.RequestsTotal, err = NewCounter(NameRequestsTotal, "Total number of requests",
		"method", "endpoint", "status_code"); err != nil {
		return nil, err
	}
	if m.RequestDuration, err = NewHistogram(NameRequestDuration, "Request latency",
		latencyBuckets, "endpoint"); err != nil {
		return nil, err
	}
	if m.ActiveUsers, err = NewGauge(NameActiveUsers, "Number of active users"); err != nil {
		return nil, err
	}
	if m.SystemCPU, err = NewGauge(NameSystemCPU, "System CPU usage"); err != nil {
		return nil, err
	}
	if m.SystemMemory, err = NewGauge(NameSystemMemory, "System memory usage"); err != nil {
		return nil, err
	}
	if m.ErrorsTotal, err = NewCounter(NameErrorsTotal, "Total number of application errors",
		"error_type"); err != nil {
		return nil, err
	}
	if m.BuildInfo, err = NewGauge(NameBuildInfo, "Build information",
		"version", "commit", "go_version"); err != nil {
		return nil, err
	}

	for _, inst := range []Instrument{
		m.RequestsTotal, m.RequestDuration, m.ActiveUsers,
		m.SystemCPU, m.SystemMemory, m.ErrorsTotal, m.BuildInfo,
	} {
		if err := reg.Register(inst); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordRequest counts a completed request and observes its latency.
// Negative elapsed values are recorded as zero.
func (m *AppMetrics) RecordRequest(method, endpoint string, status int, elapsed time.Duration) error {
	if elapsed < 0 {
		elapsed = 0
	}
	if err := m.RequestsTotal.Inc(method, endpoint, strconv.Itoa(status)); err != nil {
		return err
	}
	return m.RequestDuration.Observe(elapsed.Seconds(), endpoint)
}

// RecordError increments app_errors_total for kind.
func (m *AppMetrics) RecordError(kind domain.ErrorKind) error {
	return m.ErrorsTotal.Inc(kind.String())
}

// SetActiveUsers sets the active users gauge.
func (m *AppMetrics) SetActiveUsers(n int) error {
	return m.ActiveUsers.Set(float64(n))
}

// SetSystemStats sets the CPU and memory gauges.
func (m *AppMetrics) SetSystemStats(cpuPercent, memoryPercent float64) error {
	if err := m.SystemCPU.Set(cpuPercent); err != nil {
		return err
	}
	return m.SystemMemory.Set(memoryPercent)
}

// SetBuildInfo publishes the running build as a constant 1 series.
func (m *AppMetrics) SetBuildInfo(version, commit, goVersion string) error {
	return m.BuildInfo.Set(1, version, commit, goVersion)
}
