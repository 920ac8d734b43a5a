package config

import "time"

// ServerConfig is the root configuration of opslab-server.
type ServerConfig struct {
	Server     ServerSection     `koanf:"server"`
	Log        LogSection        `koanf:"log"`
	Metrics    MetricsSection    `koanf:"metrics"`
	Health     HealthSection     `koanf:"health"`
	Simulation SimulationSection `koanf:"simulation"`
	Links      LinksSection      `koanf:"links"`
	System     SystemSection     `koanf:"system"`
}

// ServerSection configures the HTTP listener.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`

	// RateLimit is the sustained request rate allowed per client IP.
	// Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// HTTPConfig configures the HTTP(S) listener.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// TLSEnabled reports whether both TLS files are configured.
func (c HTTPConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// LogSection configures logging.
type LogSection struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	AccessLog bool   `koanf:"access_log"`
}

// MetricsSection configures the metrics registry and exposition endpoint.
type MetricsSection struct {
	Path              string        `koanf:"path"`
	RuntimeCollectors bool          `koanf:"runtime_collectors"`
	PanicErrorKind    string        `koanf:"panic_error_kind"`
	CPUSampleInterval time.Duration `koanf:"cpu_sample_interval"`
	AuthToken         string        `koanf:"auth_token"`
	LatencyBuckets    []float64     `koanf:"latency_buckets"`
}

// HealthSection configures the health endpoint.
type HealthSection struct {
	CPUSampleInterval time.Duration `koanf:"cpu_sample_interval"`
}

// SimulationSection bounds the synthetic load duration.
type SimulationSection struct {
	LoadMin time.Duration `koanf:"load_min"`
	LoadMax time.Duration `koanf:"load_max"`
}

// LinksSection holds the dashboard URLs shown on the home page.
type LinksSection struct {
	Prometheus   string `koanf:"prometheus"`
	Grafana      string `koanf:"grafana"`
	CAdvisor     string `koanf:"cadvisor"`
	NodeExporter string `koanf:"node_exporter"`
}

// SystemSection configures where host statistics are read from.
type SystemSection struct {
	// ProcfsPath is the procfs mount point. Empty means /proc.
	ProcfsPath string `koanf:"procfs_path"`
}
