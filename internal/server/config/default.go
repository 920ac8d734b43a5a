package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr          = "0.0.0.0:5000"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultShutdownTimeout   = 15 * time.Second
	DefaultRateBurst         = 20

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath       = "/metrics"
	DefaultPanicErrorKind    = "unhandled_exception"
	DefaultMetricsCPUSample  = 100 * time.Millisecond
	DefaultHealthCPUSample   = time.Second
	DefaultSimulationLoadMin = 500 * time.Millisecond
	DefaultSimulationLoadMax = 3 * time.Second

	DefaultPrometheusURL   = "http://localhost:9090"
	DefaultGrafanaURL      = "http://localhost:3000"
	DefaultCAdvisorURL     = "http://localhost:8080"
	DefaultNodeExporterURL = "http://localhost:9100"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:              DefaultHTTPAddr,
				ReadHeaderTimeout: DefaultReadHeaderTimeout,
				WriteTimeout:      DefaultWriteTimeout,
				IdleTimeout:       DefaultIdleTimeout,
				ShutdownTimeout:   DefaultShutdownTimeout,
			},
			RateBurst: DefaultRateBurst,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Path:              DefaultMetricsPath,
			PanicErrorKind:    DefaultPanicErrorKind,
			CPUSampleInterval: DefaultMetricsCPUSample,
		},
		Health: HealthSection{
			CPUSampleInterval: DefaultHealthCPUSample,
		},
		Simulation: SimulationSection{
			LoadMin: DefaultSimulationLoadMin,
			LoadMax: DefaultSimulationLoadMax,
		},
		Links: LinksSection{
			Prometheus:   DefaultPrometheusURL,
			Grafana:      DefaultGrafanaURL,
			CAdvisor:     DefaultCAdvisorURL,
			NodeExporter: DefaultNodeExporterURL,
		},
	}
}
