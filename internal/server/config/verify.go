package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"slices"
	"strings"

	"github.com/yndnr/opslab-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	if cfg.Health.CPUSampleInterval < 0 {
		return errors.New("health.cpu_sample_interval must not be negative")
	}
	return verifySimulation(&cfg.Simulation)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err)
	}

	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, path := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("tls file: %w", err)
		}
	}

	if cfg.HTTP.ShutdownTimeout <= 0 {
		return errors.New("server.http.shutdown_timeout must be positive")
	}
	if cfg.RateLimit < 0 || math.IsNaN(cfg.RateLimit) || math.IsInf(cfg.RateLimit, 0) {
		return errors.New("server.rate_limit must be a finite, non-negative number")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		return errors.New("server.rate_burst must be at least 1 when rate limiting is enabled")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q: must be json or text", cfg.Format)
	}
	return nil
}

// builtinPaths are the fixed routes served next to the metrics endpoint.
var builtinPaths = []string{"/health", "/ready", "/simulate-load", "/simulate-error", "/user-activity"}

func verifyMetrics(cfg *MetricsSection) error {
	if !strings.HasPrefix(cfg.Path, "/") || cfg.Path == "/" {
		return fmt.Errorf("metrics.path %q: must be an absolute path other than /", cfg.Path)
	}
	if strings.ContainsAny(cfg.Path, "{} ") {
		return fmt.Errorf("metrics.path %q: must not contain wildcards or spaces", cfg.Path)
	}
	if slices.Contains(builtinPaths, cfg.Path) {
		return fmt.Errorf("metrics.path %q: collides with a built-in route", cfg.Path)
	}
	if cfg.PanicErrorKind == "" {
		return errors.New("metrics.panic_error_kind is required")
	}
	if cfg.CPUSampleInterval < 0 {
		return errors.New("metrics.cpu_sample_interval must not be negative")
	}
	for i, b := range cfg.LatencyBuckets {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return fmt.Errorf("metrics.latency_buckets[%d]: must be finite", i)
		}
		if i > 0 && b <= cfg.LatencyBuckets[i-1] {
			return fmt.Errorf("metrics.latency_buckets[%d]: must be strictly increasing", i)
		}
	}
	return nil
}

func verifySimulation(cfg *SimulationSection) error {
	if cfg.LoadMin <= 0 {
		return errors.New("simulation.load_min must be positive")
	}
	if cfg.LoadMax < cfg.LoadMin {
		return errors.New("simulation.load_max must not be less than load_min")
	}
	return nil
}
