package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}
	if cfg.Server.HTTP.TLSEnabled() {
		t.Error("TLS should be disabled by default")
	}
	if cfg.Server.RateLimit != 0 {
		t.Errorf("RateLimit = %v, want 0 (disabled)", cfg.Server.RateLimit)
	}
	if cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, DefaultMetricsPath)
	}
	if cfg.Metrics.PanicErrorKind != DefaultPanicErrorKind {
		t.Errorf("Metrics.PanicErrorKind = %q, want %q", cfg.Metrics.PanicErrorKind, DefaultPanicErrorKind)
	}
	if cfg.Metrics.RuntimeCollectors {
		t.Error("runtime collectors should be off by default")
	}
	if cfg.Health.CPUSampleInterval != time.Second {
		t.Errorf("Health.CPUSampleInterval = %v, want 1s", cfg.Health.CPUSampleInterval)
	}
	if cfg.Simulation.LoadMin != 500*time.Millisecond || cfg.Simulation.LoadMax != 3*time.Second {
		t.Errorf("Simulation = %+v, want [500ms, 3s]", cfg.Simulation)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, DefaultLogFormat)
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) = %v", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Metrics.AuthToken = "scrape-token-1234567890"
	cfg.Metrics.LatencyBuckets = []float64{0.1, 1}

	sanitized := Sanitize(cfg)

	if cfg.Metrics.AuthToken != "scrape-token-1234567890" {
		t.Error("Original config should not be modified")
	}
	if sanitized.Metrics.AuthToken == cfg.Metrics.AuthToken {
		t.Error("Sanitized config should mask the auth token")
	}
	if len(sanitized.Metrics.AuthToken) != len(cfg.Metrics.AuthToken) {
		t.Errorf("Masked token length = %d, want %d", len(sanitized.Metrics.AuthToken), len(cfg.Metrics.AuthToken))
	}

	sanitized.Metrics.LatencyBuckets[0] = 42
	if cfg.Metrics.LatencyBuckets[0] != 0.1 {
		t.Error("Sanitize should not share the bucket slice")
	}
}

func TestSanitize_EmptyToken(t *testing.T) {
	sanitized := Sanitize(Default())
	if sanitized.Metrics.AuthToken != "" {
		t.Error("Empty token should remain empty")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a", "****"},
		{"abcd", "****"},
		{"abcde", "ab*de"},
		{"abcdef", "ab**ef"},
		{"1234567890", "12******90"},
	}

	for _, tt := range tests {
		result := maskSecret(tt.input)
		if result != tt.expected {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr bool
	}{
		{"defaults", func(*ServerConfig) {}, false},
		{"bad addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "localhost" }, true},
		{"port only", func(c *ServerConfig) { c.Server.HTTP.Addr = ":5000" }, false},
		{"cert without key", func(c *ServerConfig) { c.Server.HTTP.TLSCertFile = "/tmp/cert.pem" }, true},
		{"missing tls files", func(c *ServerConfig) {
			c.Server.HTTP.TLSCertFile = "/nonexistent/cert.pem"
			c.Server.HTTP.TLSKeyFile = "/nonexistent/key.pem"
		}, true},
		{"zero shutdown timeout", func(c *ServerConfig) { c.Server.HTTP.ShutdownTimeout = 0 }, true},
		{"negative rate", func(c *ServerConfig) { c.Server.RateLimit = -1 }, true},
		{"nan rate", func(c *ServerConfig) { c.Server.RateLimit = math.NaN() }, true},
		{"rate without burst", func(c *ServerConfig) {
			c.Server.RateLimit = 5
			c.Server.RateBurst = 0
		}, true},
		{"rate with burst", func(c *ServerConfig) { c.Server.RateLimit = 5 }, false},
		{"unknown level", func(c *ServerConfig) { c.Log.Level = "verbose" }, true},
		{"warning level", func(c *ServerConfig) { c.Log.Level = "WARNING" }, false},
		{"unknown format", func(c *ServerConfig) { c.Log.Format = "xml" }, true},
		{"text format", func(c *ServerConfig) { c.Log.Format = "text" }, false},
		{"relative metrics path", func(c *ServerConfig) { c.Metrics.Path = "metrics" }, true},
		{"root metrics path", func(c *ServerConfig) { c.Metrics.Path = "/" }, true},
		{"wildcard metrics path", func(c *ServerConfig) { c.Metrics.Path = "/m/{x}" }, true},
		{"custom metrics path", func(c *ServerConfig) { c.Metrics.Path = "/internal/metrics" }, false},
		{"metrics path on health route", func(c *ServerConfig) { c.Metrics.Path = "/health" }, true},
		{"metrics path on simulate route", func(c *ServerConfig) { c.Metrics.Path = "/simulate-load" }, true},
		{"metrics path under health", func(c *ServerConfig) { c.Metrics.Path = "/health/metrics" }, false},
		{"empty panic kind", func(c *ServerConfig) { c.Metrics.PanicErrorKind = "" }, true},
		{"negative metrics cpu interval", func(c *ServerConfig) { c.Metrics.CPUSampleInterval = -time.Second }, true},
		{"zero metrics cpu interval", func(c *ServerConfig) { c.Metrics.CPUSampleInterval = 0 }, false},
		{"unsorted buckets", func(c *ServerConfig) { c.Metrics.LatencyBuckets = []float64{1, 0.5} }, true},
		{"repeated bucket", func(c *ServerConfig) { c.Metrics.LatencyBuckets = []float64{1, 1} }, true},
		{"infinite bucket", func(c *ServerConfig) { c.Metrics.LatencyBuckets = []float64{1, math.Inf(1)} }, true},
		{"custom buckets", func(c *ServerConfig) { c.Metrics.LatencyBuckets = []float64{0.05, 0.5, 5} }, false},
		{"negative health interval", func(c *ServerConfig) { c.Health.CPUSampleInterval = -1 }, true},
		{"zero load min", func(c *ServerConfig) { c.Simulation.LoadMin = 0 }, true},
		{"inverted load range", func(c *ServerConfig) {
			c.Simulation.LoadMin = 2 * time.Second
			c.Simulation.LoadMax = time.Second
		}, true},
		{"fixed load", func(c *ServerConfig) {
			c.Simulation.LoadMin = time.Second
			c.Simulation.LoadMax = time.Second
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_TLSFilesPresent(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	for _, p := range []string{cert, key} {
		if err := os.WriteFile(p, []byte("placeholder"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	cfg := Default()
	cfg.Server.HTTP.TLSCertFile = cert
	cfg.Server.HTTP.TLSKeyFile = key

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
	if !cfg.Server.HTTP.TLSEnabled() {
		t.Error("TLSEnabled() should be true")
	}
}
