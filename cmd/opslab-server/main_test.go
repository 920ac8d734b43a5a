package main

import (
	"flag"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/opslab-go/internal/server/config"
	"github.com/yndnr/opslab-go/internal/telemetry/logger"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("", nil)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Server.HTTP.Addr != config.DefaultHTTPAddr {
		t.Errorf("Addr = %q, want %q", cfg.Server.HTTP.Addr, config.DefaultHTTPAddr)
	}
	if cfg.Metrics.Path != config.DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, config.DefaultMetricsPath)
	}
}

func TestLoadConfig_Layers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opslab.yaml")
	content := `
server:
  http:
    addr: "127.0.0.1:6000"
metrics:
  path: /internal/metrics
  latency_buckets: [0.1, 1, 10]
simulation:
  load_min: 100ms
  load_max: 200ms
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPSLAB_LOG_LEVEL", "debug")

	cfg, err := loadConfig(path, map[string]any{"server.http.addr": "127.0.0.1:7000"})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "127.0.0.1:7000" {
		t.Errorf("Addr = %q, flag should win", cfg.Server.HTTP.Addr)
	}
	if cfg.Metrics.Path != "/internal/metrics" {
		t.Errorf("Metrics.Path = %q", cfg.Metrics.Path)
	}
	if len(cfg.Metrics.LatencyBuckets) != 3 {
		t.Errorf("LatencyBuckets = %v", cfg.Metrics.LatencyBuckets)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, env should win over default", cfg.Log.Level)
	}
	if cfg.Log.Format != config.DefaultLogFormat {
		t.Errorf("Log.Format = %q, default should survive", cfg.Log.Format)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opslab.yaml")
	if err := os.WriteFile(path, []byte("simulation:\n  load_min: 2s\n  load_max: 1s\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path, nil); err == nil {
		t.Error("loadConfig() expected error for inverted load range")
	}
}

func TestInitMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.RuntimeCollectors = true

	registry, app, err := initMetrics(cfg)
	if err != nil {
		t.Fatalf("initMetrics() error = %v", err)
	}
	if app == nil {
		t.Fatal("initMetrics() returned nil AppMetrics")
	}
	if !slices.Contains(registry.Names(), "app_build_info") {
		t.Error("app_build_info not registered")
	}
}

func TestReloadLogLevel(t *testing.T) {
	t.Cleanup(func() { logger.SetLevel("info") })

	path := filepath.Join(t.TempDir(), "opslab.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := reloadLogLevel(path, nil); err != nil {
		t.Fatalf("reloadLogLevel() error = %v", err)
	}
	if got := logger.GetLevel(); got != "warn" {
		t.Errorf("GetLevel() = %q, want warn", got)
	}
}

func TestOverrides(t *testing.T) {
	app := newApp()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		if err := f.Apply(set); err != nil {
			t.Fatal(err)
		}
	}
	if err := set.Parse([]string{"--addr", ":9999"}); err != nil {
		t.Fatal(err)
	}

	got := overrides(cli.NewContext(app, set, nil))
	if len(got) != 1 || got["server.http.addr"] != ":9999" {
		t.Errorf("overrides() = %v, want only server.http.addr", got)
	}
}
