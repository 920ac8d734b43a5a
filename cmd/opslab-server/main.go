package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/opslab-go/internal/core/domain"
	"github.com/yndnr/opslab-go/internal/core/service"
	"github.com/yndnr/opslab-go/internal/infra/buildinfo"
	"github.com/yndnr/opslab-go/internal/infra/confloader"
	"github.com/yndnr/opslab-go/internal/infra/shutdown"
	"github.com/yndnr/opslab-go/internal/infra/tlsroots"
	"github.com/yndnr/opslab-go/internal/server/config"
	"github.com/yndnr/opslab-go/internal/server/httpserver"
	"github.com/yndnr/opslab-go/internal/server/httpserver/handler"
	"github.com/yndnr/opslab-go/internal/sysstat"
	"github.com/yndnr/opslab-go/internal/telemetry/logger"
	"github.com/yndnr/opslab-go/internal/telemetry/metric"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "opslab-server",
		Usage:   "Demo service exposing health, load simulation and Prometheus metrics",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"OPSLAB_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.http.addr)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (overrides log.level)",
			},
			&cli.StringFlag{
				Name:  "metrics-path",
				Usage: "Exposition route (overrides metrics.path)",
			},
		},
		Action: run,
	}
}

// overrides maps the flags that were set on the command line to their
// configuration keys.
func overrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	for flag, key := range map[string]string{
		"addr":         "server.http.addr",
		"log-level":    "log.level",
		"metrics-path": "metrics.path",
	} {
		if c.IsSet(flag) {
			m[key] = c.String(flag)
		}
	}
	return m
}

// loadConfig loads configuration from defaults, file, environment and flags.
func loadConfig(configFile string, flags map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	loader := confloader.NewLoader(
		confloader.WithDefaults(config.Default()),
		confloader.WithConfigFile(configFile),
		confloader.WithOverrides(flags),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// initMetrics builds the registry and the application instruments.
func initMetrics(cfg *config.ServerConfig) (*metric.Registry, *metric.AppMetrics, error) {
	var opts []metric.Option
	if cfg.Metrics.RuntimeCollectors {
		opts = append(opts, metric.WithRuntimeCollectors())
	}
	registry := metric.NewRegistry(opts...)

	app, err := metric.NewAppMetrics(registry, cfg.Metrics.LatencyBuckets)
	if err != nil {
		return nil, nil, fmt.Errorf("register metrics: %w", err)
	}

	info := buildinfo.Get()
	if err := app.SetBuildInfo(info.Version, info.Commit, info.GoVersion); err != nil {
		return nil, nil, err
	}
	return registry, app, nil
}

func run(c *cli.Context) error {
	configFile := c.String("config")
	flags := overrides(c)

	cfg, err := loadConfig(configFile, flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting opslab-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	registry, appMetrics, err := initMetrics(cfg)
	if err != nil {
		return err
	}
	log.Debug("metrics registered", "names", registry.Names())

	stats, err := sysstat.NewProcSource(cfg.System.ProcfsPath)
	if err != nil {
		return fmt.Errorf("init system stats: %w", err)
	}

	sim, err := service.NewSimulator(service.Config{
		LoadMin:           cfg.Simulation.LoadMin,
		LoadMax:           cfg.Simulation.LoadMax,
		HealthCPUInterval: cfg.Health.CPUSampleInterval,
	}, stats, appMetrics, service.WithLogger(log.With("component", "simulator")))
	if err != nil {
		return fmt.Errorf("init simulator: %w", err)
	}
	sim.SeedActiveUsers()

	h := handler.New(handler.Config{
		MetricsPath:        cfg.Metrics.Path,
		MetricsCPUInterval: cfg.Metrics.CPUSampleInterval,
		Links: handler.Links{
			Prometheus:   cfg.Links.Prometheus,
			Grafana:      cfg.Links.Grafana,
			CAdvisor:     cfg.Links.CAdvisor,
			NodeExporter: cfg.Links.NodeExporter,
		},
	}, sim, registry, appMetrics, log.With("component", "handler"))

	router, err := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:          h,
		Metrics:          appMetrics,
		Logger:           log.With("component", "http"),
		MetricsAuthToken: cfg.Metrics.AuthToken,
		RateLimit:        cfg.Server.RateLimit,
		RateBurst:        cfg.Server.RateBurst,
		PanicErrorKind:   domain.ErrorKind(cfg.Metrics.PanicErrorKind),
		AccessLog:        cfg.Log.AccessLog,
	})
	if err != nil {
		return fmt.Errorf("init router: %w", err)
	}

	serverCfg := httpserver.Config{
		Addr:              cfg.Server.HTTP.Addr,
		ReadHeaderTimeout: cfg.Server.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:       cfg.Server.HTTP.IdleTimeout,
	}
	var keypair *tlsroots.Keypair
	if cfg.Server.HTTP.TLSEnabled() {
		keypair, err = tlsroots.NewKeypair(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		if err != nil {
			return err
		}
		serverCfg.TLSConfig = keypair.ServerConfig()
	}
	srv := httpserver.New(serverCfg, router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sd := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, log)

	for _, w := range startWatchers(ctx, log, configFile, flags, keypair) {
		sd.OnShutdown("watcher "+w.Path(), func(context.Context) error {
			return w.Stop()
		})
	}

	sd.OnShutdown("http server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return srv.Shutdown(ctx)
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr, "tls", srv.TLS(), "metrics_path", cfg.Metrics.Path)
		err := srv.ListenAndServe()
		if err != nil {
			log.Error("HTTP server error", "error", err)
			sd.Trigger()
		}
		serveErr <- err
	}()

	if err := sd.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	if err := <-serveErr; err != nil {
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// startWatchers watches the configuration file (re-applying log.level on
// change) and the TLS files (reloading the keypair). Failures to watch are
// logged and otherwise ignored.
func startWatchers(ctx context.Context, log logger.Logger, configFile string, flags map[string]any, keypair *tlsroots.Keypair) []*confloader.Watcher {
	var watchers []*confloader.Watcher

	watch := func(path string, onChange func()) {
		w, err := confloader.NewWatcher(path, confloader.WithWatcherLogger(log.With("component", "watcher")))
		if err != nil {
			log.Warn("cannot watch file", "path", path, "error", err)
			return
		}
		w.OnChange(func(string) { onChange() })
		go w.Run(ctx)
		watchers = append(watchers, w)
	}

	if configFile != "" {
		watch(configFile, func() {
			if err := reloadLogLevel(configFile, flags); err != nil {
				log.Error("configuration reload failed", "error", err)
				return
			}
			log.Info("configuration reloaded", "log_level", logger.GetLevel())
		})
	}

	if keypair != nil {
		certFile, keyFile := keypair.Files()
		reload := func() {
			if err := keypair.Reload(); err != nil {
				log.Error("certificate reload failed", "error", err)
				return
			}
			log.Info("certificate reloaded", "cert_file", certFile)
		}
		watch(certFile, reload)
		if keyFile != certFile {
			watch(keyFile, reload)
		}
	}

	return watchers
}

// reloadLogLevel re-reads the configuration and applies its log level.
// Other settings take effect on restart.
func reloadLogLevel(configFile string, flags map[string]any) error {
	cfg, err := loadConfig(configFile, flags)
	if err != nil {
		return err
	}
	return logger.SetLevel(cfg.Log.Level)
}
