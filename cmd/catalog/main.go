package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ProductAPI/internal/catalog"
	"ProductAPI/internal/config"
	"ProductAPI/pkg/kit"
)

const service = "catalog"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openStore(context.Background(), cfg, log)
	if err != nil {
		log.Error("open store failed", zap.String("driver", cfg.StoreDriver), zap.Error(err))
		return err
	}
	defer closeStore()

	var limiter *kit.IPRateLimiter
	if cfg.WriteRateLimit > 0 {
		limiter = kit.NewIPRateLimiter(cfg.WriteRateLimit, cfg.WriteRateWindow)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &catalog.Server{Store: store, Log: log, WriteLimiter: limiter}
	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})

	log.Info("catalog configured",
		zap.String("driver", cfg.StoreDriver),
		zap.Bool("metrics", cfg.MetricsEnabled),
		zap.Int("write_rate_limit", cfg.WriteRateLimit),
	)

	err = kit.RunHTTPServer(kit.ServerConfig{
		Addr:            cfg.Addr(),
		ReadTimeout:     cfg.HTTPReadTimeout,
		WriteTimeout:    cfg.HTTPWriteTimeout,
		IdleTimeout:     cfg.HTTPIdleTimeout,
		ShutdownTimeout: cfg.HTTPShutdownTimeout,
	}, h, log)
	if err != nil {
		log.Error("http server stopped", zap.Error(err))
		return err
	}
	log.Info("http server stopped")
	return nil
}
