package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/simleague/standings/server/internal/api"
	"github.com/simleague/standings/server/internal/auth"
	"github.com/simleague/standings/server/internal/config"
	"github.com/simleague/standings/server/internal/ingest"
	"github.com/simleague/standings/server/internal/metrics"
	"github.com/simleague/standings/server/internal/notify"
	"github.com/simleague/standings/server/internal/results"
	"github.com/simleague/standings/server/internal/standings"
	"github.com/simleague/standings/server/internal/store"
	"github.com/simleague/standings/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file; empty uses built-in defaults")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("standings-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"database", cfg.Database.Driver,
		"upstream", cfg.Upstream.BaseURL,
		"upstream_timeout", cfg.Upstream.Timeout,
		"webhooks", len(cfg.Notify.Webhooks),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	openCtx, openCancel := context.WithTimeout(ctx, 15*time.Second)
	st, err := store.Open(openCtx, cfg.Database.Driver, cfg.Database.EffectiveDSN())
	openCancel()
	if err != nil {
		slog.Error("failed to open standings store", "driver", cfg.Database.Driver, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	guard := auth.NewGuard(cfg.Server.Admin.Password())
	if !guard.Configured() {
		slog.Warn("admin password not set; load endpoints will reject every request",
			"env", cfg.Server.Admin.PasswordEnv)
	}
	throttle := auth.NewThrottle(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)

	reg := metrics.New()
	if n, err := st.Count(ctx); err == nil {
		reg.SetStandingsRows(n)
	}

	// WebSocket hub: pushes the table on every interval and after each load.
	hub := ws.New(st, cfg.Server.WS.Interval)
	go hub.Run(ctx)

	notifier := notify.New(cfg.Notify)

	svc := ingest.New(guard,
		results.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout),
		standings.New(st),
		st,
		ingest.Options{Metrics: reg, Hub: hub, Notifier: notifier},
	)

	handler := api.New(svc, st, api.Options{
		AllowedOrigin: cfg.Server.CORS.AllowedOrigin,
		Throttle:      throttle,
		Database:      cfg.Database.Driver,
		Metrics:       reg,
		Stream:        hub,
	})

	// Secrets, rate limits and webhooks follow the config file; the listener,
	// database and upstream need a restart.
	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				guard.SetPassword(next.Server.Admin.Password())
				throttle.SetLimit(next.Server.RateLimit.RPS, next.Server.RateLimit.Burst)
				notifier.SetConfig(next.Notify)
				slog.Info("config reloaded",
					"password_set", guard.Configured(),
					"rate_limit_rps", next.Server.RateLimit.RPS,
					"webhooks", len(next.Notify.Webhooks),
				)
			})
			if err != nil {
				slog.Error("config watch stopped", "err", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("standings-server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	svc.Wait()
}
