package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/star/earthspin/internal/api"
	"github.com/star/earthspin/internal/auth"
	"github.com/star/earthspin/internal/layers"
	"github.com/star/earthspin/internal/observability"
	"github.com/star/earthspin/internal/registry"
	"github.com/star/earthspin/internal/session"
	"github.com/star/earthspin/internal/stream"
	"github.com/star/earthspin/web"
)

func main() {
	os.Exit(run())
}

// run wires the server and blocks until a signal or a listen error. Every
// exit path returns through here so deferred shutdown always runs.
func run() int {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("EARTHSPIN_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		return 1
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), logger)
	if err != nil {
		logger.Error("tracing init failed", "error", err)
		return 1
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	static := layers.NewStatic(layers.StaticConfig{LandURL: os.Getenv("EARTHSPIN_LAND_URL")})
	logger.Info("static layers built", "layers", static.Len(), "bands", static.BandCount(), "land_url", static.LandURL())

	reg := registry.New(loadRegistryConfig(logger), static, logger)
	streamHandler := stream.NewHandler(reg, loadStreamConfig(logger), logger)

	srv := api.NewServer(addr, logger, authCfg, reg, streamHandler, web.Content)

	// Start session eviction. Cancelling regCtx closes every session.
	regCtx, stopRegistry := context.WithCancel(context.Background())
	regDone := make(chan struct{})
	go func() {
		reg.Start(regCtx)
		close(regDone)
	}()
	defer func() {
		stopRegistry()
		<-regDone
	}()

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	code := 0
	select {
	case <-ctx.Done():
		logger.Info("shutting down server...")
	case err := <-listenErr:
		logger.Error("server listen error", "error", err)
		code = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		code = 1
	}

	logger.Info("server stopped")
	return code
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("EARTHSPIN_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("EARTHSPIN_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("EARTHSPIN_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("EARTHSPIN_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadRegistryConfig(logger *slog.Logger) registry.Config {
	cfg := registry.Config{
		TTL:         900 * time.Second,
		MaxSessions: 1000,
		Session:     session.DefaultConfig(),
	}

	if v := os.Getenv("EARTHSPIN_TICK_INTERVAL_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EARTHSPIN_TICK_INTERVAL_MS value, using default", "value", v, "default", 16)
		} else {
			cfg.Session.TickInterval = time.Duration(n) * time.Millisecond
		}
	}

	if v := os.Getenv("EARTHSPIN_SESSION_TTL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EARTHSPIN_SESSION_TTL value, using default", "value", v, "default", 900)
		} else {
			cfg.TTL = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("EARTHSPIN_MAX_SESSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EARTHSPIN_MAX_SESSIONS value, using default", "value", v, "default", 1000)
		} else {
			cfg.MaxSessions = n
		}
	}

	logger.Info("session config",
		"tick_interval_ms", cfg.Session.TickInterval.Milliseconds(),
		"ttl_seconds", cfg.TTL.Seconds(),
		"max_sessions", cfg.MaxSessions,
	)

	return cfg
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: 10,
		KeepaliveInterval:  30 * time.Second,
	}

	if v := os.Getenv("EARTHSPIN_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EARTHSPIN_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", 10)
		} else {
			cfg.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("EARTHSPIN_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EARTHSPIN_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", 30)
		} else {
			cfg.KeepaliveInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("EARTHSPIN_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid EARTHSPIN_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = trust
		}
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
		"trust_proxy", cfg.TrustProxy,
	)

	return cfg
}
