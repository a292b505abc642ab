package main

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"
)

func TestRun_ListenErrorReturnsThroughShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	t.Setenv("EARTHSPIN_HTTP_ADDR", ln.Addr().String())

	done := make(chan int, 1)
	go func() { done <- run() }()

	select {
	case code := <-done:
		if code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after the listener failed")
	}
}

func TestRun_InvalidAuthConfig(t *testing.T) {
	t.Setenv("EARTHSPIN_AUTH_ENABLED", "maybe")
	if code := run(); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestLoadRegistryConfig_InvalidFallsBack(t *testing.T) {
	t.Setenv("EARTHSPIN_TICK_INTERVAL_MS", "0")
	t.Setenv("EARTHSPIN_SESSION_TTL", "abc")
	t.Setenv("EARTHSPIN_MAX_SESSIONS", "25")

	cfg := loadRegistryConfig(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if cfg.Session.TickInterval != 16*time.Millisecond {
		t.Errorf("tick = %v, want 16ms", cfg.Session.TickInterval)
	}
	if cfg.TTL != 900*time.Second {
		t.Errorf("ttl = %v, want 900s", cfg.TTL)
	}
	if cfg.MaxSessions != 25 {
		t.Errorf("max sessions = %d, want 25", cfg.MaxSessions)
	}
}
