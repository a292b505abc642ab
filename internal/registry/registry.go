// Package registry keeps the live viewer sessions of the HTTP surface. Each
// entry pairs a session with its frame assembler. A background worker closes
// and removes sessions that have been idle past the TTL.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/star/earthspin/internal/layers"
	"github.com/star/earthspin/internal/metrics"
	"github.com/star/earthspin/internal/session"
)

var (
	// ErrNotFound is returned for unknown or evicted session IDs.
	ErrNotFound = errors.New("session not found")
	// ErrFull is returned when MaxSessions sessions are already live.
	ErrFull = errors.New("too many sessions")
)

// Config holds registry configuration loaded from environment variables.
type Config struct {
	TTL           time.Duration // Idle time before eviction (default: 15m).
	MaxSessions   int           // Live session cap (default: 1000).
	SweepInterval time.Duration // How often idle sessions are collected (default: 30s).
	Session       session.Config
}

// Entry is a live session and the assembler that renders it.
type Entry struct {
	Session   *session.Session
	Assembler *layers.Assembler
	CreatedAt time.Time
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	config Config
	static *layers.Static
	logger *slog.Logger
	now    func() time.Time
}

// New creates an empty registry. All sessions share static.
func New(config Config, static *layers.Static, logger *slog.Logger) *Registry {
	if config.SweepInterval <= 0 {
		config.SweepInterval = 30 * time.Second
	}
	logger = logger.With("component", "registry")
	logger.Info("registry initialized",
		"ttl_seconds", config.TTL.Seconds(),
		"max_sessions", config.MaxSessions,
		"tick_interval_ms", config.Session.TickInterval.Milliseconds(),
	)
	return &Registry{
		entries: make(map[string]*Entry),
		config:  config,
		static:  static,
		logger:  logger,
		now:     time.Now,
	}
}

// Static returns the shared static layers.
func (r *Registry) Static() *layers.Static {
	return r.static
}

// Create starts a new Idle session with its own lighting effects.
func (r *Registry) Create() (*Entry, error) {
	r.mu.Lock()
	if r.config.MaxSessions > 0 && len(r.entries) >= r.config.MaxSessions {
		r.mu.Unlock()
		return nil, ErrFull
	}

	id := uuid.NewString()
	now := r.now()
	e := &Entry{
		Session:   session.New(id, r.config.Session, r.logger),
		Assembler: layers.NewAssembler(r.static, layers.DefaultLighting(now)),
		CreatedAt: now,
	}
	r.entries[id] = e
	count := len(r.entries)
	r.mu.Unlock()

	metrics.SetSessionsActive(count)
	r.logger.Info("session created", "session_id", id, "active", count)
	return e, nil
}

// Get returns the entry for id.
func (r *Registry) Get(id string) (*Entry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Delete closes and removes the session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	count := len(r.entries)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	e.Session.Close()
	metrics.SetSessionsActive(count)
	r.logger.Info("session deleted", "session_id", id, "active", count)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Start runs the eviction loop until ctx is cancelled, then closes every
// remaining session.
func (r *Registry) Start(ctx context.Context) {
	ticker := time.NewTicker(r.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

// evictIdle removes sessions idle for longer than the TTL.
func (r *Registry) evictIdle() int {
	if r.config.TTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.config.TTL)

	var expired []*Entry
	r.mu.Lock()
	for id, e := range r.entries {
		if e.Session.LastActive().Before(cutoff) {
			expired = append(expired, e)
			delete(r.entries, id)
		}
	}
	count := len(r.entries)
	r.mu.Unlock()

	for _, e := range expired {
		e.Session.Close()
	}

	if len(expired) > 0 {
		metrics.AddSessionsEvicted(len(expired))
		metrics.SetSessionsActive(count)
		r.logger.Debug("session eviction", "sessions_removed", len(expired), "active", count)
	}
	return len(expired)
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	all := r.entries
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()

	for _, e := range all {
		e.Session.Close()
	}
	metrics.SetSessionsActive(0)
	r.logger.Info("registry stopped", "sessions_closed", len(all))
}
