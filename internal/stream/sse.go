// Package stream implements Server-Sent Events (SSE) streaming of session
// frames. Clients connect via GET /api/v1/sessions/{id}/stream and receive the
// dynamic layers (marker and UI overlays) and view state each time the session
// changes, at most once per frame interval.
//
// SSE message format:
//
//	data: {"type":"frame","frame":{"version":12,"view_state":{...},"layers":[...]},"snapshot":{...}}\n\n
//
// First message is always the session snapshot:
//
//	data: {"type":"snapshot","snapshot":{...},"static_layers":36}\n\n
//
// A {"type":"closed"} message is sent when the session is deleted or evicted.
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent timeout.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/star/earthspin/internal/httputil"
	"github.com/star/earthspin/internal/layers"
	"github.com/star/earthspin/internal/metrics"
	"github.com/star/earthspin/internal/registry"
	"github.com/star/earthspin/internal/session"
)

// Config holds streaming configuration loaded from environment variables.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	FrameInterval      time.Duration // Minimum spacing between frames (default: 50ms).
	TrustProxy         bool          // Honor X-Forwarded-For when limiting.
}

// Handler manages SSE streaming connections.
type Handler struct {
	registry *registry.Registry
	config   Config
	limiter  *streamLimiter
	logger   *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(reg *registry.Registry, config Config, logger *slog.Logger) *Handler {
	if config.FrameInterval <= 0 {
		config.FrameInterval = 50 * time.Millisecond
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		registry: reg,
		config:   config,
		limiter:  newStreamLimiter(config.MaxConcurrentPerIP),
		logger:   logger.With("component", "stream"),
	}
}

// HandleSession serves the SSE frame stream for one session.
// GET /api/v1/sessions/{id}/stream
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entry, err := h.registry.Get(id)
	if errors.Is(err, registry.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	// Rate limiting: enforce concurrent stream limit per IP.
	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, "too many concurrent streams")
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"session_id", id,
		"user_agent", r.Header.Get("User-Agent"),
	)

	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"session_id", id,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Clear the server's default WriteTimeout for this long-lived connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	ew := &eventWriter{w: w, flusher: flusher, rc: rc}
	defer func() {
		h.logger.Debug("stream totals", "session_id", id, "messages", ew.messages, "bytes", ew.bytes)
	}()

	// Jittered retry interval (3-7s) spreads reconnects after a restart.
	if err := ew.retry(3000 + rand.Intn(4000)); err != nil {
		metrics.IncStreamErrors("send_error")
		return
	}

	changes, unsubscribe := entry.Session.Subscribe()
	defer unsubscribe()
	// A connected stream keeps the session alive; keepalives refresh it.
	entry.Session.Touch()

	snap := entry.Session.Snapshot()
	if err := ew.send(snapshotMessage{
		Type:         "snapshot",
		Snapshot:     snap,
		StaticLayers: h.registry.Static().Len(),
	}); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (snapshot)", "remote_ip", ip, "error", err)
		return
	}
	if err := ew.send(buildFrameMessage(entry.Assembler, snap)); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
		return
	}
	lastVersion := snap.Version

	frameTicker := time.NewTicker(h.config.FrameInterval)
	defer frameTicker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	dirty := false

	for {
		select {
		case <-ctx.Done():
			return

		case <-changes:
			dirty = true

		case <-frameTicker.C:
			if !dirty {
				continue
			}
			dirty = false

			if entry.Session.Closed() {
				if err := ew.send(closedMessage{Type: "closed"}); err != nil {
					metrics.IncStreamErrors("send_error")
				}
				return
			}

			snap := entry.Session.Snapshot()
			if snap.Version == lastVersion {
				continue
			}
			if err := ew.send(buildFrameMessage(entry.Assembler, snap)); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}
			lastVersion = snap.Version
			entry.Session.Touch()
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			entry.Session.Touch()
			if err := ew.ping(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// buildFrameMessage assembles the dynamic layers for snap.
func buildFrameMessage(a *layers.Assembler, snap session.Snapshot) frameMessage {
	return frameMessage{
		Type:     "frame",
		Frame:    a.AssembleDynamic(snap),
		Snapshot: snap,
	}
}

// writeTimeout bounds each SSE write; a stalled client is dropped.
const writeTimeout = 30 * time.Second

// eventWriter frames SSE output for one connection and counts what it sent.
type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController

	messages int
	bytes    int64
}

// send writes v as one "data:" event.
func (ew *eventWriter) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	buf := make([]byte, 0, len(data)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, data...)
	buf = append(buf, "\n\n"...)
	if err := ew.put(buf); err != nil {
		return err
	}
	ew.messages++
	metrics.IncStreamMessages()
	return nil
}

// ping writes an empty comment so proxies keep the connection open.
func (ew *eventWriter) ping() error {
	return ew.put([]byte(":\n\n"))
}

// retry tells the browser how long to wait before reconnecting.
func (ew *eventWriter) retry(ms int) error {
	return ew.put([]byte("retry: " + strconv.Itoa(ms) + "\n\n"))
}

func (ew *eventWriter) put(p []byte) error {
	// Writers without deadline support report an error here; ignore it.
	_ = ew.rc.SetWriteDeadline(time.Now().Add(writeTimeout))
	n, err := ew.w.Write(p)
	ew.bytes += int64(n)
	metrics.AddStreamBytes(int64(n))
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	ew.flusher.Flush()
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// SSE message payload types.

type snapshotMessage struct {
	Type         string           `json:"type"`
	Snapshot     session.Snapshot `json:"snapshot"`
	StaticLayers int              `json:"static_layers"`
}

type frameMessage struct {
	Type     string           `json:"type"`
	Frame    layers.Frame     `json:"frame"`
	Snapshot session.Snapshot `json:"snapshot"`
}

type closedMessage struct {
	Type string `json:"type"`
}
