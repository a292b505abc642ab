package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earthspin_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "earthspin_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "earthspin_sessions_active",
		Help: "Number of live viewer sessions.",
	})

	sessionsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "earthspin_sessions_evicted_total",
		Help: "Sessions removed after being idle past the TTL.",
	})

	clicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earthspin_globe_clicks_total",
			Help: "Globe clicks by outcome (selected, ignored).",
		},
		[]string{"outcome"},
	)

	animationTicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "earthspin_animation_ticks_total",
		Help: "Animation ticks that advanced a view longitude.",
	})

	layerAssembliesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "earthspin_layer_assemblies_total",
		Help: "Frames assembled for a renderer.",
	})

	markerRebuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "earthspin_marker_rebuilds_total",
		Help: "Highlighted-latitude rings regenerated after a selection change.",
	})

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earthspin_stream_connections_total",
			Help: "SSE connection events (connect, disconnect).",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "earthspin_streams_active",
		Help: "Open SSE streams.",
	})

	streamMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "earthspin_stream_messages_total",
		Help: "SSE data messages sent.",
	})

	streamBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "earthspin_stream_bytes_total",
		Help: "Bytes written to SSE streams.",
	})

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earthspin_stream_errors_total",
			Help: "SSE errors by type.",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		sessionsActive,
		sessionsEvicted,
		clicksTotal,
		animationTicksTotal,
		layerAssembliesTotal,
		markerRebuildsTotal,
		streamConnectionsTotal,
		streamsActive,
		streamMessagesTotal,
		streamBytesTotal,
		streamErrorsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetSessionsActive publishes the current registry size.
func SetSessionsActive(n int) {
	sessionsActive.Set(float64(n))
}

func AddSessionsEvicted(n int) {
	sessionsEvicted.Add(float64(n))
}

func IncClicks(outcome string) {
	clicksTotal.WithLabelValues(outcome).Inc()
}

func IncAnimationTicks() {
	animationTicksTotal.Inc()
}

func IncLayerAssemblies() {
	layerAssembliesTotal.Inc()
}

func IncMarkerRebuilds() {
	markerRebuildsTotal.Inc()
}

func IncStreamConnections(ev string) {
	streamConnectionsTotal.WithLabelValues(ev).Inc()
}

func IncStreamsActive() {
	streamsActive.Inc()
}

func DecStreamsActive() {
	streamsActive.Dec()
}

func IncStreamMessages() {
	streamMessagesTotal.Inc()
}

func AddStreamBytes(n int64) {
	streamBytesTotal.Add(float64(n))
}

func IncStreamErrors(kind string) {
	streamErrorsTotal.WithLabelValues(kind).Inc()
}

// knownRoutes are exact paths reported under their own label.
var knownRoutes = map[string]bool{
	"/":                     true,
	"/healthz":              true,
	"/readyz":               true,
	"/metrics":              true,
	"/app.js":               true,
	"/styles.css":           true,
	"/index.html":           true,
	"/api/v1/speed":         true,
	"/api/v1/layers/static": true,
	"/api/v1/sessions":      true,
}

// sessionActions are the sub-resources under /api/v1/sessions/{id}.
var sessionActions = map[string]bool{
	"frame":        true,
	"click":        true,
	"panel/toggle": true,
	"view":         true,
	"stream":       true,
}

// NormalizeRoute maps a request path to a bounded label so session IDs and
// scanner traffic do not explode label cardinality.
func NormalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	const prefix = "/api/v1/sessions/"
	if rest, ok := strings.CutPrefix(path, prefix); ok && rest != "" {
		id, action, hasAction := strings.Cut(rest, "/")
		if id == "" {
			return "other"
		}
		if !hasAction {
			return prefix + "{id}"
		}
		if sessionActions[action] {
			return prefix + "{id}/" + action
		}
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets SSE handlers flush through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := NormalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
