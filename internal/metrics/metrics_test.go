package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/app.js", "/app.js"},
		{"/api/v1/speed", "/api/v1/speed"},
		{"/api/v1/layers/static", "/api/v1/layers/static"},
		{"/api/v1/sessions", "/api/v1/sessions"},

		// Session routes collapse the ID.
		{"/api/v1/sessions/3f1c", "/api/v1/sessions/{id}"},
		{"/api/v1/sessions/3f1c/frame", "/api/v1/sessions/{id}/frame"},
		{"/api/v1/sessions/abcd/click", "/api/v1/sessions/{id}/click"},
		{"/api/v1/sessions/abcd/panel/toggle", "/api/v1/sessions/{id}/panel/toggle"},
		{"/api/v1/sessions/abcd/view", "/api/v1/sessions/{id}/view"},
		{"/api/v1/sessions/abcd/stream", "/api/v1/sessions/{id}/stream"},

		// Unknown/bot paths collapse to "other".
		{"/api/v1/sessions/", "other"},
		{"/api/v1/sessions//click", "other"},
		{"/api/v1/sessions/abcd/delete-everything", "other"},
		{"/wp-admin", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := NormalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("NormalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that 100 session IDs produce exactly one
// distinct path label.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		seen[NormalizeRoute("/api/v1/sessions/"+id+"/click")] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for session paths, got %d: %v", len(seen), seen)
	}
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMiddleware_CountsRequests(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	c := httpRequestsTotal.WithLabelValues("/api/v1/sessions/{id}/click", "POST", "418")
	before := counterValue(t, c)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/v1/sessions/xyz/click", nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := counterValue(t, c) - before; got != 3 {
		t.Errorf("counter delta = %v, want 3", got)
	}
}

func TestIncClicks(t *testing.T) {
	c := clicksTotal.WithLabelValues("ignored")
	before := counterValue(t, c)
	IncClicks("ignored")
	if got := counterValue(t, c) - before; got != 1 {
		t.Errorf("clicks delta = %v, want 1", got)
	}
}
