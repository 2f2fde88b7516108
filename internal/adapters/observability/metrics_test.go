package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pension_site/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	observability.ObserveHTTP("/sites/{propertyID}/{page}.html", "GET", 200, 12*time.Millisecond)
	observability.ObserveRender("room", "redirect", 3*time.Millisecond)
	observability.ObserveCache("redis", "hit")

	rr := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"pension_http_requests_total",
		`pension_page_renders_total{outcome="redirect",page="room"}`,
		`pension_cache_events_total{cache="redis",event="hit"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}

func TestNewLogger_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.log")
	l := observability.NewLogger(observability.LogOptions{Env: "prod", Level: "warn", File: path})

	l.Info().Msg("dropped")
	l.Warn().Str("page", "index").Msg("kept")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(b)
	if strings.Contains(out, "dropped") || !strings.Contains(out, `"page":"index"`) {
		t.Fatalf("unexpected log file content: %s", out)
	}
}
