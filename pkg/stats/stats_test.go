package stats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rgeron/next-hackaton/pkg/config"
)

func TestMetricsHandler(t *testing.T) {
	promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hackteam",
		Subsystem: "test",
		Name:      "hits_total",
	}).Inc()

	cfg := config.DefaultConfig()
	s, err := NewStatsServer(config.WithContext(context.TODO(), cfg))
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics => %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); !strings.Contains(body, "hackteam_test_hits_total 1") {
		t.Errorf("GET /metrics => missing hackteam_test_hits_total in %q", body)
	}
	if s.server.Addr != cfg.Stats.ListenAddr {
		t.Errorf("NewStatsServer() addr => %q, want %q", s.server.Addr, cfg.Stats.ListenAddr)
	}
}
