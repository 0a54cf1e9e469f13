package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"meiras_yachting/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are exported
	observability.ObserveHTTP("/yachts", "GET", 200, 12*time.Millisecond)
	observability.ObserveContact("mail_sent")
	observability.ObserveStore("mongo", "list", errors.New("boom"), time.Millisecond)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"meiras_http_requests_total",
		`meiras_contact_submissions_total{outcome="mail_sent"}`,
		`meiras_store_operation_duration_seconds_count{backend="mongo",op="list",result="error"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}

func TestNewLogger_LevelFallback(t *testing.T) {
	l := observability.NewLogger("prod", "nonsense")
	if l.GetLevel().String() != "info" {
		t.Fatalf("level = %s, want info", l.GetLevel())
	}
	if observability.NewLogger("dev", "debug").GetLevel().String() != "debug" {
		t.Fatalf("expected debug level")
	}
}
