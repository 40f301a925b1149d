package observability

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLER_RATIO", "4")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "api-key=abc, bad ,x=")
	cfg := TracingConfigFromEnv("queueflow-api", "test", "v1")
	if !cfg.Enabled || cfg.SampleRatio != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.Headers) != 1 || cfg.Headers["api-key"] != "abc" {
		t.Fatalf("headers: %v", cfg.Headers)
	}

	for in, want := range map[string]float64{"": 0.1, "nope": 0.1, "-1": 0, "0.25": 0.25} {
		if got := parseSampleRatio(in); got != want {
			t.Fatalf("parseSampleRatio(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	if shutdown := InitTracing(context.Background(), logger.Nop(), TracingConfig{}); shutdown != nil {
		t.Fatalf("expected nil shutdown when disabled")
	}
	ctx, span := StartSpan(context.Background(), "noop")
	span.End()
	if span.SpanContext().IsValid() || ctx == nil {
		t.Fatalf("expected a no-op span")
	}
}

func TestTicketMetrics(t *testing.T) {
	before := testutil.ToFloat64(TicketTransitionsTotal.WithLabelValues("bank", "not_served", "serving"))
	RecordTicketTransition("bank", "not_served", "serving")
	after := testutil.ToFloat64(TicketTransitionsTotal.WithLabelValues("bank", "not_served", "serving"))
	if after-before != 1 {
		t.Fatalf("transition counter delta: %v", after-before)
	}

	RecordHTTPRequest("GET", "", 200, 10*time.Millisecond)
	RecordTicketWait("hospital", 90_000)
	RecordTicketConflict("retried")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"queueflow_ticket_transitions_total", `route="unmatched"`, "queueflow_ticket_wait_seconds", "queueflow_ticket_conflicts_total"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %s", want)
		}
	}
}
