package prometheus_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ufacm/checkin"
	"github.com/ufacm/checkin/checkintest"
	"github.com/ufacm/checkin/metrics/export/prometheus"
)

type fakeSource struct {
	snapshot checkin.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() checkin.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := prometheus.New(fakeSource{snapshot: checkin.MetricsSnapshot{
		Counters:   map[checkin.MetricID]uint64{},
		Histograms: map[checkin.MetricID][]uint64{},
	}})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
	var nilExp *prometheus.Exporter
	if nilExp.Render() != "" {
		t.Fatal("nil exporter must render nothing")
	}
}

func TestRenderCountersAndHistogram(t *testing.T) {
	exp := prometheus.New(fakeSource{
		snapshot: checkin.MetricsSnapshot{
			Counters: map[checkin.MetricID]uint64{
				checkin.MetricSignupSuccess: 7,
			},
			Histograms: map[checkin.MetricID][]uint64{
				checkin.MetricGetUserLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"# TYPE checkin_signup_success_total counter",
		"checkin_signup_success_total 7",
		"checkin_otp_issued_total 0",
		`checkin_get_user_latency_seconds_bucket{le="0.005"} 1`,
		`checkin_get_user_latency_seconds_bucket{le="+Inf"} 36`,
		"checkin_get_user_latency_seconds_count 36",
		"checkin_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderSkipsDisabledHistogram(t *testing.T) {
	exp := prometheus.New(fakeSource{snapshot: checkin.MetricsSnapshot{
		Counters: map[checkin.MetricID]uint64{checkin.MetricSignOut: 1},
	}})

	if out := exp.Render(); strings.Contains(out, "latency") {
		t.Fatalf("histogram must be absent when latency is off, got:\n%s", out)
	}
}

func TestHandlerServesEngineCounters(t *testing.T) {
	h := checkintest.New(t, checkintest.WithConfig(func(cfg *checkin.Config) {
		cfg.Metrics.Enabled = true
	}))
	if _, err := h.Engine.SignUp(context.Background(), "albert@ufl.edu", "swamp-pass", ""); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	rec := httptest.NewRecorder()
	prometheus.New(h.Engine).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "checkin_signup_success_total 1") || !strings.Contains(body, "checkin_otp_issued_total 1") {
		t.Fatalf("expected signup counters, got:\n%s", body)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := prometheus.New(fakeSource{snapshot: checkin.MetricsSnapshot{
		Counters: map[checkin.MetricID]uint64{
			checkin.MetricSignupSuccess:    1000,
			checkin.MetricOTPVerifyFailure: 40,
			checkin.MetricSessionCreated:   800,
		},
		Histograms: map[checkin.MetricID][]uint64{
			checkin.MetricGetUserLatency: {10, 20, 30, 40, 50, 60, 70, 80},
		},
	}})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
