package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("writing metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("writing metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.FramesTotal == nil || r.UpdatesTotal == nil || r.HTTPRequests == nil {
		t.Fatal("collectors not initialized")
	}
	if r.registry == nil {
		t.Error("prometheus registry not initialized")
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	a.FramesTotal.Inc()
	if got := counterValue(t, b.FramesTotal); got != 0 {
		t.Errorf("second registry frames = %v, want 0", got)
	}
}

func TestRecordFrame(t *testing.T) {
	r := NewRegistry()
	r.RecordFrame(2 * time.Millisecond)
	r.RecordFrame(3 * time.Millisecond)

	if got := counterValue(t, r.FramesTotal); got != 2 {
		t.Errorf("frames = %v, want 2", got)
	}
	var m dto.Metric
	if err := r.FrameDuration.Write(&m); err != nil {
		t.Fatalf("writing histogram: %v", err)
	}
	if got := m.GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}
}

func TestRecordUpdate(t *testing.T) {
	r := NewRegistry()
	r.RecordUpdate(UpdateApplied)
	r.RecordUpdate(UpdateApplied)
	r.RecordUpdate(UpdateMalformed)

	tests := []struct {
		result string
		want   float64
	}{
		{UpdateApplied, 2},
		{UpdateMalformed, 1},
		{UpdateDropped, 0},
	}
	for _, tt := range tests {
		t.Run(tt.result, func(t *testing.T) {
			c, err := r.UpdatesTotal.GetMetricWithLabelValues(tt.result)
			if err != nil {
				t.Fatalf("GetMetricWithLabelValues: %v", err)
			}
			if got := counterValue(t, c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetGraphSize(t *testing.T) {
	r := NewRegistry()
	r.SetGraphSize(12, 7)
	if got := gaugeValue(t, r.GraphNodes); got != 12 {
		t.Errorf("nodes = %v, want 12", got)
	}
	if got := gaugeValue(t, r.GraphLinks); got != 7 {
		t.Errorf("links = %v, want 7", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("GET", "/v1/scene", "200", 5*time.Millisecond)
	r.RecordFrame(time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/v1/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"beadgraph_frames_total 1",
		`beadgraph_http_requests_total{method="GET",path="/v1/scene",status="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
