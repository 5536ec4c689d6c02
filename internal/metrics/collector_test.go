package metrics

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// =============================================================================
// Test Helpers
// =============================================================================

// newTestCollector creates a collector with a test registry.
func newTestCollector() (*Collector, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	c := NewCollectorWithRegistry(CollectorConfig{Version: "test", ProjectPath: "/game"}, registry)
	return c, registry
}

// findMetric returns the metric in family name whose labels include want.
func findMetric(t *testing.T, g prometheus.Gatherer, name string, want map[string]string) *dto.Metric {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue next
				}
			}
			return m
		}
	}
	return nil
}

func counterValue(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()
	m := findMetric(t, g, name, labels)
	if m == nil {
		t.Fatalf("metric %s%v not found", name, labels)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()
	m := findMetric(t, g, name, labels)
	if m == nil {
		t.Fatalf("metric %s%v not found", name, labels)
	}
	return m.GetGauge().GetValue()
}

// =============================================================================
// Tests: Collector
// =============================================================================

func TestNewCollector_Info(t *testing.T) {
	_, reg := newTestCollector()
	if v := gaugeValue(t, reg, "cstest_info", map[string]string{"version": "test", "project": "/game"}); v != 1 {
		t.Errorf("cstest_info = %v, want 1", v)
	}
}

func TestCollector_RunLifecycle(t *testing.T) {
	c, reg := newTestCollector()

	c.RunStarted("Randomtest")
	if v := gaugeValue(t, reg, "cstest_run_active", nil); v != 1 {
		t.Errorf("run_active = %v, want 1", v)
	}

	c.RecordIteration("Randomtest", 1, 0)
	c.RecordIteration("Randomtest", 2, 50*time.Millisecond)
	c.RecordIteration("Randomtest", 3, 70*time.Millisecond)
	if v := gaugeValue(t, reg, "cstest_iterations", map[string]string{"test": "Randomtest"}); v != 3 {
		t.Errorf("iterations = %v, want 3", v)
	}
	h := findMetric(t, reg, "cstest_iteration_interval_seconds", map[string]string{"test": "Randomtest"})
	if h == nil || h.GetHistogram().GetSampleCount() != 2 {
		t.Errorf("iteration interval samples = %v, want 2", h.GetHistogram().GetSampleCount())
	}

	c.RecordScriptError("intro")
	c.RunFinished("Randomtest", "failed", 3*time.Second, 10, 2)

	if v := gaugeValue(t, reg, "cstest_run_active", nil); v != 0 {
		t.Errorf("run_active = %v, want 0", v)
	}
	if v := counterValue(t, reg, "cstest_runs_total", map[string]string{"test": "Randomtest", "outcome": "failed"}); v != 1 {
		t.Errorf("runs_total = %v, want 1", v)
	}
	if v := counterValue(t, reg, "cstest_script_errors_total", map[string]string{"scene": "intro"}); v != 1 {
		t.Errorf("script_errors_total = %v, want 1", v)
	}
	if v := counterValue(t, reg, "cstest_output_lines_total", map[string]string{"stream": "stdout"}); v != 10 {
		t.Errorf("stdout lines = %v, want 10", v)
	}
	if v := counterValue(t, reg, "cstest_output_lines_total", map[string]string{"stream": "stderr"}); v != 2 {
		t.Errorf("stderr lines = %v, want 2", v)
	}
	d := findMetric(t, reg, "cstest_run_duration_seconds", map[string]string{"test": "Randomtest"})
	if d == nil || d.GetHistogram().GetSampleSum() != 3 {
		t.Errorf("run duration sum = %v, want 3", d.GetHistogram().GetSampleSum())
	}
}

func TestCollector_IterationGaugeResetsOnStart(t *testing.T) {
	c, reg := newTestCollector()
	c.RecordIteration("Randomtest", 40, 0)
	c.RunStarted("Randomtest")
	if v := gaugeValue(t, reg, "cstest_iterations", map[string]string{"test": "Randomtest"}); v != 0 {
		t.Errorf("iterations after start = %v, want 0", v)
	}
}

func TestCollector_Rejected(t *testing.T) {
	c, reg := newTestCollector()
	c.RunRejected()
	c.RunRejected()
	if v := counterValue(t, reg, "cstest_runs_rejected_total", nil); v != 2 {
		t.Errorf("runs_rejected_total = %v, want 2", v)
	}
}

func TestCollector_Summary(t *testing.T) {
	c, _ := newTestCollector()
	c.RunFinished("Quicktest", "passed", time.Second, 0, 0)
	c.RunFinished("Quicktest", "passed", time.Second, 0, 0)
	c.RunFinished("Randomtest", "cancelled", time.Second, 0, 0)

	if got := c.TotalRuns(); got != 3 {
		t.Errorf("TotalRuns() = %d, want 3", got)
	}
	out := c.Outcomes()
	if out["passed"] != 2 || out["cancelled"] != 1 {
		t.Errorf("Outcomes() = %v", out)
	}

	// Returned map is a copy
	out["passed"] = 100
	if c.Outcomes()["passed"] != 2 {
		t.Error("Outcomes() exposed internal state")
	}
}

func TestNewCollectorWithRegistry_Isolated(t *testing.T) {
	// Two collectors on separate registries must not collide.
	c1, _ := newTestCollector()
	c2, _ := newTestCollector()
	c1.RunRejected()
	if c2.TotalRuns() != 0 {
		t.Error("collectors share state")
	}
}

// =============================================================================
// Tests: Text dump
// =============================================================================

func TestWriteText(t *testing.T) {
	c, reg := newTestCollector()
	c.RunFinished("Quicktest", "passed", time.Second, 1, 0)

	var buf bytes.Buffer
	if err := WriteText(&buf, reg); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# TYPE cstest_runs_total counter",
		`cstest_runs_total{outcome="passed",test="Quicktest"} 1`,
		"cstest_run_active 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteText() missing %q\n%s", want, out)
		}
	}
}

func TestWriteFile(t *testing.T) {
	c, reg := newTestCollector()
	c.RunRejected()

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := WriteFile(path, reg); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "cstest_runs_rejected_total 1") {
		t.Errorf("file contents:\n%s", data)
	}
}

func TestWriteFile_BadPath(t *testing.T) {
	_, reg := newTestCollector()
	if err := WriteFile(filepath.Join(t.TempDir(), "missing", "metrics.prom"), reg); err == nil {
		t.Error("WriteFile() to a missing directory should fail")
	}
}

// =============================================================================
// Tests: Server
// =============================================================================

func TestServer_Handler(t *testing.T) {
	c, reg := newTestCollector()
	c.RunStarted("Quicktest")
	s := NewServer("127.0.0.1:0", reg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		path string
		want string
	}{
		{"/metrics", "cstest_run_active 1"},
		{"/health", "ok"},
		{"/healthz", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body missing %q:\n%s", tt.want, rec.Body.String())
			}
		})
	}
}

func TestServer_StartShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if s.Addr() != "127.0.0.1:0" {
		t.Errorf("Addr() = %q", s.Addr())
	}
}
