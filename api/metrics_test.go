package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRun(t *testing.T) {
	m := NewMetrics("test")

	m.RecordRun(true, time.Second)
	m.RecordRun(false, time.Second)
	m.RecordRun(true, time.Second)

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(StatusSuccess)); got != 2 {
		t.Errorf("Expected 2 successful runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(StatusFailure)); got != 1 {
		t.Errorf("Expected 1 failed run, got %v", got)
	}
}

func TestRecordColumnAndWrite(t *testing.T) {
	m := NewMetrics("test")

	m.RecordColumn("int64", 1000, time.Millisecond)
	m.RecordColumn("int64", 500, time.Millisecond)
	m.RecordWrite("parquet", 4096, time.Millisecond)
	m.RecordPublish(3)

	if got := testutil.ToFloat64(m.RowsGenerated.WithLabelValues("int64")); got != 1500 {
		t.Errorf("Expected 1500 rows, got %v", got)
	}
	if got := testutil.ToFloat64(m.BytesWritten.WithLabelValues("parquet")); got != 4096 {
		t.Errorf("Expected 4096 bytes, got %v", got)
	}
	if got := testutil.ToFloat64(m.MessagesPublished); got != 3 {
		t.Errorf("Expected 3 messages, got %v", got)
	}
}

func TestNewMetricsIsolated(t *testing.T) {
	// Separate registries must not collide on registration.
	a := NewMetrics("dup")
	b := NewMetrics("dup")

	a.RecordPublish(1)
	if got := testutil.ToFloat64(b.MessagesPublished); got != 0 {
		t.Errorf("Expected isolated counters, got %v", got)
	}
}

func TestMetricsServer(t *testing.T) {
	m := NewMetrics("srv")
	m.RecordWrite("csv", 10, time.Millisecond)

	server := NewMetricsServer("127.0.0.1:0", m)
	if err := server.StartAsync(); err != nil {
		t.Fatalf("StartAsync failed: %v", err)
	}
	defer server.Stop(context.Background())

	resp, err := http.Get("http://" + server.Addr() + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get("http://" + server.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("Metrics request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if !strings.Contains(string(body), `srv_bytes_written_total{format="csv"} 10`) {
		t.Errorf("Expected bytes_written metric in output, got:\n%s", body)
	}
}
