package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordTickerOutcome("trained")
	r.RecordTickerOutcome("trained")
	r.RecordTickerOutcome("failed")
	r.RecordFetch("AAPL", "ok")
	r.RecordError("persist")
	r.RecordLatency("train_ticker", 0.25)

	if got := testutil.ToFloat64(r.tickersTotal.WithLabelValues("trained")); got != 2 {
		t.Fatalf("expected 2 trained, got %v", got)
	}
	if got := testutil.ToFloat64(r.barFetches.WithLabelValues("AAPL", "ok")); got != 1 {
		t.Fatalf("expected 1 fetch, got %v", got)
	}
	n, err := testutil.GatherAndCount(reg, "findash_operation_duration_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	NewWithRegistry(prometheus.NewRegistry())
	NewWithRegistry(prometheus.NewRegistry())
}
