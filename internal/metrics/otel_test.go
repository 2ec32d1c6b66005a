package metrics

import (
	"context"
	"path/filepath"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectTotals(t *testing.T, reader *metric.ManualReader) (map[Key]int64, bool) {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "researchpanel.submissions.total" {
				continue
			}
			gauge, ok := m.Data.(metricdata.Gauge[int64])
			if !ok {
				t.Fatalf("Expected Gauge[int64], got %T", m.Data)
			}

			results := make(map[Key]int64)
			for _, dp := range gauge.DataPoints {
				var key Key
				for _, attr := range dp.Attributes.ToSlice() {
					switch string(attr.Key) {
					case "mode":
						key.Mode = Mode(attr.Value.AsString())
					case "outcome":
						key.Outcome = Outcome(attr.Value.AsString())
					}
				}
				results[key] = dp.Value
			}
			return results, true
		}
	}

	return nil, false
}

func TestOTelMetricsReportStoreTotals(t *testing.T) {
	ResetForTesting()
	ResetOTelForTesting()
	defer func() {
		ResetForTesting()
		ResetOTelForTesting()
	}()

	store, err := NewStore(filepath.Join(t.TempDir(), "test_stats.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	SetStoreForTesting(store)

	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)
	defer provider.Shutdown(context.Background())

	if err := InitOTelMetrics(); err != nil {
		t.Fatalf("InitOTelMetrics failed: %v", err)
	}

	totals, found := collectTotals(t, reader)
	if !found {
		t.Fatal("Metric 'researchpanel.submissions.total' not found")
	}
	if totals[Key{Mode: ModeWebUI, Outcome: OutcomeSucceeded}] != 0 {
		t.Errorf("Expected zero before increments, got %d", totals[Key{Mode: ModeWebUI, Outcome: OutcomeSucceeded}])
	}

	_ = store.Increment(ModeWebUI, OutcomeSucceeded)
	_ = store.Increment(ModeWebUI, OutcomeSucceeded)
	_ = store.Increment(ModeQuery, OutcomeFailed)

	totals, _ = collectTotals(t, reader)
	if totals[Key{Mode: ModeWebUI, Outcome: OutcomeSucceeded}] != 2 {
		t.Errorf("webui/succeeded: expected 2, got %d", totals[Key{Mode: ModeWebUI, Outcome: OutcomeSucceeded}])
	}
	if totals[Key{Mode: ModeQuery, Outcome: OutcomeFailed}] != 1 {
		t.Errorf("query/failed: expected 1, got %d", totals[Key{Mode: ModeQuery, Outcome: OutcomeFailed}])
	}
}

func TestOTelMetricsWithoutStoreReportZeros(t *testing.T) {
	ResetForTesting()
	ResetOTelForTesting()
	defer ResetOTelForTesting()

	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)
	defer provider.Shutdown(context.Background())

	if err := InitOTelMetrics(); err != nil {
		t.Fatalf("InitOTelMetrics failed: %v", err)
	}

	totals, found := collectTotals(t, reader)
	if !found {
		t.Fatal("Metric not found")
	}
	if len(totals) != len(Modes)*len(Outcomes) {
		t.Errorf("Expected %d data points, got %d", len(Modes)*len(Outcomes), len(totals))
	}
	for key, v := range totals {
		if v != 0 {
			t.Errorf("%v: expected 0, got %d", key, v)
		}
	}
}
