package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	otelMetricsOnce       sync.Once
	otelRegistrationError error
)

// InitOTelMetrics registers an observable gauge that reports the cumulative
// submission totals from SQLite. Call it after observability.Init.
func InitOTelMetrics() error {
	otelMetricsOnce.Do(func() {
		meter := otel.Meter("researchpanel/metrics")

		_, err := meter.Int64ObservableGauge(
			"researchpanel.submissions.total",
			metric.WithDescription("Cumulative search submissions by mode and outcome"),
			metric.WithUnit("{submissions}"),
			metric.WithInt64Callback(submissionCallback),
		)
		if err != nil {
			otelRegistrationError = err
		}
	})
	return otelRegistrationError
}

// submissionCallback reads cumulative totals and reports them as gauge values.
func submissionCallback(_ context.Context, observer metric.Int64Observer) error {
	stats := GetStats()
	if stats == nil {
		for _, mode := range Modes {
			for _, outcome := range Outcomes {
				observer.Observe(0, metric.WithAttributes(
					attribute.String("mode", string(mode)),
					attribute.String("outcome", string(outcome)),
				))
			}
		}
		return nil
	}

	for key, count := range stats {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("mode", string(key.Mode)),
			attribute.String("outcome", string(key.Outcome)),
		))
	}

	return nil
}

// ResetOTelForTesting resets the OTel initialization state.
func ResetOTelForTesting() {
	otelMetricsOnce = sync.Once{}
	otelRegistrationError = nil
}
