package panel

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ca-srg/researchpanel/internal/research"
)

const instrumentationName = "researchpanel/panel"

type outcome string

const (
	outcomeSucceeded  outcome = "succeeded"
	outcomeFailed     outcome = "failed"
	outcomeSuperseded outcome = "superseded"
)

type telemetry struct {
	tracer      trace.Tracer
	submissions metric.Int64Counter
	duration    metric.Float64Histogram
}

func newTelemetry(logger *slog.Logger) *telemetry {
	meter := otel.Meter(instrumentationName)
	t := &telemetry{tracer: otel.Tracer(instrumentationName)}

	var err error
	t.submissions, err = meter.Int64Counter(
		"researchpanel.submissions",
		metric.WithDescription("Search submissions by outcome"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		logger.Warn("failed to create submissions counter", "error", err)
	}

	t.duration, err = meter.Float64Histogram(
		"researchpanel.submission.duration",
		metric.WithDescription("Time from submission to resolution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("failed to create submission duration histogram", "error", err)
	}

	return t
}

// start opens the submission span and returns a func that closes it
func (t *telemetry) start(ctx context.Context, seq uint64) (context.Context, func(outcome, error)) {
	ctx, span := t.tracer.Start(ctx, "panel.submit", trace.WithAttributes(
		attribute.Int64("panel.seq", int64(seq)),
	))
	begin := time.Now()

	return ctx, func(o outcome, err error) {
		attrs := []attribute.KeyValue{attribute.String("outcome", string(o))}
		if kind := research.KindOf(err); kind != "" {
			attrs = append(attrs, attribute.String("error.kind", string(kind)))
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(o))
		}
		span.SetAttributes(attrs...)
		span.End()

		// Use a fresh context: the request context may already be cancelled.
		recordCtx := context.WithoutCancel(ctx)
		if t.submissions != nil {
			t.submissions.Add(recordCtx, 1, metric.WithAttributes(attrs...))
		}
		if t.duration != nil {
			t.duration.Record(recordCtx, time.Since(begin).Seconds(), metric.WithAttributes(attrs...))
		}
	}
}
