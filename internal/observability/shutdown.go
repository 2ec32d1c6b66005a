package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ca-srg/researchpanel/internal/logging"
)

const defaultShutdownTimeout = 5 * time.Second

// ShutdownFunc flushes and stops the exporters.
type ShutdownFunc func(context.Context) error

// NewShutdownFunc returns a ShutdownFunc for the given providers. Either may be nil.
func NewShutdownFunc(tp *sdktrace.TracerProvider, mp *sdkmetric.MeterProvider, logger *slog.Logger) ShutdownFunc {
	logger = logging.OrDiscard(logger)

	return func(ctx context.Context) error {
		if ctx == nil {
			ctx = context.Background()
		}
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, defaultShutdownTimeout)
			defer cancel()
		}

		var errs []error
		if tp != nil {
			if err := tp.Shutdown(ctx); err != nil {
				logger.Warn("observability: failed to shutdown tracer provider", "error", err)
				errs = append(errs, fmt.Errorf("tracer provider: %w", err))
			}
		}
		if mp != nil {
			if err := mp.Shutdown(ctx); err != nil {
				logger.Warn("observability: failed to shutdown meter provider", "error", err)
				errs = append(errs, fmt.Errorf("meter provider: %w", err))
			}
		}

		return errors.Join(errs...)
	}
}
