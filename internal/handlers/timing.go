package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// TimingOptions identifies an instrumented operation. Logger carries the
// input context that is logged on failure.
type TimingOptions struct {
	Handler   string
	Operation string
	Logger    zerolog.Logger
}

// RunWithTimingAndErrorLogging runs fn, records its duration and logs a
// failure before returning the error unchanged. It never retries.
func RunWithTimingAndErrorLogging[T any](
	ctx context.Context,
	m *Metrics,
	opts TimingOptions,
	fn func(context.Context) (T, error),
) (T, error) {
	start := time.Now()
	result, err := fn(ctx)
	elapsed := time.Since(start)

	m.OperationDurationSeconds.
		With("handler", opts.Handler, "operation", opts.Operation, "success", strconv.FormatBool(err == nil)).
		Observe(elapsed.Seconds())

	if err != nil {
		m.OperationFailures.With("handler", opts.Handler, "operation", opts.Operation).Add(1)
		opts.Logger.Error().
			Err(err).
			Str("at", opts.Handler+"#"+opts.Operation).
			Dur("duration", elapsed).
			Msg("handler operation failed")
	}
	return result, err
}
