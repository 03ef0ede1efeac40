package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"b3data/internal/infrastructure"
)

// notifier emits user notices through infrastructure.EmitNotice. Notices
// never interrupt processing.
type notifier struct {
	logger  *slog.Logger
	metrics *infrastructure.DataMetrics
}

func (n notifier) info(ctx context.Context, op, format string, args ...any) {
	infrastructure.EmitNotice(ctx, n.logger, n.metrics, slog.LevelInfo, op, fmt.Sprintf(format, args...))
}

func (n notifier) warn(ctx context.Context, op, format string, args ...any) {
	infrastructure.EmitNotice(ctx, n.logger, n.metrics, slog.LevelWarn, op, fmt.Sprintf(format, args...))
}

// startOperation opens a span for op and returns the function that closes
// it, recording duration and outcome.
func startOperation(ctx context.Context, metrics *infrastructure.DataMetrics, op string) (context.Context, func(error)) {
	ctx, span := infrastructure.StartSpan(ctx, "dataprocessing."+op)
	start := time.Now()
	return ctx, func(err error) {
		infrastructure.RecordError(ctx, err)
		metrics.RecordOperation(ctx, op, time.Since(start), err)
		span.End()
	}
}
