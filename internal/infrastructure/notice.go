package infrastructure

import (
	"context"
	"log/slog"
)

// Message prefixes of user notices by level.
const (
	NoticeInfoPrefix = "User info: "
	NoticeWarnPrefix = "User warning: "
)

// EmitNotice logs msg as a user notice: a record flagged notice=true and
// tagged with the operation that raised it. Notices below WARN are INFO.
// metrics may be nil.
func EmitNotice(ctx context.Context, logger *slog.Logger, metrics *DataMetrics, level slog.Level, operation, msg string) {
	prefix := NoticeInfoPrefix
	if level >= slog.LevelWarn {
		level = slog.LevelWarn
		prefix = NoticeWarnPrefix
	} else {
		level = slog.LevelInfo
	}
	if logger == nil {
		logger = GetLogger()
	}
	logger.LogAttrs(ctx, level, prefix+msg,
		slog.Bool("notice", true),
		slog.String("operation", operation))
	metrics.RecordNotice(ctx, operation, level)
}
