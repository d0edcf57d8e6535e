package persistence

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

var _ bun.QueryHook = (*QueryLogger)(nil)

// QueryLogger is a bun query hook that logs every statement at debug level
// and failed statements at warn level. sql.ErrNoRows is not a failure.
type QueryLogger struct {
	logger *slog.Logger
}

// NewQueryLogger creates a QueryLogger. A nil logger selects slog.Default().
func NewQueryLogger(logger *slog.Logger) *QueryLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryLogger{logger: logger}
}

func (h *QueryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryLogger) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	attrs := []any{
		"operation", event.Operation(),
		"query", event.Query,
		"duration", time.Since(event.StartTime),
	}

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		h.logger.WarnContext(ctx, "query failed", append(attrs, "error", event.Err)...)
		return
	}
	h.logger.DebugContext(ctx, "query executed", attrs...)
}
