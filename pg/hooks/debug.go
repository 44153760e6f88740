// Package hooks contains bun query hooks used by the pg package.
package hooks

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/rise-and-shine/contentstore/logger"
)

var _ bun.QueryHook = (*DebugHook)(nil)

// DebugHook logs database queries through the injected logger with
// slow-query detection.
type DebugHook struct {
	log                logger.Logger
	enabled            bool
	slowQueryThreshold time.Duration
}

// DebugHookOption is a function that configures a DebugHook.
type DebugHookOption func(*DebugHook)

// NewDebugHook creates a new query hook writing to the given logger.
// By default the hook is enabled with a slow query threshold of 100ms.
func NewDebugHook(log logger.Logger, opts ...DebugHookOption) *DebugHook {
	if log == nil {
		log = logger.Nop()
	}

	hook := &DebugHook{
		log:                log.Named("bun"),
		enabled:            true,
		slowQueryThreshold: 100 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(hook)
	}

	return hook
}

// WithEnabled sets whether the query hook logs anything at all.
func WithEnabled(enabled bool) DebugHookOption {
	return func(h *DebugHook) {
		h.enabled = enabled
	}
}

// WithSlowQueryThreshold sets the duration threshold for logging slow
// queries at warn level. Set to 0 to disable slow query detection.
func WithSlowQueryThreshold(threshold time.Duration) DebugHookOption {
	return func(h *DebugHook) {
		h.slowQueryThreshold = threshold
	}
}

// BeforeQuery implements bun.QueryHook. It returns the context unchanged.
func (h *DebugHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

// AfterQuery implements bun.QueryHook. It logs the finished query with the
// appropriate level.
func (h *DebugHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if !h.enabled {
		return
	}

	duration := time.Since(event.StartTime)

	isNoRows := errors.Is(event.Err, sql.ErrNoRows)
	isTxDone := errors.Is(event.Err, sql.ErrTxDone)
	hasError := event.Err != nil && !isNoRows && !isTxDone
	isSlow := h.slowQueryThreshold > 0 && duration >= h.slowQueryThreshold

	logEntry := h.log.
		With("query", strings.ReplaceAll(event.Query, `"`, ``)).
		With("duration", duration.Round(time.Microsecond))

	switch {
	case hasError:
		logEntry.With("error", event.Err).Error(event.Operation())
	case isNoRows:
		logEntry.With("error", event.Err).Warn(event.Operation())
	case isSlow:
		logEntry.Warn(event.Operation())
	default:
		logEntry.Debug(event.Operation())
	}
}
