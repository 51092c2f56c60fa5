// Package cli implements the chaintwin command-line interface.
//
// The CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - render: write SVG, PNG, JSON or DOT diagrams of case studies
//   - validate: check study files for authoring defects
//   - inspect: print nodes, routes and detail panels
//   - studies: list studies or convert them between TOML, YAML and JSON
//   - explore: drive the highlight state interactively in the terminal
//   - serve: run the HTTP API
//   - cache: manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Rendered 3 files (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// logHooks reports library events at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnRenderStart(ctx context.Context, study, format string) {
	h.logger.Debug("render", "study", study, "format", format)
}

func (h *logHooks) OnRenderComplete(ctx context.Context, study, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("render failed", "study", study, "format", format, "error", err)
		return
	}
	h.logger.Debug("rendered", "study", study, "format", format, "bytes", size, "duration", d.Round(time.Microsecond))
}

func (h *logHooks) OnCacheHit(ctx context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(ctx context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnViewMount(ctx context.Context, study, id string) {
	h.logger.Debug("view mounted", "study", study, "id", id)
}

func (h *logHooks) OnViewEvent(ctx context.Context, id, event string, err error) {
	if err != nil {
		h.logger.Debug("view event rejected", "id", id, "event", event, "error", err)
		return
	}
	h.logger.Debug("view event", "id", id, "event", event)
}

func (h *logHooks) OnViewUnmount(ctx context.Context, id string, expired bool) {
	h.logger.Debug("view unmounted", "id", id, "expired", expired)
}
