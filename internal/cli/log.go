// Package cli implements the scatter command-line interface.
//
// Every command reads a dump file (a JSON array of node records) into an
// in-memory store built from the configured schema file, then works on that
// store. The CLI is built using cobra and logs with charmbracelet/log.
//
// # Commands
//
//   - schema: List and describe the schemas of a declaration file
//   - inspect: Load a dump and report nodes, references and orphans
//   - gc: Dispose orphans or treeshake a dump and write the result
//   - render: Draw a dump as a DOT, SVG, PDF or PNG node-link diagram
//   - serve: Expose a dump through a read-only HTTP API
//   - browse: Navigate a dump interactively in the terminal
//   - cache: Push and pull records to the file, Redis or MongoDB cache
//
// # Configuration
//
// Settings are read from scatter.toml in the working directory, or from the
// file named by --config. See [Config].
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
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

// done logs msg along with the elapsed time, rounded to the millisecond.
// Example output: "Loaded 42 records from shop.json (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() when none
// is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
