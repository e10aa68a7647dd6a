// Package logging builds the log sink shared by every component of an invocation.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/robbyt/go-loglater"
)

// Origin tags carried by every record under OriginKey.
const (
	OriginKey    = "origin"
	OriginHost   = "host"
	OriginScript = "script"
)

// DefaultLevel is used when neither a level nor the debug toggle is given.
const DefaultLevel = "warn"

// Options configures a Sink.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Empty means DefaultLevel.
	Level string
	// Debug forces the debug level regardless of Level.
	Debug bool
	// Format is "text" (default) or "json".
	Format string
	// Writer receives the records. Nil means os.Stderr.
	Writer io.Writer
}

// Sink is the process-wide log destination. It is built once, before any pipeline runs,
// and handed to the components that log.
type Sink struct {
	handler slog.Handler
	level   slog.Level
}

// NewSink creates the sink described by opts.
func NewSink(opts Options) *Sink {
	level := opts.Level
	if opts.Debug {
		level = "debug"
	}
	if level == "" {
		level = DefaultLevel
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = NewHandlerJSON(level, opts.Writer)
	default:
		handler = NewHandlerText(level, opts.Writer)
	}

	return &Sink{
		handler: handler,
		level:   ParseLevel(level),
	}
}

// Handler returns the underlying slog handler.
func (s *Sink) Handler() slog.Handler {
	return s.handler
}

// Level returns the active threshold.
func (s *Sink) Level() slog.Level {
	return s.level
}

// Logger returns a logger whose records are tagged with the given origin.
func (s *Sink) Logger(origin string) *slog.Logger {
	return slog.New(s.handler).With(OriginKey, origin)
}

// Replay writes records buffered by c before the sink existed, dropping those below the
// active threshold.
func (s *Sink) Replay(ctx context.Context, c *loglater.LogCollector) {
	if c == nil {
		return
	}
	for _, stored := range c.GetLogs() {
		if !s.handler.Enabled(ctx, stored.Level) {
			continue
		}
		record := slog.NewRecord(stored.Time, stored.Level, stored.Message, stored.PC)
		record.AddAttrs(stored.Attrs...)
		_ = s.handler.Handle(ctx, record)
	}
}

// ParseLevel converts a level name to a slog level. Unknown names map to warn.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// NewHandlerText configures a charmbracelet text handler. Debug and trace levels report
// the caller (file and line) and a timestamp.
func NewHandlerText(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}

	reportCaller := false
	reportTimestamp := false
	lvl := log.WarnLevel
	switch strings.ToLower(logLevel) {
	case "trace", "debug":
		reportCaller = true
		reportTimestamp = true
		lvl = log.DebugLevel
	case "info":
		lvl = log.InfoLevel
	case "warn", "warning":
		lvl = log.WarnLevel
	case "error":
		lvl = log.ErrorLevel
	}

	return log.NewWithOptions(writer, log.Options{
		ReportTimestamp: reportTimestamp,
		ReportCaller:    reportCaller,
		Level:           lvl,
	})
}

// NewHandlerJSON configures a JSON slog handler with the provided writer and log level
func NewHandlerJSON(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}

	level := ParseLevel(logLevel)
	reportCaller := level == slog.LevelDebug

	return slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     level,
		AddSource: reportCaller,
	})
}
