// Package logging wires structured, leveled logging into the runtime via
// github.com/phuslu/log, following the same context-injection idiom the
// teacher uses for its container logger (WithLogger / FromContext), but
// backed by a real structured-logging library instead of bare stdlib log.
package logging

import (
	"context"
	"os"

	plog "github.com/phuslu/log"
)

type contextKey int

const loggerKey contextKey = iota

// New builds a logger at the given level ("debug", "info", "warn", "error")
// writing JSON lines when format is "json" and console-formatted lines for
// any other format value (the config's other allowed value is "text").
func New(level, format string) *plog.Logger {
	l := &plog.Logger{
		Level:  parseLevel(level),
		Writer: &plog.ConsoleWriter{},
	}
	if format == "json" {
		l.Writer = &plog.IOWriter{Writer: os.Stdout}
	}
	return l
}

func parseLevel(level string) plog.Level {
	switch level {
	case "debug":
		return plog.DebugLevel
	case "warn":
		return plog.WarnLevel
	case "error":
		return plog.ErrorLevel
	case "fatal":
		return plog.FatalLevel
	default:
		return plog.InfoLevel
	}
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, logger *plog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from the context, falling back to a
// disabled logger if none was attached.
func FromContext(ctx context.Context) *plog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*plog.Logger); ok {
		return logger
	}
	return &plog.Logger{Level: plog.PanicLevel}
}
