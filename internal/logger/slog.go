package logger

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// SlogLogger implements Logger on top of a JSON slog handler.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a JSON logger writing to w. Timestamps are rendered in
// tz when it is non-nil, otherwise in local time.
func NewSlogLogger(w io.Writer, level LogLevel, tz *time.Location) Logger {
	opts := &slog.HandlerOptions{
		Level: level.slogLevel(),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && tz != nil {
				return slog.Time(slog.TimeKey, a.Value.Time().In(tz))
			}
			return a
		},
	}
	return &SlogLogger{logger: slog.New(slog.NewJSONHandler(w, opts))}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return NewSlogLogger(io.Discard, LogLevelError, nil)
}

func (l *SlogLogger) Debug(msg string, fields ...Field) { l.log(slog.LevelDebug, msg, fields) }

func (l *SlogLogger) Info(msg string, fields ...Field) { l.log(slog.LevelInfo, msg, fields) }

func (l *SlogLogger) Warn(msg string, fields ...Field) { l.log(slog.LevelWarn, msg, fields) }

func (l *SlogLogger) Error(msg string, fields ...Field) { l.log(slog.LevelError, msg, fields) }

func (l *SlogLogger) With(fields ...Field) Logger {
	return &SlogLogger{logger: l.logger.With(toArgs(fields)...)}
}

func (l *SlogLogger) Module(name string) Logger {
	return &SlogLogger{logger: l.logger.With(slog.String("module", name))}
}

func (l *SlogLogger) log(level slog.Level, msg string, fields []Field) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.LogAttrs(ctx, level, msg, toAttrs(fields)...)
}

func toAttrs(fields []Field) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	return attrs
}

func toArgs(fields []Field) []any {
	args := make([]any, 0, len(fields))
	for _, a := range toAttrs(fields) {
		args = append(args, a)
	}
	return args
}
