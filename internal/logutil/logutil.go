package logutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"
)

const LevelTrace slog.Level = -8

// NewLogger returns a text logger writing to w that prints LevelTrace as TRACE
// and shortens source file names.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				if attr.Value.Any().(slog.Level) == LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			case slog.SourceKey:
				source := attr.Value.Any().(*slog.Source)
				source.File = filepath.Base(source.File)
			}
			return attr
		},
	}))
}

// Trace logs msg at LevelTrace, attributing it to the caller.
func Trace(logger *slog.Logger, msg string, args ...any) {
	ctx := context.Background()
	if !logger.Enabled(ctx, LevelTrace) {
		return
	}

	pc, _, _, _ := runtime.Caller(1)
	record := slog.NewRecord(time.Now(), LevelTrace, msg, pc)
	record.Add(args...)
	_ = logger.Handler().Handle(ctx, record)
}

// Level maps the verbosity flags of a command to a log level.
func Level(verbose, trace bool) slog.Level {
	switch {
	case trace:
		return LevelTrace
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}
