package blockcache

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with blockcache-specific field helpers, giving
// operations structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithDevice adds a device field to the logger.
func (l *Logger) WithDevice(dev DeviceID) *Logger {
	return &Logger{
		Logger: l.Logger.With("device", uint32(dev)),
	}
}

// WithBlock adds a block-number field to the logger.
func (l *Logger) WithBlock(num uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("block", num),
	}
}

// LogRead logs a read operation. loaded reports whether a transport transfer
// was issued (a miss or an invalid payload).
func (l *Logger) LogRead(ctx context.Context, id BlockID, loaded bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed",
			"device", uint32(id.Dev),
			"block", id.Num,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "read completed",
			"device", uint32(id.Dev),
			"block", id.Num,
			"loaded", loaded,
		)
	}
}

// LogWrite logs a write-through operation.
func (l *Logger) LogWrite(ctx context.Context, id BlockID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"device", uint32(id.Dev),
			"block", id.Num,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "write completed",
			"device", uint32(id.Dev),
			"block", id.Num,
		)
	}
}

// LogEvict logs an identity reassignment.
func (l *Logger) LogEvict(old, next BlockID) {
	l.Debug("buffer evicted",
		"old_device", uint32(old.Dev),
		"old_block", old.Num,
		"device", uint32(next.Dev),
		"block", next.Num,
	)
}
