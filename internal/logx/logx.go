// Package logx configures the process-wide slog logger and carries
// request-scoped loggers through a context.
package logx

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

// Options controls how the logger is built.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	File   string // optional rotating log file; stderr when empty

	// Output overrides the destination; used by tests.
	Output io.Writer
}

var (
	mu         sync.Mutex
	baseLogger *slog.Logger
	rotator    *lumberjack.Logger
)

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init builds the base logger and installs it as the slog default.
// Calling Init again replaces the previous logger.
func Init(opts Options) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
		if opts.File != "" {
			rotator = &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
			out = rotator
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	baseLogger = slog.New(handler).With("app", "phishguard")
	slog.SetDefault(baseLogger)

	return baseLogger
}

// Close flushes and closes the rotating file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if rotator == nil {
		return nil
	}

	err := rotator.Close()
	rotator = nil

	return err
}

// Rotating reports whether a rotating log file is open.
func Rotating() bool {
	mu.Lock()
	defer mu.Unlock()

	return rotator != nil
}

// FromContext retrieves the request-scoped logger or returns the base logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return base()
}

// With returns a new context containing a logger with additional attributes.
func With(ctx context.Context, args ...any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	l := FromContext(ctx).With(args...)

	return context.WithValue(ctx, ctxKey{}, l)
}

func base() *slog.Logger {
	mu.Lock()
	l := baseLogger
	mu.Unlock()

	if l == nil {
		return slog.Default()
	}

	return l
}
