// Package logging builds the slog loggers used by footctl and footsim.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options selects the destination and verbosity of a logger.
type Options struct {
	// Service is attached to every record as service=<name>.
	Service string
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// File, when set, receives the log. The directory is created as needed.
	// Otherwise logs go to Output.
	File string
	// Output is used when File is empty. Nil means stderr.
	Output io.Writer
	// JSON switches from the text handler to the JSON handler.
	JSON bool
}

// New creates a logger. The returned close function releases the log file and
// is safe to call when no file was opened.
func New(opts Options) (*slog.Logger, func() error, error) {
	closeFn := func() error { return nil }

	var output io.Writer = os.Stderr
	if opts.Output != nil {
		output = opts.Output
	}
	if strings.TrimSpace(opts.File) != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, closeFn, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closeFn, fmt.Errorf("open log file: %w", err)
		}
		output = f
		closeFn = f.Close
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(output, handlerOpts)
	}
	if opts.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", opts.Service)})
	}
	return slog.New(handler), closeFn, nil
}

// ParseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error. Defaults to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Discard returns a logger that drops everything, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
