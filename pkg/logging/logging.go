// Package logging builds the slog loggers used across the emulator: human
// readable records on stderr plus, optionally, JSON records in a log file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/afero"
)

// Options configures a logger
type Options struct {
	// debug, info, warn or error. Defaults to warn
	Level string
	// Format of the console records: text or json. Defaults to text
	Format string
	// If not empty, JSON records at every level are appended to this file
	File string
	// Console destination. Defaults to os.Stderr
	Console io.Writer
}

// ParseLevel converts a level name into a slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level

	if name == "" {
		return slog.LevelWarn, nil
	}

	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("invalid log level '%s': %w", name, err)
	}

	return level, nil
}

// New creates a logger fanning out records to the console and the optional log file.
// The returned close function releases the log file and must be called when done
func New(fs afero.Fs, opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var consoleHandler slog.Handler

	switch strings.ToLower(opts.Format) {
	case "", "text":
		consoleHandler = slog.NewTextHandler(console, handlerOpts)
	case "json":
		consoleHandler = slog.NewJSONHandler(console, handlerOpts)
	default:
		return nil, nil, fmt.Errorf("invalid log format '%s'", opts.Format)
	}

	if opts.File == "" {
		return slog.New(consoleHandler), func() error { return nil }, nil
	}

	file, err := fs.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file: %w", err)
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(slogmulti.Fanout(consoleHandler, fileHandler)), file.Close, nil
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying logger
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored by NewContext. Contexts without one get
// a warn level text logger on stderr
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
