// Package logging provides the structured logger shared by the CLI and core packages.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FormatJSON and FormatConsole are the supported output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures the structured logger.
type Options struct {
	Service string
	Level   zerolog.Level
	Format  string
	Output  io.Writer
}

// Logger wraps zerolog with context-attached fields.
type Logger struct {
	base *zerolog.Logger
}

type ctxKey struct{}

// New builds a logger. Output defaults to stderr so it never mixes with command output.
func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.WarnLevel
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	if opts.Format != FormatJSON {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.
		New(output).
		With().
		Timestamp().
		Str("service", opts.Service).
		Logger().
		Level(opts.Level)

	return &Logger{base: &logger}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	logger := zerolog.Nop()
	return &Logger{base: &logger}
}

// ParseLevel converts a level name, falling back to warn.
func ParseLevel(value string) zerolog.Level {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return zerolog.WarnLevel
	}
	if lvl, err := zerolog.ParseLevel(s); err == nil && lvl != zerolog.NoLevel {
		return lvl
	}
	return zerolog.WarnLevel
}

func (l *Logger) fromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return entry
		}
	}
	return l.base
}

// WithField returns a context whose log lines carry key=value.
func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	entry := l.fromContext(ctx).With().Interface(key, value).Logger()
	return context.WithValue(ctx, ctxKey{}, &entry)
}

// WithUser tags log lines with the acting username.
func (l *Logger) WithUser(ctx context.Context, username string) context.Context {
	return l.WithField(ctx, "user", username)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...any) {
	l.fromContext(ctx).Debug().Fields(fields).Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...any) {
	l.fromContext(ctx).Info().Fields(fields).Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string, err error) {
	event := l.fromContext(ctx).Warn()
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.fromContext(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}
