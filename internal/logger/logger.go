// Package logger provides the application's slog setup and attribute
// helpers for consistent structured logging keys.
package logger

import (
	"io"
	"log/slog"
	"os"
)

type options struct {
	level  slog.Level
	json   bool
	output io.Writer
	attrs  []slog.Attr
}

// Option configures the logger factory.
type Option func(*options)

// WithDevelopment configures text output at debug level, tagged with the
// application name.
func WithDevelopment(appName string) Option {
	return func(o *options) {
		o.level = slog.LevelDebug
		o.json = false
		if appName != "" {
			o.attrs = append(o.attrs, slog.String("app", appName))
		}
	}
}

// WithProduction configures JSON output at info level, tagged with the
// application name.
func WithProduction(appName string) Option {
	return func(o *options) {
		o.level = slog.LevelInfo
		o.json = true
		if appName != "" {
			o.attrs = append(o.attrs, slog.String("app", appName))
		}
	}
}

// WithLevel overrides the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithOutput overrides the output destination.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// New creates a configured *slog.Logger. Defaults to text output at info
// level on stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{level: slog.LevelInfo, output: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	hopts := &slog.HandlerOptions{Level: o.level}
	var h slog.Handler
	if o.json {
		h = slog.NewJSONHandler(o.output, hopts)
	} else {
		h = slog.NewTextHandler(o.output, hopts)
	}
	if len(o.attrs) > 0 {
		h = h.WithAttrs(o.attrs)
	}
	return slog.New(h)
}
