// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// Options selects the handler. Env "dev" gets tint, anything else JSON.
type Options struct {
	Env     string
	Level   slog.Level
	App     string
	Version string
	NoColor bool
}

// New returns a logger writing to w.
func New(w io.Writer, o Options) *slog.Logger {
	if o.Env == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      o.Level,
			AddSource:  true,
			TimeFormat: time.Kitchen,
			NoColor:    o.NoColor,
		})
		return slog.New(h).With("app", o.App)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: o.Level})
	return slog.New(h).With(
		"app", o.App,
		"version", o.Version,
		"env", o.Env,
	)
}

// Serial is the plain text handler used on the device console.
func Serial(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
