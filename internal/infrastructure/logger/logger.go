// Package logger builds the zerolog loggers shared by the server and CLI.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// ServiceName is attached to every line written by a logger from New.
const ServiceName = "bankledger"

// Config holds logger configuration.
type Config struct {
	Level  string // trace, debug, info, warn, error; anything else is info
	Format string // json or console
	Output io.Writer
	// Caller adds the file:line of the log call.
	Caller bool
}

// New creates a logger writing to cfg.Output, or stdout.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp().Str("service", ServiceName)
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// Component returns a child logger tagged with the subsystem name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// WithRequestID returns a child logger carrying the chi request id of ctx,
// or l itself when ctx has none.
func WithRequestID(ctx context.Context, l zerolog.Logger) zerolog.Logger {
	reqID := middleware.GetReqID(ctx)
	if reqID == "" {
		return l
	}
	return l.With().Str("request_id", reqID).Logger()
}

func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" || lvl == zerolog.NoLevel || lvl == zerolog.Disabled {
		return zerolog.InfoLevel
	}
	return lvl
}
