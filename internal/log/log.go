// Package log is the structured logger every xelns-web component takes in its
// options. It sits on log/slog and adds trace correlation, error-chain fields
// and stack traces at or above a configurable level.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger interface {
	With(kv ...any) Logger

	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, err error, msg string, kv ...any)

	Sync() error
}

type Options struct {
	App     string
	Version string
	Commit  string
	BuildId string

	Level slog.Level
	// StacktraceLevel defaults to error.
	StacktraceLevel slog.Level
	JsonFormat      bool

	// IncludeErrorLinks adds an error_links field with one entry per wrap
	// site, capped at MaxErrorLinks (default 8).
	MaxErrorLinks     int
	IncludeErrorLinks bool

	// Writer defaults to stdout.
	Writer io.Writer
}

// New builds a Logger writing JSON or logfmt records.
func New(opts Options) (Logger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	if opts.StacktraceLevel == 0 {
		opts.StacktraceLevel = slog.LevelError
	}
	if opts.MaxErrorLinks <= 0 {
		opts.MaxErrorLinks = 8
	}

	ho := &slog.HandlerOptions{Level: opts.Level, AddSource: true}
	var base slog.Handler = slog.NewTextHandler(w, ho)
	if opts.JsonFormat {
		base = slog.NewJSONHandler(w, ho)
	}

	fixed := []slog.Attr{slog.String("app", opts.App)}
	if opts.Version != "" {
		fixed = append(fixed, slog.String("version", opts.Version))
	}

	return &logger{
		h:         enrich{next: base, stackLevel: opts.StacktraceLevel},
		attrs:     fixed,
		withLinks: opts.IncludeErrorLinks,
		maxLinks:  opts.MaxErrorLinks,
	}, nil
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %s (valid levels are debug|info|warn|error)", s)
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the Logger carried by ctx, or Nop.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
		return l
	}
	return Nop()
}

type nop struct{}

func (nop) With(...any) Logger                           { return nop{} }
func (nop) Debug(context.Context, string, ...any)        {}
func (nop) Info(context.Context, string, ...any)         {}
func (nop) Warn(context.Context, string, ...any)         {}
func (nop) Error(context.Context, error, string, ...any) {}
func (nop) Sync() error                                  { return nil }

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }
