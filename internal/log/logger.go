package log

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type logger struct {
	h         slog.Handler
	attrs     []slog.Attr
	withLinks bool
	maxLinks  int
}

func (l *logger) With(kv ...any) Logger {
	next := make([]slog.Attr, len(l.attrs), len(l.attrs)+len(kv)/2)
	copy(next, l.attrs)
	next = appendKV(next, kv)
	return &logger{h: l.h, attrs: next, withLinks: l.withLinks, maxLinks: l.maxLinks}
}

func (l *logger) Debug(ctx context.Context, msg string, kv ...any) {
	l.emit(ctx, slog.LevelDebug, msg, kv)
}

func (l *logger) Info(ctx context.Context, msg string, kv ...any) {
	l.emit(ctx, slog.LevelInfo, msg, kv)
}

func (l *logger) Warn(ctx context.Context, msg string, kv ...any) {
	l.emit(ctx, slog.LevelWarn, msg, kv)
}

func (l *logger) Error(ctx context.Context, err error, msg string, kv ...any) {
	if err != nil {
		kv = append(kv, errorFields(err, l.withLinks, l.maxLinks)...)
	}
	l.emit(ctx, slog.LevelError, msg, kv)
}

func (l *logger) Sync() error { return nil }

// emit must be called directly by the exported level methods so the
// recorded source points at their caller.
func (l *logger) emit(ctx context.Context, lvl slog.Level, msg string, kv []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.h.Enabled(ctx, lvl) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), lvl, msg, pcs[0])
	r.AddAttrs(l.attrs...)
	r.AddAttrs(appendKV(nil, kv)...)
	_ = l.h.Handle(ctx, r)
}

// appendKV converts alternating key/value pairs, skipping non-string keys
// and a trailing odd value.
func appendKV(dst []slog.Attr, kv []any) []slog.Attr {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			dst = append(dst, slog.Any(k, kv[i+1]))
		}
	}
	return dst
}

// enrich adds trace_id/span_id from the active span and a stack field to
// records at or above stackLevel.
type enrich struct {
	next       slog.Handler
	stackLevel slog.Level
}

func (h enrich) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.next.Enabled(ctx, lvl)
}

func (h enrich) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if r.Level >= h.stackLevel {
		r.AddAttrs(slog.String("stack", recordStack(r)))
	}
	return h.next.Handle(ctx, r)
}

func (h enrich) WithAttrs(attrs []slog.Attr) slog.Handler {
	return enrich{next: h.next.WithAttrs(attrs), stackLevel: h.stackLevel}
}

func (h enrich) WithGroup(name string) slog.Handler {
	return enrich{next: h.next.WithGroup(name), stackLevel: h.stackLevel}
}

// recordStack prefers the stack captured by an xerrors value in the err
// attribute and falls back to the current goroutine's stack.
func recordStack(r slog.Record) string {
	var pcs []uintptr
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "err" {
			return true
		}
		if st, ok := a.Value.Any().(interface{ StackPCs() []uintptr }); ok {
			pcs = st.StackPCs()
		}
		return false
	})
	if len(pcs) == 0 {
		buf := make([]uintptr, 64)
		pcs = buf[:runtime.Callers(4, buf)]
	}
	return formatFrames(pcs)
}
