package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"github.com/xelns/xelns-web/internal/xerrors"
)

func newJSON(t *testing.T, opts Options) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts.Writer = &buf
	opts.JsonFormat = true
	if opts.App == "" {
		opts.App = "xelns-web"
	}
	l, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l, &buf
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad record %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newJSON(t, Options{Level: slog.LevelWarn})
	ctx := context.Background()
	l.Debug(ctx, "dropped")
	l.Info(ctx, "dropped")
	l.Warn(ctx, "kept")

	recs := records(t, buf)
	if len(recs) != 1 || recs[0]["msg"] != "kept" {
		t.Fatalf("records = %v", recs)
	}
}

func TestFieldsAndWith(t *testing.T) {
	l, buf := newJSON(t, Options{Version: "1.2.3"})
	child := l.With("component", "storehttp", 42, "skipped-key")
	child.Info(context.Background(), "published", "bytes", 10, "odd")

	recs := records(t, buf)
	if len(recs) != 1 {
		t.Fatalf("records = %d", len(recs))
	}
	r := recs[0]
	if r["app"] != "xelns-web" || r["version"] != "1.2.3" {
		t.Fatalf("base attrs = %v", r)
	}
	if r["component"] != "storehttp" || r["bytes"] != float64(10) {
		t.Fatalf("kv attrs = %v", r)
	}
	if _, ok := r["odd"]; ok {
		t.Fatal("dangling value became a key")
	}
	src, _ := r["source"].(map[string]any)
	if file, _ := src["file"].(string); !strings.HasSuffix(file, "log_test.go") {
		t.Fatalf("source = %v", r["source"])
	}
}

func TestWith_DoesNotLeakIntoParent(t *testing.T) {
	l, buf := newJSON(t, Options{})
	_ = l.With("session", "admin")
	l.Info(context.Background(), "plain")
	if _, ok := records(t, buf)[0]["session"]; ok {
		t.Fatal("child attr leaked into parent")
	}
}

func TestError_ChainFields(t *testing.T) {
	l, buf := newJSON(t, Options{IncludeErrorLinks: true})
	root := errors.New("disk full")
	err := xerrors.Wrap(fmt.Errorf("write site_data.json: %w", root), "publish")

	l.Error(context.Background(), err, "store write failed")

	r := records(t, buf)[0]
	if r["level"] != "ERROR" {
		t.Fatalf("level = %v", r["level"])
	}
	if r["cause_type"] != "*errors.errorString" {
		t.Fatalf("cause_type = %v", r["cause_type"])
	}
	if r["error_type"] != "*errors.errorString" {
		t.Fatalf("error_type = %v", r["error_type"])
	}
	chain, _ := r["error_chain"].([]any)
	if len(chain) != 3 || chain[2] != "disk full" {
		t.Fatalf("error_chain = %v", r["error_chain"])
	}
	links, _ := r["error_links"].([]any)
	if len(links) == 0 {
		t.Fatal("no error_links")
	}
	first, _ := links[0].(map[string]any)
	if fn, _ := first["func"].(string); !strings.HasSuffix(fn, "TestError_ChainFields") {
		t.Fatalf("first link = %v", first)
	}
	if s, _ := r["stack"].(string); s == "" {
		t.Fatal("error record without stack")
	}
}

func TestError_NilErr(t *testing.T) {
	l, buf := newJSON(t, Options{})
	l.Error(context.Background(), nil, "nothing to see")
	r := records(t, buf)[0]
	if _, ok := r["err"]; ok {
		t.Fatal("err field for nil error")
	}
}

func TestStackUsesErrorStack(t *testing.T) {
	l, buf := newJSON(t, Options{})
	err := makeStacked()
	l.Error(context.Background(), err, "failed")
	s, _ := records(t, buf)[0]["stack"].(string)
	if !strings.Contains(s, "makeStacked") {
		t.Fatalf("stack does not start at the error origin:\n%s", s)
	}
}

func makeStacked() error { return xerrors.New("boom") }

func TestStacktraceLevel(t *testing.T) {
	l, buf := newJSON(t, Options{StacktraceLevel: slog.LevelWarn})
	l.Warn(context.Background(), "slow build")
	if _, ok := records(t, buf)[0]["stack"]; !ok {
		t.Fatal("warn record missing stack")
	}

	l2, buf2 := newJSON(t, Options{})
	l2.Warn(context.Background(), "slow build")
	if _, ok := records(t, buf2)[0]["stack"]; ok {
		t.Fatal("stack below the stacktrace level")
	}
}

func TestTraceCorrelation(t *testing.T) {
	l, buf := newJSON(t, Options{})
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	l.Info(ctx, "traced")

	r := records(t, buf)[0]
	if r["trace_id"] != sc.TraceID().String() || r["span_id"] != sc.SpanID().String() {
		t.Fatalf("trace fields = %v / %v", r["trace_id"], r["span_id"])
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{App: "xelns-web", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	l.Info(context.Background(), "hello", "k", "v")
	if out := buf.String(); !strings.Contains(out, "msg=hello") || !strings.Contains(out, "k=v") {
		t.Fatalf("text output = %q", out)
	}
}

func TestContextCarriage(t *testing.T) {
	if _, ok := FromContext(context.Background()).(nop); !ok {
		t.Fatal("empty context should yield Nop")
	}
	l, _ := newJSON(t, Options{})
	if FromContext(WithContext(context.Background(), l)) != l {
		t.Fatal("logger not carried")
	}
}

func TestNop(t *testing.T) {
	n := Nop()
	n.With("a").Info(context.Background(), "x", "odd")
	n.Error(context.Background(), errors.New("e"), "x")
	if err := n.Sync(); err != nil {
		t.Fatal(err)
	}
}
