package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/trace"

	"github.com/xelns/xelns-web/internal/version"
)

func gather(t *testing.T, m *ServerMetrics, name string) *dto.MetricFamily {
	t.Helper()
	fams, err := m.reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range fams {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric %s not registered", name)
	return nil
}

func labels(m *dto.Metric) map[string]string {
	out := map[string]string{}
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func TestBuildInfo(t *testing.T) {
	m := New()
	dirty := true
	m.SetBuildInfoFromVersion("xelns-web", "server", version.Info{Version: "1.2.3", Commit: "abc", VCSDirty: &dirty})

	fam := gather(t, m, "xelns_build_info")
	if len(fam.GetMetric()) != 1 {
		t.Fatalf("series = %d", len(fam.GetMetric()))
	}
	got := labels(fam.GetMetric()[0])
	if got["version"] != "1.2.3" || got["component"] != "server" || got["vcs_dirty"] != "true" {
		t.Fatalf("labels = %v", got)
	}
	if fam.GetMetric()[0].GetGauge().GetValue() != 1 {
		t.Fatal("build_info value != 1")
	}
}

func TestBuildInfo_UnknownDirty(t *testing.T) {
	m := New()
	m.SetBuildInfoFromVersion("xelns-web", "adminapi", version.Info{})
	if got := labels(gather(t, m, "xelns_build_info").GetMetric()[0])["vcs_dirty"]; got != "unknown" {
		t.Fatalf("vcs_dirty = %q", got)
	}
}

func TestContentSeriesReplacePrevious(t *testing.T) {
	m := New()
	m.SetContentSource("seed")
	m.SetContentSource("dir")
	m.SetContentSite("v1", "aaa")
	m.SetContentSite("v2", "bbb")

	if n := testutil.CollectAndCount(m.siteSource); n != 1 {
		t.Fatalf("source series = %d", n)
	}
	if v := testutil.ToFloat64(m.siteSource.WithLabelValues("dir")); v != 1 {
		t.Fatalf("dir = %v", v)
	}
	if n := testutil.CollectAndCount(m.siteInfo); n != 1 {
		t.Fatalf("site series = %d", n)
	}

	at := time.Unix(1700000000, 0)
	m.SetContentLoadedTimestamp(at)
	if v := testutil.ToFloat64(m.siteLoadedAt); v != 1700000000 {
		t.Fatalf("loaded at = %v", v)
	}
}

func TestWatcherAndFlowCounters(t *testing.T) {
	m := New()
	m.IncWatcherPolls()
	m.IncWatcherPolls()
	m.IncWatcherSwaps()
	m.IncWatcherError("validation")
	m.SetWatcherStale(true)
	m.IncStoreRequest("publish", "ok")
	m.IncAutoSave("error")
	m.IncReconcile("applied")
	m.ObserveGeneration("ok", 12)
	m.SetProfilingActive(true)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"polls", testutil.ToFloat64(m.polls), 2},
		{"swaps", testutil.ToFloat64(m.swaps), 1},
		{"watch errors", testutil.ToFloat64(m.watchErrors.WithLabelValues("validation")), 1},
		{"stale", testutil.ToFloat64(m.stale), 1},
		{"store", testutil.ToFloat64(m.storeRequests.WithLabelValues("publish", "ok")), 1},
		{"autosave", testutil.ToFloat64(m.autosaves.WithLabelValues("error")), 1},
		{"reconcile", testutil.ToFloat64(m.reconciles.WithLabelValues("applied")), 1},
		{"generations", testutil.ToFloat64(m.generations.WithLabelValues("ok")), 1},
		{"profiling", testutil.ToFloat64(m.profiling), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	m.SetWatcherStale(false)
	if testutil.ToFloat64(m.stale) != 0 {
		t.Fatal("stale not cleared")
	}
}

func TestMiddleware_RouteLabels(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "item")
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	h := m.Middleware(r)

	for _, path := range []string{"/items/1", "/items/2", "/boom", "/no/such/page"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if v := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/items/{id}", "200")); v != 2 {
		t.Fatalf("item requests = %v", v)
	}
	if v := testutil.ToFloat64(m.errors.WithLabelValues("GET", "/boom")); v != 1 {
		t.Fatalf("errors = %v", v)
	}
	if v := testutil.ToFloat64(m.requests.WithLabelValues("GET", unmatchedRoute, "404")); v != 1 {
		t.Fatalf("unmatched = %v", v)
	}
	if v := testutil.ToFloat64(m.inflight); v != 0 {
		t.Fatalf("inflight = %v", v)
	}
}

func TestMiddleware_TraceExemplar(t *testing.T) {
	m := New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(trace.ContextWithSpanContext(context.Background(), sc))
	h.ServeHTTP(httptest.NewRecorder(), req)

	fam := gather(t, m, "xelns_http_request_duration_seconds")
	var found bool
	for _, b := range fam.GetMetric()[0].GetHistogram().GetBucket() {
		if ex := b.GetExemplar(); ex != nil {
			found = labels(&dto.Metric{Label: ex.GetLabel()})["trace_id"] == sc.TraceID().String()
			break
		}
	}
	if !found {
		t.Fatal("no exemplar carrying the trace id")
	}
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.IncHttpPanic()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"xelns_http_panics_total 1", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
