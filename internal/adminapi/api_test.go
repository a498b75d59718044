package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xelns/xelns-web/internal/remotestore"
	"github.com/xelns/xelns-web/internal/snapshot"
	"github.com/xelns/xelns-web/internal/storehttp"
)

type fakeGenerator struct {
	written *snapshot.Snapshot
	genPath string
	genErr  error
}

func (f *fakeGenerator) WriteSnapshot(snap *snapshot.Snapshot) (string, error) {
	f.written = snap
	return "/tmp/snapshots/ui-x.json", nil
}

func (f *fakeGenerator) Generate(_ context.Context, p string) (string, error) {
	f.genPath = p
	if f.genErr != nil {
		return "", f.genErr
	}
	return "/tmp/static-sites/site-x", nil
}

type spyMetrics struct {
	outcomes []string
}

func (s *spyMetrics) ObserveGeneration(outcome string, seconds float64) {
	s.outcomes = append(s.outcomes, outcome)
}

func newHandler(t *testing.T, gen *fakeGenerator) http.Handler {
	t.Helper()
	return newHandlerWithMetrics(t, gen, nil)
}

func newHandlerWithMetrics(t *testing.T, gen *fakeGenerator, m Metrics) http.Handler {
	t.Helper()
	rs := remotestore.New(remotestore.Options{
		Backend: remotestore.FileBackend{Path: filepath.Join(t.TempDir(), "site_data.json")},
	})
	return New(Options{
		Generator: gen,
		Store:     storehttp.New(storehttp.Options{Store: rs}),
		Metrics:   m,
	}).Handler()
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHealth(t *testing.T) {
	rec := serve(newHandler(t, &fakeGenerator{}), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || decode(t, rec)["ok"] != true {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header: %v", rec.Header())
	}
}

func TestOptionsAlwaysOK(t *testing.T) {
	h := newHandler(t, &fakeGenerator{})
	for _, p := range []string{"/generate-static", "/api/store", "/nowhere"} {
		req := httptest.NewRequest(http.MethodOptions, p, nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "content-type")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || decode(t, rec)["ok"] != true {
			t.Errorf("%s: status = %d body = %s", p, rec.Code, rec.Body)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("%s: missing allow-origin", p)
		}
	}
}

func TestGenerate(t *testing.T) {
	gen := &fakeGenerator{}
	rec := serve(newHandler(t, gen), http.MethodPost, "/generate-static", `{"products":[{"id":"p1"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	body := decode(t, rec)
	if body["ok"] != true || body["outDir"] != "/tmp/static-sites/site-x" {
		t.Fatalf("body = %v", body)
	}
	if gen.written == nil || gen.written.Products == nil || (*gen.written.Products)[0].ID != "p1" {
		t.Fatalf("written = %+v", gen.written)
	}
	if gen.genPath != "/tmp/snapshots/ui-x.json" {
		t.Fatalf("generated from %q", gen.genPath)
	}
}

func TestGenerate_GarbageBodyIsEmptySnapshot(t *testing.T) {
	gen := &fakeGenerator{}
	rec := serve(newHandler(t, gen), http.MethodPost, "/generate-static", "not json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gen.written == nil || !gen.written.Empty() {
		t.Fatalf("written = %+v", gen.written)
	}
}

func TestGenerate_Failure(t *testing.T) {
	gen := &fakeGenerator{genErr: errors.New("sitegen: build failed: exit status 1")}
	rec := serve(newHandler(t, gen), http.MethodPost, "/generate-static", "{}")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["ok"] != false || !strings.Contains(body["error"].(string), "build failed") {
		t.Fatalf("body = %v", body)
	}
}

func TestNotFound(t *testing.T) {
	h := newHandler(t, &fakeGenerator{})
	for _, c := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/generate-static"},
		{http.MethodPost, "/health"},
	} {
		rec := serve(h, c.method, c.path, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d", c.method, c.path, rec.Code)
			continue
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"ok":false,"error":"not_found"}` {
			t.Errorf("%s %s: body = %s", c.method, c.path, got)
		}
	}
}

func TestStoreProxy(t *testing.T) {
	h := newHandler(t, &fakeGenerator{})

	rec := serve(h, http.MethodPost, "/api/store", `{"services":[],"messages":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST: %d %s", rec.Code, rec.Body)
	}
	rec = serve(h, http.MethodGet, "/api/store?t=123", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET: %d", rec.Code)
	}
	body := decode(t, rec)
	if _, ok := body["services"]; !ok {
		t.Fatalf("body = %v", body)
	}
	if _, ok := body["messages"]; ok {
		t.Fatal("messages published")
	}
	if rec.Header().Get("Cache-Control") != "no-store, max-age=0" {
		t.Fatal("store headers lost through proxy")
	}

	rec = serve(h, http.MethodPut, "/api/store", "{}")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("PUT: %d", rec.Code)
	}

	rec = serve(h, http.MethodGet, "/api/init-db", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("init-db: %d", rec.Code)
	}
	rec = serve(h, http.MethodGet, "/api/store", "")
	if strings.TrimSpace(rec.Body.String()) != "{}" {
		t.Fatalf("after init: %s", rec.Body)
	}
}

func TestGenerate_RecordsOutcome(t *testing.T) {
	m := &spyMetrics{}
	h := newHandlerWithMetrics(t, &fakeGenerator{}, m)
	serve(h, http.MethodPost, "/generate-static", "{}")

	h = newHandlerWithMetrics(t, &fakeGenerator{genErr: errors.New("boom")}, m)
	serve(h, http.MethodPost, "/generate-static", "{}")

	if len(m.outcomes) != 2 || m.outcomes[0] != "ok" || m.outcomes[1] != "error" {
		t.Fatalf("outcomes = %v", m.outcomes)
	}
}
