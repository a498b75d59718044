package storehttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/xelns/xelns-web/internal/entity"
	"github.com/xelns/xelns-web/internal/remotestore"
	"github.com/xelns/xelns-web/internal/snapshot"
	"github.com/xelns/xelns-web/internal/syncclient"
)

type countingMetrics struct {
	mu   sync.Mutex
	seen map[string]int
}

func (m *countingMetrics) IncStoreRequest(op, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]int{}
	}
	m.seen[op+"/"+outcome]++
}

func (m *countingMetrics) get(k string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[k]
}

func newTestAPI(t *testing.T, opts Options) (*API, *remotestore.Store) {
	t.Helper()
	rs := remotestore.New(remotestore.Options{
		Backend: remotestore.FileBackend{Path: filepath.Join(t.TempDir(), "site_data.json")},
	})
	opts.Store = rs
	return New(opts), rs
}

func do(t *testing.T, h http.Handler, method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStore_GetEmpty(t *testing.T) {
	api, _ := newTestAPI(t, Options{})
	rec := do(t, api.Handler(), http.MethodGet, "/api/store?t=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "{}" {
		t.Fatalf("body = %s", got)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store, max-age=0" {
		t.Fatalf("Cache-Control = %q", cc)
	}
}

func TestStore_PostThenGet(t *testing.T) {
	m := &countingMetrics{}
	api, _ := newTestAPI(t, Options{Metrics: m})
	h := api.Handler()

	rec := do(t, h, http.MethodPost, "/api/store",
		`{"products":[{"id":"p1"}],"messages":[{"id":"m1"}],"adminPassword":"pw","junk":true}`,
		"Content-Type", "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var res struct {
		Success     bool   `json:"success"`
		PublishedID string `json:"publishedId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.PublishedID == "" {
		t.Fatalf("result = %+v", res)
	}

	rec = do(t, h, http.MethodGet, "/api/store", "")
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc) != 2 {
		t.Fatalf("doc keys = %v", keys(doc))
	}
	if string(doc[snapshot.StampField]) != `"`+res.PublishedID+`"` {
		t.Fatalf("stamp = %s", doc[snapshot.StampField])
	}
	if m.get("publish/ok") != 1 || m.get("read/ok") != 1 {
		t.Fatalf("metrics = %v", m.seen)
	}
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestStore_MethodNotAllowed(t *testing.T) {
	api, _ := newTestAPI(t, Options{})
	h := api.Handler()
	cases := []struct{ method, path string }{
		{http.MethodPut, "/api/store"},
		{http.MethodDelete, "/api/store"},
		{http.MethodOptions, "/api/store"},
		{http.MethodPost, "/api/init-db"},
	}
	for _, c := range cases {
		rec := do(t, h, c.method, c.path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: status = %d", c.method, c.path, rec.Code)
			continue
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Method not allowed"}` {
			t.Errorf("%s %s: body = %s", c.method, c.path, got)
		}
		if rec.Header().Get("Cache-Control") != "no-store, max-age=0" {
			t.Errorf("%s %s: missing Cache-Control", c.method, c.path)
		}
	}
}

func TestStore_BadBody(t *testing.T) {
	api, _ := newTestAPI(t, Options{})
	rec := do(t, api.Handler(), http.MethodPost, "/api/store", "[1,2]")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStore_MistypedCollectionKeepsDocumentReadable(t *testing.T) {
	api, _ := newTestAPI(t, Options{})
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()
	c := syncclient.New(syncclient.Options{BaseURL: srv.URL + "/api", HTTPClient: srv.Client()})
	ctx := context.Background()

	if res := c.SaveAll(ctx, &snapshot.Snapshot{Products: snapshot.Ptr([]entity.Product{{ID: "p1"}})}); !res.Success {
		t.Fatalf("SaveAll: %+v", res)
	}
	rec := do(t, api.Handler(), http.MethodPost, "/api/store", `{"products":[{"id":"p2"}],"companyInfo":"not-an-object"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	got := c.FetchAll(ctx)
	if got == nil || got.Products == nil || (*got.Products)[0].ID != "p1" {
		t.Fatalf("FetchAll after rejected write = %+v", got)
	}
}

func TestStore_BodyTooLarge(t *testing.T) {
	api, _ := newTestAPI(t, Options{MaxBody: 16})
	rec := do(t, api.Handler(), http.MethodPost, "/api/store", `{"products":[{"id":"far too long"}]}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestInitDB(t *testing.T) {
	api, rs := newTestAPI(t, Options{})
	h := api.Handler()
	if _, err := rs.Publish(context.Background(), []byte(`{"services":[]}`)); err != nil {
		t.Fatal(err)
	}
	rec := do(t, h, http.MethodGet, "/api/init-db?t=5", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"success":true}` {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	rec = do(t, h, http.MethodGet, "/api/store", "")
	if strings.TrimSpace(rec.Body.String()) != "{}" {
		t.Fatalf("store not reset: %s", rec.Body)
	}
}

var errDiskGone = errors.New("disk gone")

type failingStore struct{}

func (failingStore) Read(context.Context) ([]byte, error)            { return nil, errDiskGone }
func (failingStore) Publish(context.Context, []byte) (string, error) { return "", errDiskGone }
func (failingStore) Reset(context.Context) error                     { return errDiskGone }

func TestStore_BackendErrors(t *testing.T) {
	h := New(Options{Store: failingStore{}}).Handler()

	rec := do(t, h, http.MethodGet, "/api/store", "")
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "disk gone") {
		t.Fatalf("GET: %d %s", rec.Code, rec.Body)
	}
	rec = do(t, h, http.MethodPost, "/api/store", "{}")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("POST: %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/init-db", "")
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("init-db: %d %s", rec.Code, rec.Body)
	}
}

func TestToken(t *testing.T) {
	api, _ := newTestAPI(t, Options{Token: "s3cret"})
	h := api.Handler()

	if rec := do(t, h, http.MethodGet, "/api/store", ""); rec.Code != http.StatusOK {
		t.Fatalf("reads must stay public, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/store", "{}"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/store", "{}", "Authorization", "Bearer nope"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/init-db", "", "Authorization", "s3cret"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing scheme: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/store", "{}", "Authorization", "Bearer s3cret"); rec.Code != http.StatusOK {
		t.Fatalf("good token: %d", rec.Code)
	}
}

func TestWriteLimitOnlyWrapsWrites(t *testing.T) {
	var limited int
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limited++
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	api, _ := newTestAPI(t, Options{WriteLimit: deny})
	h := api.Handler()

	if rec := do(t, h, http.MethodGet, "/api/store", ""); rec.Code != http.StatusOK {
		t.Fatalf("GET limited: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/store", "{}"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("POST: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/init-db", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("init-db: %d", rec.Code)
	}
	if limited != 2 {
		t.Fatalf("limited = %d", limited)
	}
}

func TestSyncClientRoundTrip(t *testing.T) {
	api, _ := newTestAPI(t, Options{Token: "tok"})
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	c := syncclient.New(syncclient.Options{
		BaseURL:    srv.URL + "/api",
		Token:      "tok",
		HTTPClient: srv.Client(),
	})
	ctx := context.Background()

	in := &snapshot.Snapshot{
		Products:      snapshot.Ptr([]entity.Product{{ID: "p9", Title: "扫描枪"}}),
		Messages:      snapshot.Ptr([]entity.ContactMessage{{ID: "msg_x"}}),
		AdminPassword: snapshot.Ptr("pw"),
	}
	if res := c.SaveAll(ctx, in); !res.Success {
		t.Fatalf("SaveAll: %+v", res)
	}

	got := c.FetchAll(ctx)
	if got == nil {
		t.Fatal("FetchAll returned nil")
	}
	if got.Products == nil || (*got.Products)[0].Title != "扫描枪" {
		t.Fatalf("products = %+v", got.Products)
	}
	if got.Messages != nil || got.AdminPassword != nil {
		t.Fatal("operator fields reached the remote document")
	}
	if _, err := time.Parse(snapshot.StampLayout, got.PublishedID); err != nil {
		t.Fatalf("stamp %q: %v", got.PublishedID, err)
	}

	if !c.InitRemote(ctx) {
		t.Fatal("InitRemote failed")
	}
	if got := c.FetchAll(ctx); got == nil || !got.Empty() {
		t.Fatalf("after init: %+v", got)
	}
}

type fakeSSM struct {
	value *string
	err   error
}

func (f fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !aws.ToBool(in.WithDecryption) {
		return nil, errors.New("expected decryption")
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: f.value}}, nil
}

func TestLoadToken(t *testing.T) {
	ctx := context.Background()
	tok, err := LoadToken(ctx, fakeSSM{value: aws.String(" abc \n")}, "/xelns/store-token")
	if err != nil || tok != "abc" {
		t.Fatalf("tok = %q err = %v", tok, err)
	}
	if _, err := LoadToken(ctx, fakeSSM{value: aws.String("  ")}, "p"); err == nil {
		t.Fatal("expected error for empty value")
	}
	if _, err := LoadToken(ctx, fakeSSM{}, "p"); err == nil {
		t.Fatal("expected error for nil value")
	}
	if _, err := LoadToken(ctx, fakeSSM{err: errors.New("denied")}, "p"); err == nil {
		t.Fatal("expected error")
	}
}
