package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xelns/xelns-web/internal/entity"
	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/snapshot"
)

// spyLogger records warn and error messages.
type spyLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (s *spyLogger) With(...any) log.Logger                       { return s }
func (s *spyLogger) Debug(context.Context, string, ...any)        {}
func (s *spyLogger) Info(context.Context, string, ...any)         {}
func (s *spyLogger) Sync() error                                  { return nil }
func (s *spyLogger) Warn(_ context.Context, msg string, _ ...any) { s.add(&s.warns, msg) }
func (s *spyLogger) Error(_ context.Context, _ error, msg string, _ ...any) {
	s.add(&s.errors, msg)
}

func (s *spyLogger) add(dst *[]string, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*dst = append(*dst, msg)
}

func newTestStore(t *testing.T) (*Store, *MemoryBackend) {
	t.Helper()
	b := NewMemoryBackend()
	return New(Options{Backend: b}), b
}

func TestDefaults_FreshStore(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	d := entity.LoadDefaults()

	if got := s.Products(ctx); !reflect.DeepEqual(got, d.Products) {
		t.Errorf("Products = %+v", got)
	}
	if got := s.CompanyInfo(ctx); got.Name != d.CompanyInfo.Name {
		t.Errorf("CompanyInfo.Name = %q", got.Name)
	}
	if got := s.ServiceDetails(ctx); len(got) != len(d.ServiceDetails) {
		t.Errorf("ServiceDetails len = %d", len(got))
	}
	if got := s.Messages(ctx); got == nil || len(got) != 0 {
		t.Errorf("Messages = %#v, want empty non-nil", got)
	}
	if got := s.LastPublishedID(ctx); got != "" {
		t.Errorf("LastPublishedID = %q", got)
	}
	if s.IsAuthenticated(ctx) {
		t.Error("fresh store should not be authenticated")
	}

	// every entity present in the export, never nil
	snap := s.ExportSnapshot(ctx)
	var names []entity.Name
	for _, e := range snap.Entries() {
		if e.Value == nil {
			t.Errorf("%s exported nil", e.Name)
		}
		names = append(names, e.Name)
	}
	if len(names) != len(entity.Publishable)+1 {
		t.Fatalf("exported %d entries: %v", len(names), names)
	}
}

func TestGet_CorruptValueFallsBack(t *testing.T) {
	b := NewMemoryBackend()
	spy := &spyLogger{}
	s := New(Options{Backend: b, Logger: spy})
	ctx := context.Background()

	_ = b.Set(ctx, entity.Products.StorageKey(), []byte(`{not json`))
	_ = b.Set(ctx, entity.Services.StorageKey(), []byte(`null`))

	if got := s.Products(ctx); len(got) != len(entity.LoadDefaults().Products) {
		t.Fatalf("Products = %+v, want defaults", got)
	}
	if got := s.Services(ctx); len(got) == 0 {
		t.Fatal("null services should fall back to defaults")
	}
	if len(spy.warns) != 1 {
		t.Fatalf("warns = %v, want one corrupt warning", spy.warns)
	}
}

func TestSetProducts_FiresOnChange(t *testing.T) {
	var got []entity.Name
	s := New(Options{OnChange: func(n entity.Name) { got = append(got, n) }})
	ctx := context.Background()

	if err := s.SetProducts(ctx, []entity.Product{{ID: "x"}}); err != nil {
		t.Fatalf("SetProducts: %v", err)
	}
	if !s.ImportSnapshot(ctx, &snapshot.Snapshot{Services: snapshot.Ptr([]entity.Service{})}) {
		t.Fatal("import failed")
	}
	if len(got) != 1 || got[0] != entity.Products {
		t.Fatalf("changes = %v, want [products]", got)
	}
}

func TestQuotaExceeded_DoesNotCrash(t *testing.T) {
	b := NewMemoryBackend()
	spy := &spyLogger{}
	var alerts []string
	s := New(Options{
		Backend: b,
		Logger:  spy,
		Alert:   func(_ context.Context, msg string) { alerts = append(alerts, msg) },
	})
	ctx := context.Background()

	before := []entity.Product{{ID: "keep", Title: "Keep me"}}
	if err := s.SetProducts(ctx, before); err != nil {
		t.Fatalf("SetProducts: %v", err)
	}

	b.Quota = b.used + 10
	huge := []entity.Product{{ID: "big", Image: strings.Repeat("A", 4096)}}
	err := s.SetProducts(ctx, huge)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if got := s.Products(ctx); !reflect.DeepEqual(got, before) {
		t.Fatalf("Products = %+v, want prior value", got)
	}
	if len(alerts) != 1 || alerts[0] != QuotaMessage {
		t.Fatalf("alerts = %v", alerts)
	}
	if len(spy.errors) != 1 {
		t.Fatalf("errors logged = %v", spy.errors)
	}

	// other slots stay writable
	b.Quota = 0
	if err := s.SetHomePage(ctx, entity.HomePage{HeroTitle: "ok"}); err != nil {
		t.Fatalf("SetHomePage after quota: %v", err)
	}
}

func TestImportExport_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	priorHome := entity.HomePage{HeroTitle: "prior"}
	if err := s.SetHomePage(ctx, priorHome); err != nil {
		t.Fatal(err)
	}

	in := &snapshot.Snapshot{
		Products:      snapshot.Ptr([]entity.Product{{ID: "p9", Title: "New", Features: []string{"a"}}}),
		CompanyInfo:   &entity.CompanyInfo{Name: "ACME", QQ: []string{"1"}},
		Messages:      snapshot.Ptr([]entity.ContactMessage{{ID: "msg_1", Content: "hello"}}),
		AdminPassword: snapshot.Ptr("legacy-pw"),
	}
	if !s.ImportSnapshot(ctx, in) {
		t.Fatal("ImportSnapshot returned false")
	}
	if !s.ImportSnapshot(ctx, in) {
		t.Fatal("second ImportSnapshot returned false")
	}

	out := s.ExportSnapshot(ctx)
	if !reflect.DeepEqual(*out.Products, *in.Products) {
		t.Errorf("products = %+v", *out.Products)
	}
	if !reflect.DeepEqual(*out.CompanyInfo, *in.CompanyInfo) {
		t.Errorf("companyInfo = %+v", *out.CompanyInfo)
	}
	if !reflect.DeepEqual(*out.Messages, *in.Messages) {
		t.Errorf("messages = %+v", *out.Messages)
	}
	if out.AdminPassword == nil || *out.AdminPassword != "legacy-pw" {
		t.Errorf("adminPassword = %v", out.AdminPassword)
	}
	if *out.HomePageData != priorHome {
		t.Errorf("absent entity changed: %+v", *out.HomePageData)
	}
}

func TestImportJSON_MalformedWritesNothing(t *testing.T) {
	s, b := newTestStore(t)
	ctx := context.Background()

	for _, raw := range []string{`[]`, `"x"`, `{"products":{"id":1}}`, `{"products":[{"id":"a"}],"services":"bad"}`} {
		if s.ImportJSON(ctx, []byte(raw)) {
			t.Errorf("ImportJSON(%s) = true", raw)
		}
	}
	if b.Len() != 0 {
		t.Fatalf("backend has %d slots after rejected imports", b.Len())
	}
}

func TestImportSnapshot_Nil(t *testing.T) {
	s, _ := newTestStore(t)
	if s.ImportSnapshot(context.Background(), nil) {
		t.Fatal("nil snapshot imported")
	}
}

func TestImportSnapshot_BackendFailure(t *testing.T) {
	s, b := newTestStore(t)
	b.FailNext = errors.New("disk on fire")
	if s.ImportSnapshot(context.Background(), &snapshot.Snapshot{Products: snapshot.Ptr([]entity.Product{})}) {
		t.Fatal("import reported success after backend failure")
	}
}

func TestResetToDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_ = s.SetProducts(ctx, []entity.Product{{ID: "custom"}})
	_, _ = s.AddMessage(ctx, NewMessage{Name: "a"}, time.Now())
	_ = s.SetLastPublishedID(ctx, "stamp")

	if err := s.ResetToDefaults(ctx); err != nil {
		t.Fatalf("ResetToDefaults: %v", err)
	}
	if got := s.Products(ctx); got[0].ID != "p1" {
		t.Errorf("products[0] = %q, want p1", got[0].ID)
	}
	if got := s.Messages(ctx); len(got) != 0 {
		t.Errorf("messages = %d", len(got))
	}
	if got := s.LastPublishedID(ctx); got != "stamp" {
		t.Errorf("LastPublishedID = %q, reset should keep it", got)
	}
}

func TestLastPublishedID(t *testing.T) {
	s, b := newTestStore(t)
	ctx := context.Background()
	if err := s.SetLastPublishedID(ctx, "2024-01-01T00:00:00Z"); err != nil {
		t.Fatal(err)
	}
	if got := s.LastPublishedID(ctx); got != "2024-01-01T00:00:00Z" {
		t.Fatalf("LastPublishedID = %q", got)
	}
	raw, _ := b.Get(ctx, entity.PublishedIDKey)
	if string(raw) != `"2024-01-01T00:00:00Z"` {
		t.Fatalf("stored = %s, want JSON string", raw)
	}
}

func TestMessages_Lifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	first, err := s.AddMessage(ctx, NewMessage{Name: "A", Content: "one"}, now)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := s.AddMessage(ctx, NewMessage{Name: "B", Content: "two"}, now)

	if !strings.HasPrefix(first.ID, "msg_") || first.ID == second.ID {
		t.Fatalf("ids = %q, %q", first.ID, second.ID)
	}
	if first.Date != "2024-05-06 07:08:09" || first.Read {
		t.Fatalf("first = %+v", first)
	}

	list := s.Messages(ctx)
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("newest should be first: %+v", list)
	}
	if s.UnreadCount(ctx) != 2 {
		t.Fatalf("unread = %d", s.UnreadCount(ctx))
	}

	if err := s.MarkMessageRead(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if s.UnreadCount(ctx) != 1 {
		t.Fatalf("unread after mark = %d", s.UnreadCount(ctx))
	}

	if err := s.DeleteMessage(ctx, second.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteMessage(ctx, "msg_unknown"); err != nil {
		t.Fatal(err)
	}
	list = s.Messages(ctx)
	if len(list) != 1 || list[0].ID != first.ID || !list[0].Read {
		t.Fatalf("after delete: %+v", list)
	}
}

func TestLogin_DefaultPassword(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if s.Login(ctx, "wrong") {
		t.Fatal("wrong password accepted")
	}
	if !s.Login(ctx, entity.DefaultAdminPassword) {
		t.Fatal("default password rejected")
	}
	if !s.IsAuthenticated(ctx) {
		t.Fatal("session flag not set")
	}
	if err := s.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if s.IsAuthenticated(ctx) {
		t.Fatal("still authenticated after logout")
	}
}

func TestSaveAdminPassword_StoresHash(t *testing.T) {
	s, b := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveAdminPassword(ctx, "n3w-pass"); err != nil {
		t.Fatal(err)
	}
	raw, _ := b.Get(ctx, entity.AdminPassword.StorageKey())
	if strings.Contains(string(raw), "n3w-pass") {
		t.Fatal("plaintext password persisted")
	}
	if !s.CheckPassword(ctx, "n3w-pass") {
		t.Fatal("new password rejected")
	}
	if s.CheckPassword(ctx, entity.DefaultAdminPassword) {
		t.Fatal("default password still accepted")
	}
	if err := s.SaveAdminPassword(ctx, "  "); err == nil {
		t.Fatal("blank password accepted")
	}
}

func TestCheckPassword_LegacyPlaintext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.ImportSnapshot(ctx, &snapshot.Snapshot{AdminPassword: snapshot.Ptr("old-plain")})
	if !s.CheckPassword(ctx, "old-plain") {
		t.Fatal("legacy plaintext credential rejected")
	}
	if s.CheckPassword(ctx, "old-plain ") {
		t.Fatal("near match accepted")
	}
}

func TestMemoryBackend_QuotaAccounting(t *testing.T) {
	b := NewMemoryBackend()
	b.Quota = 10
	ctx := context.Background()

	if err := b.Set(ctx, "k", []byte("12345")); err != nil {
		t.Fatal(err)
	}
	// replacing a value frees its old bytes first
	if err := b.Set(ctx, "k", []byte("123456789")); err != nil {
		t.Fatalf("replace within quota: %v", err)
	}
	if err := b.Set(ctx, "k2", []byte("x")); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want quota", err)
	}
	_ = b.Delete(ctx, "k")
	if err := b.Set(ctx, "k2", []byte("x")); err != nil {
		t.Fatalf("after delete: %v", err)
	}
}
