package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/xelns/xelns-web/internal/cryptoutil"
)

func writeSite(t *testing.T, base, name string, files map[string]string) {
	t.Helper()
	for p, body := range files {
		full := filepath.Join(base, name, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSiteDir_Current_Missing(t *testing.T) {
	d := NewSiteDir(filepath.Join(t.TempDir(), "nope"))
	if _, err := d.Current(context.Background()); !errors.Is(err, ErrNoSite) {
		t.Fatalf("err = %v", err)
	}
}

func TestSiteDir_Current_PicksNewest(t *testing.T) {
	base := t.TempDir()
	writeSite(t, base, "site-2024-05-06T07-08-09-123Z", map[string]string{"index.html": "old"})
	writeSite(t, base, "site-2024-06-01T00-00-00-000Z", map[string]string{"index.html": "new"})
	writeSite(t, base, "zzz-not-a-site", map[string]string{"index.html": "x"})
	if err := os.WriteFile(filepath.Join(base, "site-9999.txt"), []byte("file"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewSiteDir(base).Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "site-2024-06-01T00-00-00-000Z" {
		t.Fatalf("Current() = %q", got)
	}
}

func TestSiteDir_Load(t *testing.T) {
	base := t.TempDir()
	name := "site-2024-05-06T07-08-09-123Z"
	writeSite(t, base, name, map[string]string{
		"index.html":    "<html>hi</html>",
		"vercel.json":   "{}",
		"assets/app.js": "js",
	})

	snap, err := NewSiteDir(base).Load(context.Background(), name)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Meta.Version != name || snap.Meta.Source != SourceDir {
		t.Fatalf("meta = %+v", snap.Meta)
	}
	if snap.Meta.SHA256 != cryptoutil.SHA256Hex([]byte("<html>hi</html>")) {
		t.Fatalf("SHA256 = %q", snap.Meta.SHA256)
	}
	if err := fstest.TestFS(snap.FS, "index.html", "vercel.json", "assets/app.js"); err != nil {
		t.Fatal(err)
	}
	if err := ValidateSnapshot(snap, DefaultValidationOptions()); err != nil {
		t.Fatalf("generated site failed validation: %v", err)
	}
}

func TestSiteDir_Load_RejectsBadNames(t *testing.T) {
	base := t.TempDir()
	d := NewSiteDir(base)
	for _, name := range []string{"", "other", "site-a/../../etc", `site-a\b`, "site-missing"} {
		if _, err := d.Load(context.Background(), name); err == nil {
			t.Errorf("Load(%q) succeeded", name)
		}
	}
}

func TestSeedSnapshot(t *testing.T) {
	snap := SeedSnapshot(fstest.MapFS{"index.html": {Data: []byte("seed")}})
	if snap.Meta.Source != SourceSeed || snap.Meta.Version != "seed" || snap.Meta.SHA256 == "" {
		t.Fatalf("meta = %+v", snap.Meta)
	}
}
