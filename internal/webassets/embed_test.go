package webassets

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
)

func TestFallbackFS(t *testing.T) {
	fsys := FallbackFS()
	if err := fstest.TestFS(fsys, "maintenance.html", "404.html"); err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]string{
		"maintenance.html": "maintenance",
		"404.html":         "<html",
	} {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(strings.ToLower(string(b)), want) {
			t.Errorf("%s does not contain %q", name, want)
		}
	}
	if _, err := fs.Stat(fsys, "index.html"); err == nil {
		t.Fatal("fallback FS exposes the seed site")
	}
}

func TestSeedSiteFS(t *testing.T) {
	fsys, ok := SeedSiteFS()
	if !ok {
		t.Fatal("seed site missing")
	}
	b, err := fs.ReadFile(fsys, "index.html")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "XELNS") {
		t.Fatalf("seed index.html = %q", b)
	}
	if _, err := fs.Stat(fsys, "maintenance.html"); err == nil {
		t.Fatal("seed FS exposes the fallback pages")
	}
}

func TestSubtreesAreRooted(t *testing.T) {
	for name, fsys := range map[string]fs.FS{"fallback": FallbackFS(), "seed": seedFS} {
		if _, err := fs.Stat(fsys, "../fallback"); err == nil {
			t.Errorf("%s: escaped its subtree", name)
		}
	}
}
