package sitehandler

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestResolve(t *testing.T) {
	site := xelnsSite()
	tests := []struct {
		path string
		want target
		ok   bool
	}{
		{"", target{file: "index.html"}, true},
		{"/", target{file: "index.html"}, true},
		{"/services/", target{file: "services/index.html"}, true},
		{"/services", target{redirect: "/services/"}, true},
		{"//services//", target{file: "services/index.html"}, true},
		{"/assets/app-abc.js", target{file: "assets/app-abc.js"}, true},
		{"/assets", target{}, false},
		{"/assets/", target{}, false},
		{"/products/p1", target{}, false},
		{"/about/../vercel.json", target{}, false},
		{"/about/./index.html", target{}, false},
		{`/about\index.html`, target{}, false},
	}
	for _, tt := range tests {
		got, ok := resolve(site, tt.path)
		if ok != tt.ok || got != tt.want {
			t.Errorf("resolve(%q) = %+v, %v; want %+v, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolve_EmptySite(t *testing.T) {
	if _, ok := resolve(fstest.MapFS{}, "/"); ok {
		t.Fatal("resolved / on an empty site")
	}
}

func TestClassify(t *testing.T) {
	for name, want := range map[string]fileClass{
		"index.html":     classHTML,
		"products/p1":    classHTML,
		"assets/APP.JS":  classAsset,
		"logo.svg":       classAsset,
		"fonts/a.woff2":  classAsset,
		"site_data.json": classOther,
		"robots.txt":     classOther,
	} {
		if got := classify(name); got != want {
			t.Errorf("classify(%q) = %v", name, got)
		}
	}
}

func FuzzResolve(f *testing.F) {
	site := xelnsSite()
	for _, s := range []string{"/", "/about", "/../x", "/assets/app-abc.js", "/a/./b"} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, p string) {
		got, ok := resolve(site, p)
		if !ok {
			return
		}
		if got.file != "" && (strings.HasPrefix(got.file, "/") || strings.Contains(got.file, "..")) {
			t.Fatalf("resolve(%q) escaped: %q", p, got.file)
		}
		if got.redirect != "" && !strings.HasSuffix(got.redirect, "/") {
			t.Fatalf("resolve(%q) redirect %q lacks a trailing slash", p, got.redirect)
		}
	})
}
