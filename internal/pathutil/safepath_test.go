package pathutil

import (
	"strings"
	"testing"
)

func TestHasDotSegments(t *testing.T) {
	for p, want := range map[string]bool{
		"/products/p1": false,
		"/a/./b":       true,
		"/a/../b":      true,
		"..":           true,
		"/a/.":         true,
		"/...":         false,
		"/.well-known": false,
	} {
		if got := HasDotSegments(p); got != want {
			t.Errorf("HasDotSegments(%q) = %v", p, got)
		}
	}
}

func TestCleanURLPath(t *testing.T) {
	tests := []struct {
		in, want string
		ok       bool
	}{
		{"", "/", true},
		{"/", "/", true},
		{"about", "/about", true},
		{"/services/", "/services/", true},
		{"//assets//app.js", "/assets/app.js", true},
		{"/a/../etc/passwd", "", false},
		{"/..%2f", "", false},
		{"/a\\b", "", false},
		{"/a\x00", "", false},
		{"/./index.html", "", false},
	}
	for _, tt := range tests {
		got, ok := CleanURLPath(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("CleanURLPath(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func FuzzCleanURLPath(f *testing.F) {
	for _, s := range []string{"/", "/a/b/", "../x", "/a/./b", "/.hidden"} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, p string) {
		clean, ok := CleanURLPath(p)
		if !ok {
			return
		}
		if !strings.HasPrefix(clean, "/") || strings.Contains(clean, "..") || HasDotSegments(clean) {
			t.Fatalf("CleanURLPath(%q) = %q escapes the root", p, clean)
		}
	})
}
