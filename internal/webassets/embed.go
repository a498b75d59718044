// Package webassets embeds the pages the server needs before, or without, a
// generated site: the maintenance and 404 pages, and a holding page seeded as
// the first site.
package webassets

import (
	"embed"
	"io/fs"
)

//go:embed fallback seed
var files embed.FS

var (
	fallbackFS = mustSub("fallback")
	seedFS     = mustSub("seed")
)

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic("webassets: " + err.Error())
	}
	return sub
}

// FallbackFS holds maintenance.html and 404.html.
func FallbackFS() fs.FS { return fallbackFS }

// SeedSiteFS is the holding site. ok is false if the build shipped without
// a seed index.html.
func SeedSiteFS() (fsys fs.FS, ok bool) {
	if _, err := fs.Stat(seedFS, "index.html"); err != nil {
		return nil, false
	}
	return seedFS, true
}
