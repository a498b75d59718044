package sitehandler

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/xelns/xelns-web/internal/content"
	"github.com/xelns/xelns-web/internal/log"
)

var ErrInvalidOptions = errors.New("sitehandler: invalid options")

// SnapshotProvider hands out the site currently being served.
// *content.Manager implements it.
type SnapshotProvider interface {
	Get() (*content.Snapshot, bool)
}

// CachePolicy holds Cache-Control values by file class. HTML covers
// extensionless paths too.
type CachePolicy struct {
	HTML  string
	Asset string
	Other string
}

var DefaultCachePolicy = CachePolicy{
	HTML:  "no-cache",
	Asset: "public, max-age=31536000, immutable",
	Other: "public, max-age=3600",
}

type Options struct {
	Logger  log.Logger
	Content SnapshotProvider

	// FallbackFS holds the maintenance page and a last-resort 404 page.
	FallbackFS fs.FS

	MaintenancePage string // in FallbackFS, default maintenance.html
	NotFoundPage    string // in the site, then FallbackFS; default 404.html

	// SPAFallback answers unknown extensionless paths with index.html so
	// client-side routes such as /products/p1 load the app.
	SPAFallback bool

	// Hidden names site files that are never served. Default vercel.json.
	Hidden []string

	Cache CachePolicy
}

func (o *Options) applyDefaults() {
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	if o.MaintenancePage == "" {
		o.MaintenancePage = "maintenance.html"
	}
	if o.NotFoundPage == "" {
		o.NotFoundPage = "404.html"
	}
	if o.Hidden == nil {
		o.Hidden = []string{"vercel.json"}
	}
	if o.Cache.HTML == "" {
		o.Cache.HTML = DefaultCachePolicy.HTML
	}
	if o.Cache.Asset == "" {
		o.Cache.Asset = DefaultCachePolicy.Asset
	}
	if o.Cache.Other == "" {
		o.Cache.Other = DefaultCachePolicy.Other
	}
}

func (o *Options) check() error {
	switch {
	case o.Content == nil:
		return fmt.Errorf("%w: Content is nil", ErrInvalidOptions)
	case o.FallbackFS == nil:
		return fmt.Errorf("%w: FallbackFS is nil", ErrInvalidOptions)
	}
	if !isFile(o.FallbackFS, o.MaintenancePage) {
		return fmt.Errorf("%w: fallback FS has no %s", ErrInvalidOptions, o.MaintenancePage)
	}
	return nil
}
