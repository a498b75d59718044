package main

import (
	"context"
	"errors"
	"time"

	"github.com/xelns/xelns-web/internal/cfg"
	"github.com/xelns/xelns-web/internal/content"
	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/metrics"
	"github.com/xelns/xelns-web/internal/webassets"
)

// setupSites seeds the manager with the embedded holding page, loads the
// newest generated site if one exists and starts the watcher.
func setupSites(ctx context.Context, L log.Logger, conf cfg.App, m *metrics.ServerMetrics) *content.Manager {
	mgr := content.NewManager()

	if seedFS, ok := webassets.SeedSiteFS(); ok {
		mgr.Set(content.SeedSnapshot(seedFS))
		L.Info(ctx, "loaded seed site")
	} else {
		L.Info(ctx, "no seed site embedded")
	}

	if !conf.EnableSiteWatcher {
		publishSite(m, mgr)
		return mgr
	}

	sites := content.NewSiteDir(conf.SiteDir)
	if err := loadNewest(ctx, sites, mgr); err != nil {
		if errors.Is(err, content.ErrNoSite) {
			L.Info(ctx, "no generated site yet, serving seed", "site_dir", conf.SiteDir)
		} else {
			L.Error(ctx, err, "failed to load generated site, serving seed", "site_dir", conf.SiteDir)
		}
	} else {
		L.Info(ctx, "loaded generated site",
			"site_version", mgr.ContentVersion(),
			"site_hash", mgr.ContentHash(),
		)
	}
	publishSite(m, mgr)

	w := content.NewWatcher(&content.WatcherOptions{
		Logger:       L,
		Sites:        sites,
		Manager:      mgr,
		PollInterval: conf.SitePollInterval,
		Metrics:      m,
		OnSwap: func(hash, version string) {
			m.SetContentSite(version, hash)
			m.SetContentSource(string(content.SourceDir))
			m.SetContentLoadedTimestamp(time.Now())
		},
	})
	go w.Run(ctx)

	return mgr
}

func loadNewest(ctx context.Context, sites *content.SiteDir, mgr *content.Manager) error {
	name, err := sites.Current(ctx)
	if err != nil {
		return err
	}
	snap, err := sites.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := content.ValidateSnapshot(snap, content.DefaultValidationOptions()); err != nil {
		return err
	}
	mgr.Set(*snap)
	return nil
}

func publishSite(m *metrics.ServerMetrics, mgr *content.Manager) {
	m.SetContentSource(string(mgr.Source()))
	m.SetContentSite(mgr.ContentVersion(), mgr.ContentHash())
	if t := mgr.LoadedAt(); !t.IsZero() {
		m.SetContentLoadedTimestamp(t)
	}
}
