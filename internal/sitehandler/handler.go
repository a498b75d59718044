// Package sitehandler serves the active generated site: clean URLs, an SPA
// fallback for client routes, themed 404s and a maintenance page while no
// site is loaded.
package sitehandler

import (
	"io/fs"
	"net/http"
	"path"
	"slices"
)

type Handler struct {
	opts Options
}

func New(opts Options) (*Handler, error) {
	opts.applyDefaults()
	if err := opts.check(); err != nil {
		return nil, err
	}
	return &Handler{opts: opts}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snap, ok := h.opts.Content.Get()
	if !ok {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Retry-After", "60")
		serveWithStatus(w, r, http.StatusServiceUnavailable, h.opts.FallbackFS, h.opts.MaintenancePage)
		return
	}

	t, found := resolve(snap.FS, r.URL.Path)
	if t.redirect != "" {
		http.Redirect(w, r, t.redirect, http.StatusPermanentRedirect)
		return
	}
	if found && slices.Contains(h.opts.Hidden, t.file) {
		found = false
	}
	if !found {
		if !h.opts.SPAFallback || path.Ext(r.URL.Path) != "" || !isFile(snap.FS, "index.html") {
			h.notFound(w, r, snap.FS)
			return
		}
		t.file = "index.html"
	}

	if cc := h.opts.Cache.For(t.file); cc != "" {
		w.Header().Set("Cache-Control", cc)
	}
	http.ServeFileFS(w, r, snap.FS, t.file)
}

// notFound prefers the site's own 404 page, then the embedded one, then
// plain text.
func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, site fs.FS) {
	w.Header().Set("Cache-Control", "no-store")
	for _, fsys := range []fs.FS{site, h.opts.FallbackFS} {
		if isFile(fsys, h.opts.NotFoundPage) {
			serveWithStatus(w, r, http.StatusNotFound, fsys, h.opts.NotFoundPage)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("404 page not found"))
}

// pinnedStatus replaces the first status ServeFileFS writes.
type pinnedStatus struct {
	http.ResponseWriter
	status int
	done   bool
}

func (w *pinnedStatus) WriteHeader(code int) {
	if !w.done {
		w.done = true
		code = w.status
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *pinnedStatus) Write(p []byte) (int, error) {
	if !w.done {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(p)
}

func serveWithStatus(w http.ResponseWriter, r *http.Request, status int, fsys fs.FS, name string) {
	http.ServeFileFS(&pinnedStatus{ResponseWriter: w, status: status}, r, fsys, name)
}
