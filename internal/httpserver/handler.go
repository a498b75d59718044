// Package httpserver assembles and runs the public listener: the generated
// site, the store endpoints and the probe routes behind the shared
// middleware stack.
package httpserver

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xelns/xelns-web/internal/health"
	"github.com/xelns/xelns-web/internal/httpmw"
	"github.com/xelns/xelns-web/internal/log"
)

var compressible = []string{
	"text/html",
	"text/css",
	"application/javascript",
	"text/javascript",
	"application/json",
	"image/svg+xml",
	"image/x-icon",
}

// NewHandler returns the routed handler wrapped in the middleware stack.
// The caller owns the *http.Server.
func NewHandler(opts *Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	limit := opts.SiteMaxBody
	if limit <= 0 {
		limit = DefaultSiteMaxBody
	}
	siteBody := httpmw.MaxBody(limit)

	r := chi.NewRouter()
	r.Use(middleware.Compress(5, compressible...))
	r.Use(httpmw.AnnotateHTTPRoute)
	r.Use(httpmw.AccessLog())

	r.Group(func(r chi.Router) {
		r.Use(siteBody)
		if opts.Health != nil {
			r.Get("/-/healthy", health.HealthzHandler(opts.Health))
		}
		if opts.Readiness != nil {
			r.Get("/-/ready", health.ReadyzHandler(opts.Readiness))
		}
	})

	// API handlers enforce their own body limits.
	if opts.APIRoutes != nil {
		opts.APIRoutes(r)
	}

	if opts.SiteHandler != nil {
		site := siteBody(opts.SiteHandler)
		r.NotFound(site.ServeHTTP)
		r.MethodNotAllowed(site.ServeHTTP)
	}

	var recoverMW func(http.Handler) http.Handler
	if opts.UseRecoverMW {
		recoverMW = httpmw.Recover(opts.Logger, opts.OnPanic)
	}

	return httpmw.Chain(r,
		httpmw.SecurityHeaders,
		recoverMW,
		httpmw.RequestID(httpmw.DefaultRequestIDHeader),
		httpmw.ClientIPWithOptions(opts.ClientIPOpts),
		opts.RateLimitMW,
		traced,
		contentHeaders(opts.ContentInfo),
		httpmw.TraceResponseHeaders("", ""),
		opts.MetricsMW,
		httpmw.WithLogger(opts.Logger),
	)
}

func contentHeaders(info httpmw.ContentInfo) func(http.Handler) http.Handler {
	if info == nil {
		return nil
	}
	return httpmw.ContentHeaders(info)
}

// traced starts a server span for page and API requests. Probes and static
// assets are not traced.
func traced(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "http.server",
		otelhttp.WithFilter(func(r *http.Request) bool { return traceable(r.URL.Path) }),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithPublicEndpointFn(func(*http.Request) bool { return true }),
	)
}

func traceable(p string) bool {
	switch p {
	case "/-/healthy", "/-/ready", "/favicon.ico", "/favicon.svg", "/robots.txt":
		return false
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".css", ".js", ".png", ".jpg", ".jpeg", ".webp", ".svg", ".ico", ".woff", ".woff2", ".map":
		return false
	}
	return true
}
