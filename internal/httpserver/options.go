package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xelns/xelns-web/internal/health"
	"github.com/xelns/xelns-web/internal/httpmw"
	"github.com/xelns/xelns-web/internal/log"
)

// DefaultSiteMaxBody caps request bodies outside the API routes; nothing
// should send a body to the static site.
const DefaultSiteMaxBody = 1024

type Options struct {
	Logger log.Logger
	Port   int

	UseRecoverMW bool
	OnPanic      func()
	MetricsMW    func(http.Handler) http.Handler
	RateLimitMW  func(http.Handler) http.Handler
	ClientIPOpts httpmw.ClientIPOptions

	Health    health.Probe
	Readiness health.Probe

	// ContentInfo, when set, adds X-Site-Version and X-Site-Hash.
	ContentInfo httpmw.ContentInfo

	// APIRoutes registers routes that take precedence over the site.
	APIRoutes func(chi.Router)

	// SiteHandler serves every path no route matched.
	SiteHandler http.Handler

	SiteMaxBody int64
}
