package httpmw

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Generated sites carry an inline bootstrap script, and banners may point at
// data: or https: images.
const contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' data:; " +
	"connect-src 'self'; base-uri 'self'; form-action 'self'; frame-ancestors 'none'; " +
	"object-src 'none'; upgrade-insecure-requests"

var securityHeaders = [][2]string{
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload"},
	{"Content-Security-Policy", contentSecurityPolicy},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()"},
	{"X-Permitted-Cross-Domain-Policies", "none"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
}

// SecurityHeaders sets the browser hardening headers on every response.
// There is no CSRF token: the only write endpoint takes a JSON body and an
// optional bearer token, never cookies.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}

// ContentInfo identifies the generated site being served.
type ContentInfo interface {
	ContentVersion() string
	ContentHash() string
}

// ContentHeaders adds X-Site-Version and a 12-character X-Site-Hash once a
// site is active, and tags the request span with both.
func ContentHeaders(info ContentInfo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if info == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ver, sum := info.ContentVersion(), info.ContentHash()
			span := trace.SpanFromContext(r.Context())
			if ver != "" {
				w.Header().Set("X-Site-Version", ver)
				span.SetAttributes(attribute.String("site.version", ver))
			}
			if sum != "" {
				short := sum
				if len(short) > 12 {
					short = short[:12]
				}
				w.Header().Set("X-Site-Hash", short)
				span.SetAttributes(attribute.String("site.hash", sum))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TraceResponseHeaders echoes the trace and span ids of a sampled request
// (defaults X-Trace-Id and X-Span-Id).
func TraceResponseHeaders(traceHeader, spanHeader string) func(http.Handler) http.Handler {
	if traceHeader == "" {
		traceHeader = "X-Trace-Id"
	}
	if spanHeader == "" {
		spanHeader = "X-Span-Id"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				w.Header().Set(traceHeader, sc.TraceID().String())
				w.Header().Set(spanHeader, sc.SpanID().String())
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBody caps the request body; reading past n fails and the server
// answers 413.
func MaxBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
