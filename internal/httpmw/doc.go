// Package httpmw holds the middleware the public server and the admin
// endpoint are assembled from. httpserver.NewHandler fixes the order:
// security headers, panic recovery, request id, client address, rate limit,
// tracing, site headers, metrics, request logger, router.
//
// Logged request fields never include headers, user agents or bodies.
package httpmw
