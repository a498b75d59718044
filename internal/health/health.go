// Package health holds the liveness and readiness probes behind /-/healthy
// and /-/ready. The server is ready once a site (seed or generated) is
// loaded and stops being ready as soon as shutdown begins.
package health

import (
	"context"
	"net/http"
	"sync"

	"github.com/xelns/xelns-web/internal/xerrors"
)

// Probe reports nil when healthy, or the reason it is not.
type Probe interface {
	Check(ctx context.Context) error
}

type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// Fixed always passes, or always fails with reason ("unhealthy" when empty).
func Fixed(ok bool, reason string) CheckFunc {
	if ok {
		return func(context.Context) error { return nil }
	}
	if reason == "" {
		reason = "unhealthy"
	}
	return func(context.Context) error { return xerrors.New(reason) }
}

// All passes when every non-nil probe passes and reports the first failure.
func All(probes ...Probe) CheckFunc {
	return func(ctx context.Context) error {
		for _, p := range probes {
			if p == nil {
				continue
			}
			if err := p.Check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// ShutdownGate fails readiness once Set is called, so load balancers stop
// routing new requests during the drain.
type ShutdownGate struct {
	mu     sync.RWMutex
	closed bool
	reason string
}

func (g *ShutdownGate) Set(reason string) {
	if reason == "" {
		reason = "draining"
	}
	g.mu.Lock()
	g.closed, g.reason = true, reason
	g.mu.Unlock()
}

func (g *ShutdownGate) Probe() CheckFunc {
	return func(context.Context) error {
		g.mu.RLock()
		defer g.mu.RUnlock()
		if !g.closed {
			return nil
		}
		return xerrors.New(g.reason)
	}
}

// HealthzHandler answers 200 "ok" or 503 with the failure reason.
func HealthzHandler(p Probe) http.HandlerFunc { return probeHandler(p, "ok\n") }

// ReadyzHandler answers 200 "ready" or 503 with the failure reason.
func ReadyzHandler(p Probe) http.HandlerFunc { return probeHandler(p, "ready\n") }

func probeHandler(p Probe, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		if p != nil {
			if err := p.Check(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}
}
