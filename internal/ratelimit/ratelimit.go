package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/xelns/xelns-web/internal/httpmw"
)

const (
	DefaultPerSecond   = 10
	DefaultBurst       = 30
	DefaultTTL         = 5 * time.Minute
	DefaultMaxVisitors = 100000
)

// verdict is the outcome of one admission check.
type verdict int

const (
	admitted verdict = iota
	limited
	firstLimited
	tableFull
	firstTableFull
)

type entry struct {
	bucket   *rate.Limiter
	seen     time.Time
	reported bool
}

type hooks struct {
	firstDenied func(ip string)
	denied      func(ip string)
	capacity    func()
}

// IPLimiter is a token bucket per client address. Idle addresses are evicted
// after the TTL; once MaxVisitors addresses are tracked, unknown addresses are
// rejected until eviction frees room.
type IPLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration
	max   int
	now   func() time.Time
	hooks hooks

	mu      sync.Mutex
	entries map[string]*entry
	full    bool
}

type Option func(*IPLimiter)

// WithRate refills perSecond tokens each second into a bucket holding burst.
func WithRate(perSecond float64, burst int) Option {
	return func(l *IPLimiter) { l.limit, l.burst = rate.Limit(perSecond), burst }
}

func WithTTL(d time.Duration) Option {
	return func(l *IPLimiter) { l.ttl = d }
}

// WithMaxVisitors bounds the tracked address table. 0 leaves it unbounded.
func WithMaxVisitors(n int) Option {
	return func(l *IPLimiter) { l.max = n }
}

// WithOnFirstDenied fires once per tracked address, the first time it is
// limited. The address must be evicted before it fires again.
func WithOnFirstDenied(fn func(ip string)) Option {
	return func(l *IPLimiter) { l.hooks.firstDenied = fn }
}

// WithOnDenied fires on every rejected request.
func WithOnDenied(fn func(ip string)) Option {
	return func(l *IPLimiter) { l.hooks.denied = fn }
}

// WithOnCapacity fires when the table fills, and again only after eviction
// has made room.
func WithOnCapacity(fn func()) Option {
	return func(l *IPLimiter) { l.hooks.capacity = fn }
}

func withClock(now func() time.Time) Option {
	return func(l *IPLimiter) { l.now = now }
}

// New returns a limiter whose eviction loop stops with ctx.
func New(ctx context.Context, opts ...Option) *IPLimiter {
	l := &IPLimiter{
		limit:   DefaultPerSecond,
		burst:   DefaultBurst,
		ttl:     DefaultTTL,
		max:     DefaultMaxVisitors,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, o := range opts {
		o(l)
	}
	go l.evictLoop(ctx)
	return l
}

// Allow reports whether a request from ip may proceed and runs the hooks
// for a rejection.
func (l *IPLimiter) Allow(ip string) bool {
	v := l.check(ip)
	// hooks run unlocked
	switch v {
	case admitted:
		return true
	case firstTableFull:
		call0(l.hooks.capacity)
	case firstLimited:
		call(l.hooks.firstDenied, ip)
	}
	call(l.hooks.denied, ip)
	return false
}

func (l *IPLimiter) check(ip string) verdict {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[ip]
	if !ok {
		if l.max > 0 && len(l.entries) >= l.max {
			if l.full {
				return tableFull
			}
			l.full = true
			return firstTableFull
		}
		e = &entry{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = e
	}
	now := l.now()
	e.seen = now
	if e.bucket.AllowN(now, 1) {
		return admitted
	}
	if e.reported {
		return limited
	}
	e.reported = true
	return firstLimited
}

// Len is the number of tracked addresses.
func (l *IPLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *IPLimiter) evictLoop(ctx context.Context) {
	t := time.NewTicker(l.ttl / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.evict(l.now())
		}
	}
}

// evict drops addresses idle for longer than the TTL.
func (l *IPLimiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, e := range l.entries {
		if now.Sub(e.seen) > l.ttl {
			delete(l.entries, ip)
		}
	}
	if l.max <= 0 || len(l.entries) < l.max {
		l.full = false
	}
}

// Middleware answers 429 with a JSON error for rejected clients. The address
// comes from httpmw.ClientIP, which must run first.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.Allow(httpmw.ClientIPFromContext(r.Context())) {
			next.ServeHTTP(w, r)
			return
		}
		h := w.Header()
		h.Set("Content-Type", "application/json; charset=utf-8")
		h.Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"too many requests"}`))
	})
}

func call(fn func(string), ip string) {
	if fn != nil {
		fn(ip)
	}
}

func call0(fn func()) {
	if fn != nil {
		fn()
	}
}
