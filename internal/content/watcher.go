package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xelns/xelns-web/internal/log"
)

const (
	DefaultPollInterval   = 30 * time.Second
	DefaultStaleThreshold = 30 * time.Minute

	maxBackoff = 5 * time.Minute
)

type pollResult int

const (
	pollNoChange pollResult = iota
	pollSwapped
	pollScanError // the only result that backs off
	pollLoadError
	pollValidationError
)

// SiteSource lists and opens generated sites. *SiteDir implements it.
type SiteSource interface {
	Current(ctx context.Context) (string, error)
	Load(ctx context.Context, name string) (*Snapshot, error)
}

type WatcherMetrics interface {
	IncWatcherPolls()
	IncWatcherSwaps()
	IncWatcherError(errType string)
	ObserveSiteLoadDuration(seconds float64)
	SetWatcherLastSuccess(unixSeconds float64)
	SetWatcherStale(stale bool)
}

type nopWatcherMetrics struct{}

func (nopWatcherMetrics) IncWatcherPolls()                {}
func (nopWatcherMetrics) IncWatcherSwaps()                {}
func (nopWatcherMetrics) IncWatcherError(string)          {}
func (nopWatcherMetrics) ObserveSiteLoadDuration(float64) {}
func (nopWatcherMetrics) SetWatcherLastSuccess(float64)   {}
func (nopWatcherMetrics) SetWatcherStale(bool)            {}

type WatcherOptions struct {
	Logger       log.Logger
	Sites        SiteSource
	Manager      *Manager
	Metrics      WatcherMetrics
	PollInterval time.Duration

	// Validation gates every new site. Nil means DefaultValidationOptions.
	Validation *ValidationOptions

	// OnSwap runs on the poll goroutine after each swap. A panic in it is
	// logged and swallowed.
	OnSwap func(hash, version string)

	// StaleThreshold is how long scans may keep failing before the watcher
	// reports itself stale.
	StaleThreshold time.Duration
}

// Watcher polls a SiteSource and swaps each newer site into a Manager once
// it validates. A site that fails validation is skipped until a newer one
// appears; scan failures back off exponentially.
type Watcher struct {
	sites      SiteSource
	manager    *Manager
	logger     log.Logger
	metrics    WatcherMetrics
	interval   time.Duration
	validation ValidationOptions
	onSwap     func(hash, version string)

	current  string
	rejected string

	consecutiveErrs int
	staleAfter      time.Duration
	lastScan        time.Time
	stale           bool

	polls, swaps int64
}

func NewWatcher(opts *WatcherOptions) *Watcher {
	w := &Watcher{
		sites:      opts.Sites,
		manager:    opts.Manager,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		interval:   opts.PollInterval,
		validation: DefaultValidationOptions(),
		onSwap:     opts.OnSwap,
		staleAfter: opts.StaleThreshold,
		lastScan:   time.Now(),
	}
	if w.logger == nil {
		w.logger = log.Nop()
	}
	if w.metrics == nil {
		w.metrics = nopWatcherMetrics{}
	}
	if w.interval <= 0 {
		w.interval = DefaultPollInterval
	}
	if w.staleAfter <= 0 {
		w.staleAfter = DefaultStaleThreshold
	}
	if opts.Validation != nil {
		w.validation = *opts.Validation
	}
	// the startup site is not reloaded on the first poll
	if snap, ok := w.manager.Get(); ok {
		w.current = snap.Meta.Version
	}
	return w
}

// Run polls until ctx is cancelled and returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info(ctx, "content watcher starting", "poll_interval", w.interval.String(), "current_site", w.current)

	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "content watcher stopping", "polls", w.polls, "swaps", w.swaps)
			return ctx.Err()
		case <-t.C:
			if next, changed := w.schedule(ctx, w.checkOnce(ctx)); changed {
				t.Reset(next)
			}
		}
	}
}

// schedule tracks consecutive scan failures and staleness after a poll. It
// returns the next interval when it differs from the current one.
func (w *Watcher) schedule(ctx context.Context, res pollResult) (time.Duration, bool) {
	if res != pollScanError {
		if w.stale {
			w.stale = false
			w.metrics.SetWatcherStale(false)
			w.logger.Info(ctx, "content watcher: scanning again")
		}
		if w.consecutiveErrs == 0 {
			return 0, false
		}
		w.logger.Info(ctx, "content watcher: recovered", "consecutive_errors", w.consecutiveErrs)
		w.consecutiveErrs = 0
		return w.interval, true
	}

	w.consecutiveErrs++
	if since := time.Since(w.lastScan); since > w.staleAfter && !w.stale {
		w.stale = true
		w.metrics.SetWatcherStale(true)
		w.logger.Error(ctx, fmt.Errorf("no successful scan for %s", since.Truncate(time.Second)),
			"content watcher: stale, new sites are not being picked up")
	}
	next := w.backoffDuration()
	w.logger.Warn(ctx, "content watcher: backing off",
		"consecutive_errors", w.consecutiveErrs, "next_poll_in", next.String())
	return next, true
}

// backoffDuration doubles the interval per consecutive error up to maxBackoff.
func (w *Watcher) backoffDuration() time.Duration {
	d := w.interval
	for i := 0; i < w.consecutiveErrs && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

func (w *Watcher) checkOnce(ctx context.Context) pollResult {
	w.polls++
	w.metrics.IncWatcherPolls()

	name, err := w.sites.Current(ctx)
	if err != nil && !errors.Is(err, ErrNoSite) {
		w.logger.Error(ctx, err, "content watcher: scan failed")
		w.metrics.IncWatcherError("scan")
		return pollScanError
	}
	w.lastScan = time.Now()
	w.metrics.SetWatcherLastSuccess(float64(w.lastScan.Unix()))

	if name == "" || name == w.current || name == w.rejected {
		return pollNoChange
	}
	L := w.logger.With("new_site", name, "current_site", w.current)

	start := time.Now()
	snap, err := w.sites.Load(ctx, name)
	w.metrics.ObserveSiteLoadDuration(time.Since(start).Seconds())
	if err != nil {
		L.Error(ctx, err, "content watcher: load failed")
		w.metrics.IncWatcherError("load")
		return pollLoadError
	}
	if err := ValidateSnapshot(snap, w.validation); err != nil {
		L.Error(ctx, err, "content watcher: site rejected, keeping current content")
		w.metrics.IncWatcherError("validation")
		w.rejected = name
		return pollValidationError
	}

	w.manager.Set(*snap)
	w.current = name
	w.swaps++
	w.metrics.IncWatcherSwaps()
	L.Info(ctx, "content watcher: site swapped", "hash", shortHash(snap.Meta.SHA256), "total_swaps", w.swaps)
	w.notify(ctx, snap.Meta)
	return pollSwapped
}

func (w *Watcher) notify(ctx context.Context, meta Meta) {
	if w.onSwap == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error(ctx, fmt.Errorf("panic: %v", r), "content watcher: OnSwap panicked", "site", meta.Version)
		}
	}()
	w.onSwap(meta.SHA256, meta.Version)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
