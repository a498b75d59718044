// Package publish brings a visitor's local content store in line with the
// latest published snapshot, applying each publish stamp at most once.
package publish

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/snapshot"
)

// DefaultPollInterval is how often Run re-checks without an explicit trigger.
const DefaultPollInterval = 30 * time.Second

// State is the outcome of the most recent reconciliation pass.
type State int

const (
	Unchecked   State = iota // no pass has completed yet
	CheckedNoOp              // pass found nothing to apply
	Applied                  // pass imported a new snapshot
)

func (s State) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case CheckedNoOp:
		return "checked-no-op"
	case Applied:
		return "applied"
	default:
		return "unknown"
	}
}

// Store is the part of the local content store reconciliation uses.
type Store interface {
	IsAuthenticated(ctx context.Context) bool
	LastPublishedID(ctx context.Context) string
	SetLastPublishedID(ctx context.Context, id string) error
	ImportSnapshot(ctx context.Context, snap *snapshot.Snapshot) bool
}

// Metrics observes reconciliation passes.
type Metrics interface {
	IncReconcile(outcome string)
}

type Options struct {
	Store  Store
	Source Source
	Logger log.Logger

	// Refresh is called after a snapshot was applied so views re-read every
	// collection from the store.
	Refresh func(ctx context.Context)

	Metrics      Metrics
	PollInterval time.Duration
}

type Reconciler struct {
	store    Store
	source   Source
	logger   log.Logger
	refresh  func(ctx context.Context)
	metrics  Metrics
	interval time.Duration

	trigger chan string

	// pass serializes check-and-apply; mu only guards the recorded outcome
	pass    sync.Mutex
	mu      sync.Mutex
	state   State
	applied int
}

func NewReconciler(opts Options) *Reconciler {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Reconciler{
		store:    opts.Store,
		source:   opts.Source,
		logger:   opts.Logger,
		refresh:  opts.Refresh,
		metrics:  opts.Metrics,
		interval: opts.PollInterval,
		trigger:  make(chan string, 1),
	}
}

// State returns the outcome of the latest pass.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// AppliedCount returns how many snapshots this reconciler imported.
func (r *Reconciler) AppliedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applied
}

// Reconcile runs one check-and-apply pass and returns its outcome:
//
//  1. an admin session is never overwritten;
//  2. a missing or unstamped published snapshot is ignored;
//  3. a stamp equal to the last applied one is ignored;
//  4. otherwise the snapshot is imported, its stamp recorded, and views
//     refreshed.
//
// The stamp is recorded only after a successful import, so a failed import is
// retried on the next pass.
func (r *Reconciler) Reconcile(ctx context.Context) State {
	r.pass.Lock()
	outcome := r.check(ctx)
	r.pass.Unlock()

	r.mu.Lock()
	if outcome == "applied" {
		r.state = Applied
		r.applied++
	} else {
		r.state = CheckedNoOp
	}
	state := r.state
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.IncReconcile(outcome)
	}
	if state == Applied && r.refresh != nil {
		r.refresh(ctx)
	}
	return state
}

func (r *Reconciler) check(ctx context.Context) string {
	if r.store.IsAuthenticated(ctx) {
		return "admin"
	}

	snap, err := r.source.Published(ctx)
	if err != nil {
		r.logger.Warn(ctx, "publish: reading bundled snapshot failed", "error", err.Error())
		return "source_error"
	}
	if snap == nil || snap.PublishedID == "" {
		return "unstamped"
	}

	last := r.store.LastPublishedID(ctx)
	if snap.PublishedID == last {
		return "unchanged"
	}

	if !r.store.ImportSnapshot(ctx, snap.Sanitize()) {
		r.logger.Error(ctx, fmt.Errorf("import of %s failed", snap.PublishedID), "publish: apply failed, will retry")
		return "import_error"
	}
	if err := r.store.SetLastPublishedID(ctx, snap.PublishedID); err != nil {
		r.logger.Error(ctx, err, "publish: recording applied stamp failed", "stamp", snap.PublishedID)
	}

	r.logger.Info(ctx, "publish: applied published snapshot",
		"stamp", snap.PublishedID,
		"previous", last,
	)
	return "applied"
}

// Trigger requests an immediate pass, e.g. on window focus or when the page
// becomes visible. It never blocks; triggers arriving together collapse.
func (r *Reconciler) Trigger(reason string) {
	select {
	case r.trigger <- reason:
	default:
	}
}

// Run reconciles once at start, then on every Trigger and poll tick until
// ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	r.Reconcile(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reason := <-r.trigger:
			r.logger.Debug(ctx, "publish: triggered check", "reason", reason)
			r.Reconcile(ctx)
		case <-ticker.C:
			r.Reconcile(ctx)
		}
	}
}
