package syncclient

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/snapshot"
)

// DefaultQuietPeriod is how long the auto-saver waits after the last change
// before pushing.
const DefaultQuietPeriod = 800 * time.Millisecond

// State is the auto-saver's position in its push cycle.
type State int32

const (
	StateIdle            State = iota // nothing pending
	StateScheduled                    // quiet-period timer armed
	StateInFlight                     // push running
	StateInFlightPending              // push running, another change arrived
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateInFlight:
		return "in-flight"
	case StateInFlightPending:
		return "in-flight-pending"
	default:
		return "unknown"
	}
}

// Pusher sends a snapshot to the remote store. *Client implements it.
type Pusher interface {
	SaveAll(ctx context.Context, snap *snapshot.Snapshot) Result
}

type AutoSaverOptions struct {
	Pusher Pusher

	// Export returns the snapshot to push. It is called when the quiet period
	// ends, so only the latest state is sent.
	Export func(ctx context.Context) *snapshot.Snapshot

	// Gate reports whether changes should be pushed at all, e.g. only during
	// an admin session. Nil means always.
	Gate func(ctx context.Context) bool

	QuietPeriod time.Duration
	Logger      log.Logger

	// OnResult is called on the run goroutine after every push.
	OnResult func(Result)
}

// AutoSaver debounces change notifications into pushes: trailing edge, at
// most one push in flight, and a change that arrives during a push schedules
// a follow-up instead of being dropped.
type AutoSaver struct {
	pusher   Pusher
	export   func(ctx context.Context) *snapshot.Snapshot
	gate     func(ctx context.Context) bool
	quiet    time.Duration
	logger   log.Logger
	onResult func(Result)

	notify chan struct{}
	state  atomic.Int32
	pushes atomic.Int64
}

func NewAutoSaver(opts AutoSaverOptions) *AutoSaver {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = DefaultQuietPeriod
	}
	return &AutoSaver{
		pusher:   opts.Pusher,
		export:   opts.Export,
		gate:     opts.Gate,
		quiet:    opts.QuietPeriod,
		logger:   opts.Logger,
		onResult: opts.OnResult,
		notify:   make(chan struct{}, 1),
	}
}

// Notify records that content changed. It never blocks.
func (a *AutoSaver) Notify(ctx context.Context) {
	if a.gate != nil && !a.gate(ctx) {
		return
	}
	select {
	case a.notify <- struct{}{}:
	default:
		// a notification is already queued; the run loop will see it
	}
}

// State returns the current cycle position.
func (a *AutoSaver) State() State { return State(a.state.Load()) }

// Pushes returns how many pushes were started.
func (a *AutoSaver) Pushes() int64 { return a.pushes.Load() }

// Run drives the state machine until ctx is cancelled. A push already in
// flight is detached from ctx and runs to completion.
func (a *AutoSaver) Run(ctx context.Context) error {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
		done   = make(chan Result, 1)
	)
	arm := func() {
		if timer == nil {
			timer = time.NewTimer(a.quiet)
		} else {
			timer.Reset(a.quiet)
		}
		timerC = timer.C
		a.setState(StateScheduled)
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-a.notify:
			switch a.State() {
			case StateIdle, StateScheduled:
				arm()
			case StateInFlight:
				a.setState(StateInFlightPending)
			}

		case <-timerC:
			timerC = nil
			a.setState(StateInFlight)
			a.pushes.Add(1)
			snap := a.export(ctx)
			pushCtx := context.WithoutCancel(ctx)
			go func() { done <- a.pusher.SaveAll(pushCtx, snap) }()

		case res := <-done:
			if res.Success {
				a.logger.Debug(ctx, "autosave: pushed")
			} else {
				a.logger.Warn(ctx, "autosave: push failed", "error", res.Error)
			}
			if a.onResult != nil {
				a.onResult(res)
			}
			if a.State() == StateInFlightPending {
				arm()
			} else {
				a.setState(StateIdle)
			}
		}
	}
}

func (a *AutoSaver) setState(s State) { a.state.Store(int32(s)) }
