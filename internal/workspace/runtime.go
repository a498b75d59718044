// Package workspace is the client runtime an operator or visitor session runs
// on: a cached view over the local store, setters that persist and schedule an
// auto-save, contact messages, explicit pull/push, and the published-snapshot
// reconciler.
package workspace

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xelns/xelns-web/internal/entity"
	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/publish"
	"github.com/xelns/xelns-web/internal/snapshot"
	"github.com/xelns/xelns-web/internal/store"
	"github.com/xelns/xelns-web/internal/syncclient"
)

// User-facing messages.
const (
	MsgPulled        = "Pulled the latest data from the cloud"
	MsgPullEmpty     = "The cloud has no data or the fetch failed"
	MsgPushed        = "Saved to the data file. Commit and push to publish."
	MsgPushFailed    = "Save failed: "
	MsgPushNoBackend = "check that the local API is running"
)

// Remote is the store endpoint client. *syncclient.Client implements it.
type Remote interface {
	FetchAll(ctx context.Context) *snapshot.Snapshot
	SaveAll(ctx context.Context, snap *snapshot.Snapshot) syncclient.Result
	InitRemote(ctx context.Context) bool
}

// Notifier shows a short message to the user.
type Notifier interface {
	Toast(ctx context.Context, msg string)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, msg string)

func (f NotifierFunc) Toast(ctx context.Context, msg string) { f(ctx, msg) }

// Metrics counts auto-save outcomes and reconciliation passes.
type Metrics interface {
	publish.Metrics
	IncAutoSave(outcome string)
}

type Options struct {
	Store  *store.Store
	Remote Remote

	// Published is the snapshot bundled with the site. Nil disables
	// reconciliation.
	Published publish.Source

	Notifier Notifier
	Logger   log.Logger
	Metrics  Metrics

	QuietPeriod  time.Duration
	PollInterval time.Duration

	Now func() time.Time
}

type Runtime struct {
	store    *store.Store
	remote   Remote
	notifier Notifier
	logger   log.Logger
	now      func() time.Time

	saver      *syncclient.AutoSaver
	reconciler *publish.Reconciler

	view    atomic.Pointer[View]
	syncing atomic.Bool
}

// New wires the runtime around opts.Store and loads the initial view. The
// store's change hook and alert are taken over by the runtime.
func New(opts Options) *Runtime {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Runtime{
		store:    opts.Store,
		remote:   opts.Remote,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if r.notifier == nil {
		r.notifier = NotifierFunc(func(ctx context.Context, msg string) {
			opts.Logger.Info(ctx, "workspace: "+msg)
		})
	}
	r.store.SetAlert(r.notifier.Toast)

	if opts.Remote != nil {
		r.saver = syncclient.NewAutoSaver(syncclient.AutoSaverOptions{
			Pusher:      opts.Remote,
			Export:      r.store.ExportSnapshot,
			Gate:        r.store.IsAuthenticated,
			QuietPeriod: opts.QuietPeriod,
			Logger:      opts.Logger,
			OnResult: func(res syncclient.Result) {
				if opts.Metrics == nil {
					return
				}
				if res.Success {
					opts.Metrics.IncAutoSave("ok")
				} else {
					opts.Metrics.IncAutoSave("error")
				}
			},
		})
		r.store.SetOnChange(func(entity.Name) { r.saver.Notify(context.Background()) })
	}

	if opts.Published != nil {
		var pm publish.Metrics
		if opts.Metrics != nil {
			pm = opts.Metrics
		}
		r.reconciler = publish.NewReconciler(publish.Options{
			Store:        r.store,
			Source:       opts.Published,
			Logger:       opts.Logger,
			Refresh:      r.Refresh,
			Metrics:      pm,
			PollInterval: opts.PollInterval,
		})
	}

	r.Refresh(context.Background())
	return r
}

// Run drives the auto-saver and the reconciler until ctx is cancelled.
func (r *Runtime) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	if r.saver != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.saver.Run(ctx)
		}()
	}
	if r.reconciler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.reconciler.Run(ctx)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

// Store returns the underlying local store.
func (r *Runtime) Store() *store.Store { return r.store }

// View returns the cached collections. Callers must not modify it.
func (r *Runtime) View() *View { return r.view.Load() }

// Refresh re-reads every collection from the store.
func (r *Runtime) Refresh(ctx context.Context) {
	r.view.Store(readView(ctx, r.store))
}

// Focus asks the reconciler for an immediate check, as on window focus or a
// page becoming visible.
func (r *Runtime) Focus() {
	if r.reconciler != nil {
		r.reconciler.Trigger("focus")
	}
}

// Touch schedules an auto-save for edits made to the store outside this
// runtime. It is a no-op without a remote or outside an admin session.
func (r *Runtime) Touch(ctx context.Context) {
	if r.saver != nil {
		r.saver.Notify(ctx)
	}
}

// Reconcile runs one published-snapshot pass now. It reports false when
// reconciliation is disabled.
func (r *Runtime) Reconcile(ctx context.Context) (publish.State, bool) {
	if r.reconciler == nil {
		return publish.Unchecked, false
	}
	return r.reconciler.Reconcile(ctx), true
}

// AutoSaveState reports the auto-saver's cycle position.
func (r *Runtime) AutoSaveState() syncclient.State {
	if r.saver == nil {
		return syncclient.StateIdle
	}
	return r.saver.State()
}

func (r *Runtime) Login(ctx context.Context, password string) bool {
	return r.store.Login(ctx, password)
}

func (r *Runtime) Logout(ctx context.Context) error {
	return r.store.Logout(ctx)
}

// Syncing reports whether a pull or push is running.
func (r *Runtime) Syncing() bool { return r.syncing.Load() }

// SyncFromCloud pulls the remote snapshot and imports it. A second call while
// one is running returns false immediately.
func (r *Runtime) SyncFromCloud(ctx context.Context) bool {
	if r.remote == nil || !r.syncing.CompareAndSwap(false, true) {
		return false
	}
	defer r.syncing.Store(false)

	snap := r.remote.FetchAll(ctx)
	if snap == nil || snap.Empty() {
		r.notifier.Toast(ctx, MsgPullEmpty)
		return false
	}
	if !r.store.ImportSnapshot(ctx, snap) {
		r.logger.Warn(ctx, "workspace: importing remote snapshot failed")
		return false
	}
	r.Refresh(ctx)
	r.notifier.Toast(ctx, MsgPulled)
	return true
}

// SyncToCloud pushes the current snapshot immediately.
func (r *Runtime) SyncToCloud(ctx context.Context) bool {
	if r.remote == nil {
		r.notifier.Toast(ctx, MsgPushFailed+MsgPushNoBackend)
		return false
	}
	r.syncing.Store(true)
	defer r.syncing.Store(false)

	res := r.remote.SaveAll(ctx, r.store.ExportSnapshot(ctx))
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = MsgPushNoBackend
		}
		r.notifier.Toast(ctx, MsgPushFailed+msg)
		return false
	}
	r.notifier.Toast(ctx, MsgPushed)
	return true
}

// InitCloudDB resets the remote document to {}.
func (r *Runtime) InitCloudDB(ctx context.Context) bool {
	if r.remote == nil {
		return false
	}
	return r.remote.InitRemote(ctx)
}

func (r *Runtime) AddMessage(ctx context.Context, in store.NewMessage) (entity.ContactMessage, error) {
	msg, err := r.store.AddMessage(ctx, in, r.now())
	r.Refresh(ctx)
	return msg, err
}

func (r *Runtime) DeleteMessage(ctx context.Context, id string) error {
	return r.refreshed(ctx, r.store.DeleteMessage(ctx, id))
}

func (r *Runtime) MarkMessageRead(ctx context.Context, id string) error {
	return r.refreshed(ctx, r.store.MarkMessageRead(ctx, id))
}

// refreshed reloads the view after a write, whether or not it succeeded, so
// the view always matches what the store holds.
func (r *Runtime) refreshed(ctx context.Context, err error) error {
	r.Refresh(ctx)
	return err
}
