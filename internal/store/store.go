// Package store is the local content store: typed persistence of every
// content collection over an injected Backend, with default fallback.
//
// Reads never fail to the caller. An absent or undecodable slot yields the
// collection's built-in default. Writes return an error value and never
// panic; a full backend leaves the previous value in place.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/xelns/xelns-web/internal/entity"
	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/xerrors"
)

// QuotaMessage is shown to the operator when a write is refused for lack of
// space.
const QuotaMessage = "Storage is full: the latest change was not saved. Remove large images and try again."

// Options configures a Store.
type Options struct {
	Backend Backend
	Logger  log.Logger

	// Alert surfaces a user-visible warning, e.g. on quota exhaustion.
	Alert func(ctx context.Context, msg string)

	// OnChange is called after a content collection was written through one
	// of the typed setters. Imports and resets do not fire it.
	OnChange func(name entity.Name)
}

type Store struct {
	backend  Backend
	logger   log.Logger
	alert    func(ctx context.Context, msg string)
	onChange func(name entity.Name)

	// serializes backend access so writes land in issue order
	mu sync.Mutex
}

func New(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Backend == nil {
		opts.Backend = NewMemoryBackend()
	}
	return &Store{
		backend:  opts.Backend,
		logger:   opts.Logger,
		alert:    opts.Alert,
		onChange: opts.OnChange,
	}
}

// SetOnChange replaces the change hook. Used when the hook's owner is built
// after the store.
func (s *Store) SetOnChange(fn func(name entity.Name)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SetAlert replaces the user-visible warning hook.
func (s *Store) SetAlert(fn func(ctx context.Context, msg string)) {
	s.mu.Lock()
	s.alert = fn
	s.mu.Unlock()
}

// Get decodes the slot at key into a T, returning def when the slot is
// absent or cannot be decoded.
func Get[T any](ctx context.Context, s *Store, key string, def T) T {
	if v, ok := lookup[T](ctx, s, key); ok {
		return v
	}
	return def
}

// lookup decodes the slot at key. ok is false when the slot is absent,
// unreadable or corrupt; the latter two are logged.
func lookup[T any](ctx context.Context, s *Store, key string) (v T, ok bool) {
	raw, err := s.read(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "store: read failed, using default", "key", key, "error", err.Error())
		return v, false
	}
	if raw == nil || string(bytes.TrimSpace(raw)) == "null" {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Warn(ctx, "store: stored value is corrupt, using default", "key", key, "error", err.Error())
		var zero T
		return zero, false
	}
	return v, true
}

// Set encodes v and writes it to key.
func (s *Store) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return xerrors.Wrapf(err, "encode %s", key)
	}
	return s.write(ctx, key, b)
}

// Delete removes the slot at key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Delete(ctx, key); err != nil {
		return xerrors.Wrapf(err, "delete %s", key)
	}
	return nil
}

func (s *Store) read(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Get(ctx, key)
}

func (s *Store) write(ctx context.Context, key string, b []byte) error {
	s.mu.Lock()
	err := s.backend.Set(ctx, key, b)
	s.mu.Unlock()
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrQuotaExceeded) {
		s.logger.Error(ctx, err, "store: write refused, quota exceeded", "key", key, "bytes", len(b))
		s.mu.Lock()
		alert := s.alert
		s.mu.Unlock()
		if alert != nil {
			alert(ctx, QuotaMessage)
		}
		return xerrors.Wrapf(err, "write %s", key)
	}
	s.logger.Error(ctx, err, "store: write failed", "key", key)
	return xerrors.Wrapf(err, "write %s", key)
}

// setEntity writes a content collection and fires the change hook.
func (s *Store) setEntity(ctx context.Context, name entity.Name, v any) error {
	if err := s.Set(ctx, name.StorageKey(), v); err != nil {
		return err
	}
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(name)
	}
	return nil
}
