package content

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

type Manager struct {
	active atomic.Pointer[Snapshot]

	mu       sync.Mutex
	previous *Snapshot
}

func NewManager() *Manager { return &Manager{} }

// ErrNotServing is the readiness failure while nothing is being served.
var ErrNotServing = errors.New("content: no active site")

// ReadyErr is nil once a site with a filesystem is active.
func (m *Manager) ReadyErr() error {
	if _, ok := m.Get(); !ok {
		return ErrNotServing
	}
	return nil
}

// Set sets the active snapshot safely. The snapshot it replaces is kept for
// Rollback.
func (m *Manager) Set(s Snapshot) {
	cp := new(Snapshot)
	*cp = s
	if cp.LoadedAt.IsZero() {
		cp.LoadedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old := m.active.Load(); old != nil {
		m.previous = old
	}
	m.active.Store(cp)
}

// Rollback restores the snapshot that was active before the last Set. It
// reports false when there is nothing to roll back to.
func (m *Manager) Rollback() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.previous == nil {
		return false
	}
	m.active.Store(m.previous)
	m.previous = nil
	return true
}

// Get retrieves the active snapshot value
func (m *Manager) Get() (*Snapshot, bool) {
	s := m.active.Load()
	return s, s != nil && s.FS != nil
}

// ContentVersion implements httpmw.ContentInfo.
func (m *Manager) ContentVersion() string {
	s := m.active.Load()
	if s == nil {
		return ""
	}
	return s.Meta.Version
}

// ContentHash implements httpmw.ContentInfo.
func (m *Manager) ContentHash() string {
	s := m.active.Load()
	if s == nil {
		return ""
	}
	return s.Meta.SHA256
}

// Source returns the source of the current content, or SourceUnknown if not available
func (m *Manager) Source() Source {
	s := m.active.Load()
	if s == nil {
		return SourceUnknown
	}
	return s.Meta.Source
}

// LoadedAt returns the time when the current content snapshot was loaded, or zero if not available
func (m *Manager) LoadedAt() time.Time {
	s := m.active.Load()
	if s == nil {
		return time.Time{}
	}
	return s.LoadedAt
}
