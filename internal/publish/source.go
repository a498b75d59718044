package publish

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/xelns/xelns-web/internal/snapshot"
	"github.com/xelns/xelns-web/internal/xerrors"
)

// Source yields the currently bundled published snapshot. A nil snapshot with
// a nil error means nothing is bundled.
type Source interface {
	Published(ctx context.Context) (*snapshot.Snapshot, error)
}

// StaticSource serves a snapshot held in memory, e.g. one compiled into the
// binary or injected by a test. Set replaces it.
type StaticSource struct {
	mu   sync.RWMutex
	snap *snapshot.Snapshot
}

func NewStaticSource(s *snapshot.Snapshot) *StaticSource { return &StaticSource{snap: s} }

// ParseStaticSource decodes raw into a StaticSource. Empty input yields an
// empty source.
func ParseStaticSource(raw []byte) (*StaticSource, error) {
	if len(raw) == 0 {
		return &StaticSource{}, nil
	}
	s, err := snapshot.Decode(raw)
	if err != nil {
		return nil, err
	}
	return &StaticSource{snap: s}, nil
}

func (s *StaticSource) Set(snap *snapshot.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func (s *StaticSource) Published(context.Context) (*snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, nil
}

// FileSource reads a snapshot file on every check. A missing file means
// nothing is bundled.
type FileSource struct {
	Path string
}

func (f FileSource) Published(context.Context) (*snapshot.Snapshot, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Wrapf(err, "read %s", f.Path)
	}
	return snapshot.Decode(raw)
}

// Fetcher is the part of the sync client a RemoteSource needs.
type Fetcher interface {
	FetchAll(ctx context.Context) *snapshot.Snapshot
}

// RemoteSource asks the remote store for its current content.
type RemoteSource struct {
	Fetcher Fetcher
}

func (r RemoteSource) Published(ctx context.Context) (*snapshot.Snapshot, error) {
	return r.Fetcher.FetchAll(ctx), nil
}
