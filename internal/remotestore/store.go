// Package remotestore is the canonical cross-session copy of the site content:
// a single JSON document, allow-listed to the publishable collections and
// stamped on every write.
//
// Last write wins. Concurrent writers are not detected.
package remotestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/xelns/xelns-web/internal/entity"
	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/snapshot"
	"github.com/xelns/xelns-web/internal/xerrors"
)

// ErrBadDocument is returned for a request body that is not a JSON object or
// whose publishable collections do not have the expected shape.
var ErrBadDocument = errors.New("remotestore: body must be a JSON object of well-formed collections")

// Backend holds the raw document. Read returns (nil, nil) when nothing was
// ever written.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, doc []byte) error
}

type Options struct {
	Backend Backend
	Logger  log.Logger
	Now     func() time.Time
}

type Store struct {
	backend Backend
	logger  log.Logger
	now     func() time.Time

	// serializes read-modify-write cycles within this process only
	mu sync.Mutex
}

func New(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{backend: opts.Backend, logger: opts.Logger, now: opts.Now}
}

// Read returns the current document, or {} if none was written yet.
func (s *Store) Read(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.backend.Read(ctx)
	if err != nil {
		return nil, xerrors.Wrap(err, "read remote store")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []byte("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, xerrors.New("remote store document is corrupt")
	}
	return raw, nil
}

// Publish keeps only the publishable collections of body, checks that each
// decodes as its entity type, stamps the result with a fresh Publish Stamp
// and overwrites the stored document. It returns the stamp. Unknown fields
// are dropped, not rejected.
func (s *Store) Publish(ctx context.Context, body []byte) (string, error) {
	var in map[string]json.RawMessage
	if err := json.Unmarshal(body, &in); err != nil || in == nil {
		return "", xerrors.WithStack(ErrBadDocument)
	}

	out := make(map[string]json.RawMessage, len(entity.Publishable)+1)
	dropped := 0
	for k, v := range in {
		if entity.Name(k).IsPublishable() {
			out[k] = v
		} else {
			dropped++
		}
	}
	if err := checkShape(out); err != nil {
		return "", err
	}

	stamp := snapshot.NewStamp(s.now())
	sv, _ := json.Marshal(stamp)
	out[snapshot.StampField] = sv

	doc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", xerrors.Wrap(err, "encode remote document")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Write(ctx, doc); err != nil {
		return "", xerrors.Wrap(err, "write remote store")
	}
	s.logger.Info(ctx, "remotestore: published",
		"stamp", stamp,
		"collections", len(out)-1,
		"dropped_fields", dropped,
		"bytes", len(doc),
	)
	return stamp, nil
}

// checkShape decodes the allow-listed collections as their entity types.
func checkShape(collections map[string]json.RawMessage) error {
	raw, err := json.Marshal(collections)
	if err != nil {
		return xerrors.Wrap(err, "encode collections")
	}
	if _, err := snapshot.Decode(raw); err != nil {
		return xerrors.Wrapf(ErrBadDocument, "%v", err)
	}
	return nil
}

// Reset overwrites the stored document with {}.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Write(ctx, []byte("{}")); err != nil {
		return xerrors.Wrap(err, "reset remote store")
	}
	s.logger.Info(ctx, "remotestore: reset")
	return nil
}
