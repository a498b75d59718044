package remotestore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xelns/xelns-web/internal/xerrors"
)

// DefaultFilePath mirrors where the document lives in a checked-out site.
const DefaultFilePath = "data/site_data.json"

// FileBackend stores the document in a local file. Writes go to a temporary
// file in the same directory and are renamed into place.
type FileBackend struct {
	Path string
}

func (f FileBackend) Read(context.Context) ([]byte, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Wrapf(err, "read %s", f.Path)
	}
	return b, nil
}

func (f FileBackend) Write(_ context.Context, doc []byte) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return xerrors.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".site_data-*.json")
	if err != nil {
		return xerrors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return xerrors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return xerrors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return xerrors.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return xerrors.Wrap(err, "chmod temp file")
	}
	if err := os.Rename(tmpPath, f.Path); err != nil {
		os.Remove(tmpPath)
		return xerrors.Wrapf(err, "rename into %s", f.Path)
	}
	return nil
}
