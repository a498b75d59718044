package content

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xelns/xelns-web/internal/cryptoutil"
	"github.com/xelns/xelns-web/internal/sitegen"
	"github.com/xelns/xelns-web/internal/xerrors"
)

// ErrNoSite means the output base holds no generated site yet.
var ErrNoSite = errors.New("content: no generated site")

// SiteDir finds generated sites under Base. Directory names embed the
// generation stamp, so the lexically greatest name is the newest site.
type SiteDir struct {
	Base   string
	Prefix string
}

func NewSiteDir(base string) *SiteDir {
	return &SiteDir{Base: base, Prefix: sitegen.SiteDirPrefix}
}

func (d *SiteDir) prefix() string {
	if d.Prefix == "" {
		return sitegen.SiteDirPrefix
	}
	return d.Prefix
}

// Current returns the name of the newest site directory.
func (d *SiteDir) Current(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(d.Base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoSite
		}
		return "", xerrors.Wrapf(err, "read output base %s", d.Base)
	}
	newest := ""
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), d.prefix()) {
			continue
		}
		if e.Name() > newest {
			newest = e.Name()
		}
	}
	if newest == "" {
		return "", ErrNoSite
	}
	return newest, nil
}

// Load opens the named site directory. The snapshot reads straight from disk;
// generated directories are never modified after the generator finishes.
func (d *SiteDir) Load(ctx context.Context, name string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(name, d.prefix()) || strings.ContainsAny(name, `/\`) {
		return nil, xerrors.Newf("content: invalid site name %q", name)
	}
	dir := filepath.Join(d.Base, name)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, xerrors.Wrapf(err, "stat site %s", dir)
	}
	if !info.IsDir() {
		return nil, xerrors.Newf("content: %s is not a directory", dir)
	}

	fsys := os.DirFS(dir)
	meta := Meta{
		Version:     name,
		Dir:         dir,
		Source:      SourceDir,
		GeneratedAt: info.ModTime().UTC(),
	}
	// a missing index is left for ValidateSnapshot to report
	if sum, err := cryptoutil.FileSHA256(fsys, "index.html"); err == nil {
		meta.SHA256 = sum
	}
	return &Snapshot{FS: fsys, Meta: meta}, nil
}

// SeedSnapshot wraps an embedded fallback site so the server has something
// to serve before the first generated site exists.
func SeedSnapshot(fsys fs.FS) Snapshot {
	meta := Meta{Version: "seed", Source: SourceSeed}
	if sum, err := cryptoutil.FileSHA256(fsys, "index.html"); err == nil {
		meta.SHA256 = sum
	}
	return Snapshot{FS: fsys, Meta: meta}
}
