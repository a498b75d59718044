// Package sitegen turns a production build plus a content snapshot into a
// deployable static site with the snapshot pre-injected.
package sitegen

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/snapshot"
	"github.com/xelns/xelns-web/internal/xerrors"
)

var (
	// ErrBuildFailed wraps a failed production build. No output directory is
	// created for the run.
	ErrBuildFailed = errors.New("sitegen: build failed")

	// ErrNoSnapshot means no snapshot file could be found.
	ErrNoSnapshot = errors.New("sitegen: no snapshot found")
)

// SiteDirPrefix names every generated output directory.
const SiteDirPrefix = "site-"

const entryDocument = "index.html"

type Generator struct {
	opts   Options
	logger log.Logger
}

func New(opts Options) *Generator {
	opts.setDefaults()
	return &Generator{opts: opts, logger: opts.Logger}
}

// Generate builds the site, copies it into a fresh timestamped directory and
// injects the snapshot at snapshotPath (or the configured / newest one when
// empty). It returns the output directory. The directory is assembled under a
// hidden staging name and renamed into place complete.
//
// A missing or unreadable snapshot is not fatal: the site ships without a
// bootstrap script, as the build alone is still deployable.
func (g *Generator) Generate(ctx context.Context, snapshotPath string) (string, error) {
	o := g.opts
	outBase := o.abs(o.OutputBase)
	if err := os.MkdirAll(outBase, 0o755); err != nil {
		return "", xerrors.Wrap(err, "create output base")
	}

	g.logger.Info(ctx, "sitegen: building", "command", strings.Join(o.BuildCommand, " "), "dir", o.ProjectRoot)
	if err := o.Runner.Run(ctx, o.ProjectRoot, o.BuildCommand); err != nil {
		g.logger.Error(ctx, err, "sitegen: build failed")
		return "", xerrors.Wrapf(ErrBuildFailed, "%v", err)
	}

	stamp := dirStamp(o.Now())
	outDir := filepath.Join(outBase, SiteDirPrefix+stamp)
	if _, err := os.Stat(outDir); err == nil {
		return "", xerrors.Newf("sitegen: output dir %s already exists", outDir)
	}

	// the site server only picks up site-* names, so the staging dir stays
	// invisible until the rename
	stage, err := os.MkdirTemp(outBase, ".site-"+stamp+"-*.tmp")
	if err != nil {
		return "", xerrors.Wrap(err, "create staging dir")
	}
	staged := false
	defer func() {
		if !staged {
			_ = os.RemoveAll(stage)
		}
	}()
	if err := os.Chmod(stage, 0o755); err != nil {
		return "", xerrors.Wrap(err, "chmod staging dir")
	}
	if err := os.CopyFS(stage, os.DirFS(o.abs(o.DistDir))); err != nil {
		return "", xerrors.Wrap(err, "copy build output")
	}
	if err := writeRoutingConfig(stage); err != nil {
		return "", err
	}

	if snapshotPath == "" {
		snapshotPath = o.SnapshotPath
	}
	snap, src, err := g.loadSnapshot(snapshotPath)
	switch {
	case err != nil:
		g.logger.Warn(ctx, "sitegen: no usable snapshot, site ships without bootstrap", "error", err.Error())
	default:
		if snap.PublishedID == "" {
			// every generated site is a publish event
			snap.PublishedID = snapshot.NewStamp(o.Now())
		}
		if err := injectInto(filepath.Join(stage, entryDocument), snap); err != nil {
			g.logger.Warn(ctx, "sitegen: bootstrap injection skipped", "error", err.Error())
		} else {
			g.logger.Info(ctx, "sitegen: injected snapshot", "snapshot", src, "stamp", snap.PublishedID)
		}
	}

	if err := os.Rename(stage, outDir); err != nil {
		return "", xerrors.Wrap(err, "publish output dir")
	}
	staged = true

	g.logger.Info(ctx, "sitegen: site generated", "out_dir", outDir)
	return outDir, nil
}

// WriteSnapshot stores snap as ui-<timestamp>.json in the configured snapshot
// directory, indented, and returns its path. An unstamped snapshot gets a
// fresh Publish Stamp.
func (g *Generator) WriteSnapshot(snap *snapshot.Snapshot) (string, error) {
	dir := g.opts.abs(g.opts.SnapshotDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", xerrors.Wrap(err, "create snapshot dir")
	}
	cp := snapshot.Snapshot{}
	if snap != nil {
		cp = *snap
	}
	if cp.PublishedID == "" {
		cp.PublishedID = snapshot.NewStamp(g.opts.Now())
	}
	b, err := snapshot.EncodeIndent(&cp)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "ui-"+dirStamp(g.opts.Now())+".json")
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return "", xerrors.Wrap(err, "write snapshot")
	}
	return p, nil
}

func (g *Generator) loadSnapshot(explicit string) (*snapshot.Snapshot, string, error) {
	p := g.opts.abs(explicit)
	if p == "" {
		latest, err := latestJSON(g.opts.abs(g.opts.SnapshotDir))
		if err != nil {
			return nil, "", err
		}
		p = latest
	}
	raw, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, p, xerrors.Wrapf(ErrNoSnapshot, "%s", p)
	}
	if err != nil {
		return nil, p, xerrors.Wrapf(err, "read %s", p)
	}
	snap, err := snapshot.Decode(raw)
	if err != nil {
		return nil, p, err
	}
	return snap, p, nil
}

// latestJSON returns the most recently modified *.json file in dir.
func latestJSON(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", xerrors.Wrapf(ErrNoSnapshot, "%v", err)
	}
	type cand struct {
		path  string
		mtime time.Time
	}
	var cands []cand
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		cands = append(cands, cand{filepath.Join(dir, e.Name()), info.ModTime()})
	}
	if len(cands) == 0 {
		return "", xerrors.Wrapf(ErrNoSnapshot, "no json in %s", dir)
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].mtime.After(cands[j].mtime) })
	return cands[0].path, nil
}

func injectInto(indexPath string, snap *snapshot.Snapshot) error {
	doc, err := os.ReadFile(indexPath)
	if err != nil {
		return xerrors.Wrap(err, "read entry document")
	}
	script, err := BootstrapScript(snap)
	if err != nil {
		return err
	}
	out, err := Inject(doc, script)
	if err != nil {
		return err
	}
	return os.WriteFile(indexPath, out, 0o644)
}

type rewrite struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// writeRoutingConfig sends every path to the entry document.
func writeRoutingConfig(outDir string) error {
	cfg := struct {
		Rewrites []rewrite `json:"rewrites"`
	}{Rewrites: []rewrite{{Source: "/(.*)", Destination: "/" + entryDocument}}}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return xerrors.Wrap(err, "encode vercel.json")
	}
	if err := os.WriteFile(filepath.Join(outDir, "vercel.json"), b, 0o644); err != nil {
		return xerrors.Wrap(err, "write vercel.json")
	}
	return nil
}

// dirStamp is a Publish Stamp made safe for file names.
func dirStamp(t time.Time) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(snapshot.NewStamp(t))
}
