package sitegen

import (
	"os"
	"path/filepath"
	"time"

	"github.com/xelns/xelns-web/internal/log"
)

// Options configures a Generator. Relative directories resolve against
// ProjectRoot.
type Options struct {
	ProjectRoot string

	// OutputBase receives one site-<timestamp> directory per run.
	OutputBase string
	// DistDir is where the build command leaves its output.
	DistDir string
	// SnapshotDir is searched for the newest *.json when no explicit
	// snapshot path is given.
	SnapshotDir string
	// SnapshotPath pins the snapshot to inject.
	SnapshotPath string

	// BuildCommand is run in ProjectRoot. Defaults to npm run build.
	BuildCommand []string
	Runner       Runner

	Logger log.Logger
	Now    func() time.Time
}

// Environment overrides honored by ApplyEnv.
const (
	EnvOutputDir    = "STATIC_OUTPUT_DIR"
	EnvDistDir      = "STATIC_DIST_DIR"
	EnvSnapshotDir  = "STATIC_SNAPSHOT_DIR"
	EnvSnapshotJSON = "STATIC_SNAPSHOT_JSON"
)

// ApplyEnv overlays the STATIC_* environment variables onto o.
func (o *Options) ApplyEnv() {
	if v := os.Getenv(EnvOutputDir); v != "" {
		o.OutputBase = v
	}
	if v := os.Getenv(EnvDistDir); v != "" {
		o.DistDir = v
	}
	if v := os.Getenv(EnvSnapshotDir); v != "" {
		o.SnapshotDir = v
	}
	if v := os.Getenv(EnvSnapshotJSON); v != "" && o.SnapshotPath == "" {
		o.SnapshotPath = v
	}
}

func (o *Options) setDefaults() {
	if o.ProjectRoot == "" {
		o.ProjectRoot = "."
	}
	if o.OutputBase == "" {
		o.OutputBase = "static-sites"
	}
	if o.DistDir == "" {
		o.DistDir = "dist"
	}
	if o.SnapshotDir == "" {
		o.SnapshotDir = "snapshots"
	}
	if len(o.BuildCommand) == 0 {
		o.BuildCommand = []string{"npm", "run", "build"}
	}
	if o.Runner == nil {
		o.Runner = ExecRunner{}
	}
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

func (o *Options) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.ProjectRoot, p)
}
