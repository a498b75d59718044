package ctl

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/publish"
	"github.com/xelns/xelns-web/internal/store"
	"github.com/xelns/xelns-web/internal/syncclient"
	"github.com/xelns/xelns-web/internal/version"
	"github.com/xelns/xelns-web/internal/workspace"
)

// globals are the persistent flags; empty values defer to the profile.
type globals struct {
	profilePath string
	dbPath      string
	remoteURL   string
	token       string
	projectRoot string
	logLevel    string
}

// NewRootCmd returns the root command for xelnsctl.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "xelnsctl",
		Short:         "Manage XELNS site content: backups, sync, publish and builds",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.profilePath, "profile", "", "profile path (default ~/.config/xelns/config.toml)")
	pf.StringVar(&g.dbPath, "db", "", "local content database (overrides profile db_path)")
	pf.StringVar(&g.remoteURL, "remote", "", "store endpoint base URL (overrides profile remote_url)")
	pf.StringVar(&g.token, "token", "", "store write token (overrides profile token)")
	pf.StringVar(&g.projectRoot, "project-root", "", "site project root (overrides profile project_root)")
	pf.StringVar(&g.logLevel, "log-level", "warn", "debug|info|warn|error")

	cmd.AddCommand(
		newVersionCmd(),
		newExportCmd(g),
		newImportCmd(g),
		newResetCmd(g),
		newPasswdCmd(g),
		newPushCmd(g),
		newPullCmd(g),
		newInitRemoteCmd(g),
		newReconcileCmd(g),
		newGenerateCmd(g),
		newMessagesCmd(g),
		newWatchCmd(g),
	)
	return cmd
}

// Execute runs the CLI with the process stdio.
func Execute() int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// profile merges the loaded profile with any flags that were set.
func (g *globals) profile() (Profile, error) {
	p, err := LoadProfile(g.profilePath)
	if err != nil {
		return Profile{}, err
	}
	if g.dbPath != "" {
		p.DBPath = g.dbPath
	}
	if g.remoteURL != "" {
		p.RemoteURL = g.remoteURL
	}
	if g.token != "" {
		p.Token = g.token
	}
	if g.projectRoot != "" {
		p.ProjectRoot = g.projectRoot
	}
	return p, nil
}

func (g *globals) logger(cmd *cobra.Command) (log.Logger, error) {
	lvl, err := log.ParseLevel(g.logLevel)
	if err != nil {
		return nil, err
	}
	return log.New(log.Options{
		App:     version.AppName,
		Version: version.Version,
		Level:   lvl,
		Writer:  cmd.ErrOrStderr(),
	})
}

// session is an open local store plus the runtime wired around it.
type session struct {
	profile Profile
	backend *store.SQLiteBackend
	store   *store.Store
	rt      *workspace.Runtime
	logger  log.Logger
}

func (s *session) Close() error { return s.backend.Close() }

// open opens the local database and builds a runtime. published may be nil.
func (g *globals) open(cmd *cobra.Command, published publish.Source) (*session, error) {
	ctx := commandContext(cmd)
	p, err := g.profile()
	if err != nil {
		return nil, err
	}
	L, err := g.logger(cmd)
	if err != nil {
		return nil, err
	}
	if err := ensureParent(p.DBPath); err != nil {
		return nil, err
	}
	backend, err := store.OpenSQLite(ctx, p.DBPath)
	if err != nil {
		return nil, err
	}
	st := store.New(store.Options{Backend: backend, Logger: L})

	errOut := cmd.ErrOrStderr()
	opts := workspace.Options{
		Store: st,
		Remote: syncclient.New(syncclient.Options{
			BaseURL: p.RemoteURL,
			Token:   p.Token,
			Logger:  L,
		}),
		Notifier: workspace.NotifierFunc(func(_ context.Context, msg string) {
			fmt.Fprintln(errOut, msg)
		}),
		Logger: L,
	}
	if published != nil {
		opts.Published = published
	}
	return &session{
		profile: p,
		backend: backend,
		store:   st,
		rt:      workspace.New(opts),
		logger:  L,
	}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vi := version.Get()
			fmt.Fprintln(cmd.OutOrStdout(), vi.Short())
			return nil
		},
	}
}
