// Command adminapi is the local tooling endpoint the admin console talks to
// while editing: it builds static sites on demand and serves the file-backed
// store endpoints. It listens on loopback only.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/xelns/xelns-web/internal/adminapi"
	"github.com/xelns/xelns-web/internal/cfg"
	"github.com/xelns/xelns-web/internal/health"
	"github.com/xelns/xelns-web/internal/httpmw"
	"github.com/xelns/xelns-web/internal/httpserver"
	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/metrics"
	"github.com/xelns/xelns-web/internal/opshttp"
	"github.com/xelns/xelns-web/internal/remotestore"
	"github.com/xelns/xelns-web/internal/sitegen"
	"github.com/xelns/xelns-web/internal/storehttp"
	v "github.com/xelns/xelns-web/internal/version"
	"github.com/xelns/xelns-web/internal/xerrors"
)

// builds routinely take minutes
const generateWriteTimeout = 15 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var conf cfg.Admin
	cfg.RegisterAdmin(flag.CommandLine, &conf)
	flag.Parse()

	if err := cfg.LoadDotEnv(conf.EnvFile); err != nil {
		fmt.Fprintln(os.Stderr, "env file:", err)
	}
	cfg.FillFromEnv(flag.CommandLine, cfg.AdminEnvPrefix, func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})
	if err := cfg.ValidateAdmin(conf); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	lvl, _ := log.ParseLevel(conf.LogLevel)
	vi := v.Get()
	lg, err := log.New(log.Options{
		App:        v.AppName,
		Version:    vi.Version,
		Commit:     vi.Commit,
		BuildId:    vi.BuildId,
		Level:      lvl,
		JsonFormat: conf.LogJSON,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	defer lg.Sync()
	L := lg.With("component", "adminapi")
	ctx = log.WithContext(ctx, L)

	if err := run(ctx, L, conf, vi); err != nil {
		L.Error(ctx, err, "adminapi exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, L log.Logger, conf cfg.Admin, vi v.Info) error {
	root, err := filepath.Abs(conf.ProjectRoot)
	if err != nil {
		return xerrors.Wrapf(err, "resolve project root %s", conf.ProjectRoot)
	}

	genOpts := sitegen.Options{ProjectRoot: root, Logger: L.With("subsystem", "sitegen")}
	genOpts.ApplyEnv()
	gen := sitegen.New(genOpts)

	storePath := conf.StoreFile
	if !filepath.IsAbs(storePath) {
		storePath = filepath.Join(root, storePath)
	}
	store := storehttp.New(storehttp.Options{
		Store: remotestore.New(remotestore.Options{
			Backend: remotestore.FileBackend{Path: storePath},
			Logger:  L.With("subsystem", "remotestore"),
		}),
		Logger: L,
	})

	m := metrics.New()
	m.SetBuildInfoFromVersion(v.AppName, "adminapi", vi)

	api := adminapi.New(adminapi.Options{
		Generator: gen,
		Store:     store,
		Logger:    L,
		Metrics:   m,
	})

	handler := httpmw.Chain(api.Handler(),
		httpmw.Recover(L, m.IncHttpPanic),
		httpmw.RequestID(""),
		httpmw.WithLogger(L),
		httpmw.AccessLog(),
	)

	addr := net.JoinHostPort("127.0.0.1", fmt.Sprint(conf.Port))
	srv := httpserver.NewServer(addr, handler)
	srv.ReadTimeout = time.Minute
	srv.WriteTimeout = generateWriteTimeout

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return xerrors.EnsureTrace(err)
	}

	if conf.OpsPort != 0 {
		stopOps, err := opshttp.Start(ctx, L, &opshttp.Options{
			Port:      conf.OpsPort,
			Metrics:   m.Handler(),
			Health:    health.Fixed(true, ""),
			Readiness: health.Fixed(true, ""),
		})
		if err != nil {
			ln.Close()
			return err
		}
		defer func() { _ = stopOps(context.Background()) }()
	}

	errCh := make(chan error, 1)
	go func() {
		L.Info(ctx, "adminapi listening",
			"addr", addr,
			"project_root", root,
			"store_file", storePath,
		)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	L.Info(context.Background(), "adminapi shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
