// Command server serves the active generated XELNS site, the /api/store
// endpoints and an ops listener with probes, metrics and pprof.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/xelns/xelns-web/internal/cfg"
	"github.com/xelns/xelns-web/internal/content"
	"github.com/xelns/xelns-web/internal/health"
	"github.com/xelns/xelns-web/internal/httpserver"
	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/metrics"
	"github.com/xelns/xelns-web/internal/opshttp"
	"github.com/xelns/xelns-web/internal/otelx"
	"github.com/xelns/xelns-web/internal/prof"
	"github.com/xelns/xelns-web/internal/ratelimit"
	"github.com/xelns/xelns-web/internal/sitehandler"
	v "github.com/xelns/xelns-web/internal/version"
	"github.com/xelns/xelns-web/internal/webassets"
)

const (
	drainPeriod     = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	conf, showVersion := parseFlags()
	vi := v.Get()
	if showVersion {
		fmt.Println(vi)
		return
	}
	if err := cfg.Validate(conf); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	lg, err := newLogger(conf, vi)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	defer lg.Sync()
	L := lg.With("component", "server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx, L)

	if err := run(ctx, stop, L, conf, vi); err != nil {
		L.Error(context.Background(), err, "server exited")
		os.Exit(1)
	}
}

func parseFlags() (cfg.App, bool) {
	var conf cfg.App
	cfg.Register(flag.CommandLine, &conf)
	showVersion := flag.Bool("V", false, "print version and build information and exit")
	flag.Parse()
	cfg.FillFromEnv(flag.CommandLine, cfg.EnvPrefix, func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})
	return conf, *showVersion
}

func newLogger(conf cfg.App, vi v.Info) (log.Logger, error) {
	lvl, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		return nil, err
	}
	stackLvl, _ := log.ParseLevel(conf.StacktraceLevel)
	return log.New(log.Options{
		App:               v.AppName,
		Version:           vi.Version,
		Commit:            vi.Commit,
		BuildId:           vi.BuildId,
		Level:             lvl,
		StacktraceLevel:   stackLvl,
		JsonFormat:        conf.LogJSON,
		MaxErrorLinks:     conf.MaxErrorLinks,
		IncludeErrorLinks: conf.IncludeErrorLinks,
	})
}

// telemetry starts profiling and tracing. Failures are logged and the
// server runs without them.
func telemetry(ctx context.Context, L log.Logger, conf cfg.App, vi v.Info) (profiling bool, stop func(context.Context)) {
	stopProf, err := prof.Start(ctx, prof.Options{
		Enabled:       conf.EnablePyroscope,
		ServerAddress: conf.PyroServer,
		TenantID:      conf.PyroTenantID,
		Component:     "server",
		Version:       vi.Version,
		Tags:          map[string]string{"commit": vi.Commit},
	})
	if err != nil {
		L.Error(ctx, err, "pyroscope start failed", "pyro_server", conf.PyroServer)
	}
	profiling = conf.EnablePyroscope && err == nil

	// the collector runs on the host
	shutdownTracing, err := otelx.Init(ctx, otelx.Options{
		Enabled:   conf.EnableTracing,
		Endpoint:  conf.OTLPEndpoint,
		Insecure:  true,
		Sample:    conf.TraceSample,
		Component: "server",
		Version:   vi.Version,
	})
	if err != nil {
		L.Error(ctx, err, "tracing init failed")
		shutdownTracing = func(context.Context) error { return nil }
	}

	var once sync.Once
	return profiling, func(sctx context.Context) {
		once.Do(func() {
			if err := shutdownTracing(sctx); err != nil {
				L.Error(sctx, err, "tracing shutdown")
			}
			stopProf()
		})
	}
}

func run(ctx context.Context, stopSignals func(), L log.Logger, conf cfg.App, vi v.Info) error {
	L.Info(ctx, "starting",
		"version", vi.Version,
		"commit", vi.Commit,
		"go_version", vi.GoVersion,
		"http_port", conf.HTTPPort,
		"admin_port", conf.AdminPort,
		"site_dir", conf.SiteDir,
		"site_watcher", conf.EnableSiteWatcher,
		"store_api", conf.EnableStoreAPI,
		"store_backend", conf.StoreBackend,
	)

	profiling, stopTelemetry := telemetry(ctx, L, conf, vi)
	defer stopTelemetry(context.Background())

	m := metrics.New()
	m.SetBuildInfoFromVersion(v.AppName, "server", vi)
	m.SetProfilingActive(profiling)

	sites := setupSites(ctx, L, conf, m)

	apiRoutes := noRoutes
	if conf.EnableStoreAPI {
		api, err := setupStoreAPI(ctx, L, conf, m)
		if err != nil {
			return err
		}
		apiRoutes = api.RegisterRoutes
	}

	siteHandler, err := sitehandler.New(sitehandler.Options{
		Logger:      L,
		Content:     sites,
		FallbackFS:  webassets.FallbackFS(),
		SPAFallback: true,
	})
	if err != nil {
		return err
	}

	var gate health.ShutdownGate
	readiness := readinessProbe(&gate, sites)

	stopSite, err := httpserver.Start(ctx, &httpserver.Options{
		Port:         conf.HTTPPort,
		Health:       health.Fixed(true, ""),
		Readiness:    readiness,
		APIRoutes:    apiRoutes,
		SiteHandler:  siteHandler,
		UseRecoverMW: true,
		OnPanic:      m.IncHttpPanic,
		MetricsMW:    m.Middleware,
		RateLimitMW:  siteLimiter(ctx, L, m).Middleware,
		Logger:       L,
		ContentInfo:  sites,
	})
	if err != nil {
		return err
	}
	defer func() { _ = stopSite(context.Background()) }()

	// rejects public and proxied peers
	stopOps, err := opshttp.Start(ctx, L, &opshttp.Options{
		Port:         conf.AdminPort,
		Metrics:      m.Handler(),
		EnablePprof:  conf.EnablePprof,
		Health:       health.Fixed(true, ""),
		Readiness:    readiness,
		UseRecoverMW: true,
		OnPanic:      m.IncHttpPanic,
	})
	if err != nil {
		return err
	}
	defer func() { _ = stopOps(context.Background()) }()

	if err := notifySystemd(); err != nil {
		L.Debug(ctx, "systemd notify skipped", "reason", err.Error())
	}

	<-ctx.Done()
	stopSignals()
	bg := context.Background()
	L.Info(bg, "shutdown signal received")
	gate.Set("draining")
	drain(L, drainPeriod)

	sctx, cancel := context.WithTimeout(bg, shutdownTimeout)
	defer cancel()
	if err := stopSite(sctx); err != nil {
		L.Error(bg, err, "site http shutdown")
	}
	if err := stopOps(sctx); err != nil {
		L.Error(bg, err, "ops http shutdown")
	}
	stopTelemetry(sctx)
	L.Info(bg, "shutdown complete")
	return nil
}

// readinessProbe fails while draining and until a seed or generated site is
// being served.
func readinessProbe(gate *health.ShutdownGate, sites *content.Manager) health.Probe {
	return health.All(
		gate.Probe(),
		health.CheckFunc(func(context.Context) error { return sites.ReadyErr() }),
	)
}

func siteLimiter(ctx context.Context, L log.Logger, m *metrics.ServerMetrics) *ratelimit.IPLimiter {
	return ratelimit.New(ctx,
		ratelimit.WithOnDenied(func(string) { m.IncRateLimitDenied() }),
		ratelimit.WithOnFirstDenied(func(ip string) {
			L.Warn(ctx, "rate limit triggered", "ip", ip)
		}),
		ratelimit.WithOnCapacity(func() {
			m.IncRateLimitCapacity()
			L.Warn(ctx, "rate limit visitor table full, rejecting new addresses until eviction")
		}),
	)
}

// drain keeps serving so load balancers see /readyz fail before listeners
// close. A second signal cuts it short.
func drain(L log.Logger, d time.Duration) {
	bg := context.Background()
	L.Info(bg, "draining before shutdown", "drain", d.String())
	again := make(chan os.Signal, 1)
	signal.Notify(again, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(again)
	select {
	case <-time.After(d):
	case <-again:
		L.Warn(bg, "second signal received, skipping drain")
	}
}

func notifySystemd() error {
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return fmt.Errorf("NOTIFY_SOCKET not set")
	}
	conn, err := net.Dial("unixgram", addr)
	if err != nil {
		return fmt.Errorf("dial notify socket: %w", err)
	}
	defer conn.Close()
	_, err = conn.Write([]byte("READY=1"))
	return err
}
