// Package prof pushes continuous profiles to a Pyroscope server.
package prof

import (
	"context"
	"maps"
	"runtime"

	"github.com/grafana/pyroscope-go"

	"github.com/xelns/xelns-web/internal/log"
	"github.com/xelns/xelns-web/internal/version"
	"github.com/xelns/xelns-web/internal/xerrors"
)

type Options struct {
	Enabled       bool
	ServerAddress string
	TenantID      string

	AppName   string // default version.AppName
	Component string
	Version   string
	Tags      map[string]string

	// Runtime sampling rates for the mutex and block profiles. 0 leaves the
	// runtime setting alone.
	MutexFraction int
	BlockRate     int
}

var profileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseObjects,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexCount,
	pyroscope.ProfileMutexDuration,
	pyroscope.ProfileBlockCount,
	pyroscope.ProfileBlockDuration,
}

// config validates opts and builds the agent configuration.
func config(opts Options) (pyroscope.Config, error) {
	if opts.ServerAddress == "" {
		return pyroscope.Config{}, xerrors.New("pyroscope: server address is required")
	}
	app := opts.AppName
	if app == "" {
		app = version.AppName
	}
	tags := maps.Clone(opts.Tags)
	if tags == nil {
		tags = map[string]string{}
	}
	for k, v := range map[string]string{"component": opts.Component, "version": opts.Version} {
		if v != "" {
			tags[k] = v
		}
	}
	return pyroscope.Config{
		ApplicationName: app,
		ServerAddress:   opts.ServerAddress,
		TenantID:        opts.TenantID,
		Tags:            tags,
		ProfileTypes:    profileTypes,
	}, nil
}

// Start runs the profiler until the returned stop func is called. The stop
// func is never nil.
func Start(ctx context.Context, opts Options) (stop func(), err error) {
	L := log.FromContext(ctx)
	stop = func() {}
	if !opts.Enabled {
		L.Info(ctx, "pyroscope disabled")
		return stop, nil
	}

	cfg, err := config(opts)
	if err != nil {
		return stop, err
	}
	if opts.MutexFraction > 0 {
		runtime.SetMutexProfileFraction(opts.MutexFraction)
	}
	if opts.BlockRate > 0 {
		runtime.SetBlockProfileRate(opts.BlockRate)
	}

	p, err := pyroscope.Start(cfg)
	if err != nil {
		return stop, xerrors.Wrapf(err, "start pyroscope %s", cfg.ServerAddress)
	}
	L = L.With("pyro_server", cfg.ServerAddress, "app_name", cfg.ApplicationName)
	L.Info(ctx, "pyroscope started")
	return func() {
		p.Stop()
		L.Info(context.Background(), "pyroscope stopped")
	}, nil
}
