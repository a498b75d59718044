// Package cfg binds process configuration to flags, overlays environment
// variables and validates the result.
package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/xelns/xelns-web/internal/log"
)

// EnvPrefix is the environment prefix for cmd/server.
const EnvPrefix = "XELNS_"

// Store backends.
const (
	StoreBackendFile = "file"
	StoreBackendS3   = "s3"
)

type App struct {
	LogJSON           bool
	LogLevel          string
	HTTPPort          int
	AdminPort         int
	EnablePprof       bool
	EnablePyroscope   bool
	EnableTracing     bool
	PyroServer        string
	PyroTenantID      string
	OTLPEndpoint      string
	TraceSample       float64
	StacktraceLevel   string
	IncludeErrorLinks bool
	MaxErrorLinks     int

	// generated sites
	EnableSiteWatcher bool
	SiteDir           string
	SitePollInterval  time.Duration

	// remote store
	EnableStoreAPI     bool
	StoreBackend       string
	StoreFile          string
	StoreS3Bucket      string
	StoreS3Key         string
	StoreTokenSSMParam string
	WriteRate          float64
	WriteBurst         int
}

// Register binds all config fields to the given FlagSet with defaults inline
func Register(fs *flag.FlagSet, c *App) {
	fs.BoolVar(&c.LogJSON, "log-json", true, "JSON logs (true) or logfmt (false)")
	fs.StringVar(&c.LogLevel, "log-level", "info", "debug|info|warn|error")
	fs.IntVar(&c.HTTPPort, "http-port", 8080, "listen TCP port (1..65535)")
	fs.IntVar(&c.AdminPort, "admin-port", 9000, "ops listen TCP port (1..65535)")
	fs.BoolVar(&c.EnablePprof, "enable-pprof", true, "Enable pprof profiling (on ops port only)")
	fs.BoolVar(&c.EnableTracing, "enable-tracing", false, "Enable OTLP tracing and push to otlp-endpoint")
	fs.BoolVar(&c.EnablePyroscope, "enable-pyroscope", false, "Enable pushing Pyroscope data to server set in -pyro-server")
	fs.BoolVar(&c.IncludeErrorLinks, "include-error-links", true, "Include error links in log messages")
	fs.IntVar(&c.MaxErrorLinks, "max-error-links", 5, "max error chain depth (1..64)")
	fs.Float64Var(&c.TraceSample, "trace-sample", 0.0, "trace sampling ratio (0..1)")
	fs.StringVar(&c.StacktraceLevel, "stacktrace-level", "error", "debug|info|warn|error")
	fs.StringVar(&c.PyroServer, "pyro-server", "", "pyroscope server url to push to")
	fs.StringVar(&c.PyroTenantID, "pyro-tenant", "", "tenant (x-scope-orgid) to use for pyro-server")
	fs.StringVar(&c.OTLPEndpoint, "otlp-endpoint", "", "OTLP endpoint to push to (gRPC) (host:port)")

	fs.BoolVar(&c.EnableSiteWatcher, "enable-site-watcher", true, "Serve the newest generated site and pick up new ones")
	fs.StringVar(&c.SiteDir, "site-dir", "static-sites", "directory holding site-<timestamp> generator output")
	fs.DurationVar(&c.SitePollInterval, "site-poll-interval", 30*time.Second, "how often to look for a newer generated site")

	fs.BoolVar(&c.EnableStoreAPI, "enable-store-api", true, "Serve /api/store and /api/init-db")
	fs.StringVar(&c.StoreBackend, "store-backend", StoreBackendFile, "file|s3")
	fs.StringVar(&c.StoreFile, "store-file", "data/site_data.json", "document path for the file backend")
	fs.StringVar(&c.StoreS3Bucket, "store-s3-bucket", "", "bucket for the s3 backend")
	fs.StringVar(&c.StoreS3Key, "store-s3-key", "site_data.json", "object key for the s3 backend")
	fs.StringVar(&c.StoreTokenSSMParam, "store-token-ssm-param", "", "ssm parameter holding the store write token (empty: writes are open)")
	fs.Float64Var(&c.WriteRate, "write-rate", 1, "store writes per second per ip")
	fs.IntVar(&c.WriteBurst, "write-burst", 10, "store write burst per ip")
}

// FillFromEnv sets any flag not explicitly passed on the CLI from
// environment variables. Flag "foo-bar" maps to PREFIX_FOO_BAR.
// Precedence: cli flag > env var > default.
func FillFromEnv(fs *flag.FlagSet, prefix string, logf func(string, ...any)) {
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	fs.VisitAll(func(f *flag.Flag) {
		key := prefix + strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_")
		envVal, envSet := os.LookupEnv(key)
		if !envSet {
			return
		}
		if explicit[f.Name] {
			if logf != nil {
				logf("flag -%s: cli value %q overrides env %s=%q", f.Name, f.Value.String(), key, envVal)
			}
			return
		}
		prev := f.Value.String()
		if err := fs.Set(f.Name, envVal); err != nil {
			fs.Set(f.Name, prev)
			if logf != nil {
				logf("flag -%s: ignoring invalid env %s=%q: %v", f.Name, key, envVal, err)
			}
		}
	})
}

// Validate checks that config values are within expected ranges and formats.
// Returns an error describing all invalid fields, or nil if all valid.
func Validate(c App) error {
	var errs []error

	// Ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.HTTPPort))
	}
	if c.AdminPort < 1 || c.AdminPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid ADMIN_PORT %d (must be 1..65535)", c.AdminPort))
	}
	if c.AdminPort == c.HTTPPort {
		errs = append(errs, fmt.Errorf("ADMIN_PORT and HTTP_PORT must differ (both %d)", c.HTTPPort))
	}

	errs = append(errs, validateLogging(c.LogLevel, c.StacktraceLevel)...)

	// Tracing sample
	if c.TraceSample < 0 || c.TraceSample > 1 {
		errs = append(errs, fmt.Errorf("invalid TRACE_SAMPLE %.3f (must be 0..1)", c.TraceSample))
	}

	// Pyroscope (URL and scheme)
	if c.EnablePyroscope {
		if c.PyroServer == "" {
			errs = append(errs, fmt.Errorf("PYRO_SERVER required when ENABLE_PYROSCOPE=true"))
		} else if u, err := url.Parse(c.PyroServer); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("PYRO_SERVER must be a URL (got %q)", c.PyroServer))
		}
		if c.PyroTenantID == "" {
			errs = append(errs, fmt.Errorf("PYRO_TENANT required when ENABLE_PYROSCOPE=true"))
		}
	}

	// OTLP tracing (grpc exporter wants host:port, no scheme)
	if c.EnableTracing {
		if c.OTLPEndpoint == "" {
			errs = append(errs, fmt.Errorf("OTLP_ENDPOINT required when ENABLE_TRACING=true"))
		} else if _, _, err := net.SplitHostPort(c.OTLPEndpoint); err != nil {
			errs = append(errs, fmt.Errorf("OTLP_ENDPOINT must be host:port (got %q): %v", c.OTLPEndpoint, err))
		}
	}

	// Error link limits
	if c.IncludeErrorLinks {
		if c.MaxErrorLinks < 1 || c.MaxErrorLinks > 64 {
			errs = append(errs, fmt.Errorf("MAX_ERROR_LINKS must be 1..64 (got %d)", c.MaxErrorLinks))
		}
	}

	if c.EnableSiteWatcher {
		if c.SiteDir == "" {
			errs = append(errs, fmt.Errorf("SITE_DIR is required when ENABLE_SITE_WATCHER=true"))
		}
		if c.SitePollInterval < time.Second {
			errs = append(errs, fmt.Errorf("SITE_POLL_INTERVAL must be at least 1s (got %s)", c.SitePollInterval))
		}
	}

	if c.EnableStoreAPI {
		switch c.StoreBackend {
		case StoreBackendFile:
			if c.StoreFile == "" {
				errs = append(errs, fmt.Errorf("STORE_FILE is required when STORE_BACKEND=file"))
			}
		case StoreBackendS3:
			if c.StoreS3Bucket == "" {
				errs = append(errs, fmt.Errorf("STORE_S3_BUCKET is required when STORE_BACKEND=s3"))
			}
			if c.StoreS3Key == "" {
				errs = append(errs, fmt.Errorf("STORE_S3_KEY is required when STORE_BACKEND=s3"))
			}
		default:
			errs = append(errs, fmt.Errorf("invalid STORE_BACKEND %q (must be file or s3)", c.StoreBackend))
		}
		if c.WriteRate <= 0 {
			errs = append(errs, fmt.Errorf("WRITE_RATE must be positive (got %g)", c.WriteRate))
		}
		if c.WriteBurst < 1 {
			errs = append(errs, fmt.Errorf("WRITE_BURST must be at least 1 (got %d)", c.WriteBurst))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateLogging(level, stacktrace string) []error {
	var errs []error
	if _, err := log.ParseLevel(level); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err))
	}
	if stacktrace != "" {
		if _, err := log.ParseLevel(stacktrace); err != nil {
			errs = append(errs, fmt.Errorf("invalid STACKTRACE_LEVEL %q: %w", stacktrace, err))
		}
	}
	return errs
}
