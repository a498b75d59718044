package cfg

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// AdminEnvPrefix is the environment prefix for cmd/adminapi. The port flag
// therefore reads ADMIN_API_PORT.
const AdminEnvPrefix = "ADMIN_API_"

// Admin configures the local tooling endpoint.
type Admin struct {
	LogJSON     bool
	LogLevel    string
	Port        int
	OpsPort     int
	ProjectRoot string
	StoreFile   string
	EnvFile     string
}

// RegisterAdmin binds the admin tooling flags to fs.
func RegisterAdmin(fs *flag.FlagSet, c *Admin) {
	fs.BoolVar(&c.LogJSON, "log-json", false, "JSON logs (true) or logfmt (false)")
	fs.StringVar(&c.LogLevel, "log-level", "info", "debug|info|warn|error")
	fs.IntVar(&c.Port, "port", 8787, "listen TCP port (1..65535)")
	fs.IntVar(&c.OpsPort, "ops-port", 0, "metrics and probes listen port (0 disables)")
	fs.StringVar(&c.ProjectRoot, "project-root", ".", "site project root; the build command runs here")
	fs.StringVar(&c.StoreFile, "store-file", "data/site_data.json", "remote store document, relative to project-root")
	fs.StringVar(&c.EnvFile, "env-file", ".env", "dotenv file loaded before env overlay (missing is fine)")
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ValidateAdmin checks the admin tooling config.
func ValidateAdmin(c Admin) error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid ADMIN_API_PORT %d (must be 1..65535)", c.Port))
	}
	if c.OpsPort < 0 || c.OpsPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid ADMIN_API_OPS_PORT %d (must be 0..65535)", c.OpsPort))
	} else if c.OpsPort != 0 && c.OpsPort == c.Port {
		errs = append(errs, fmt.Errorf("ADMIN_API_OPS_PORT and ADMIN_API_PORT must differ (both %d)", c.Port))
	}
	if c.ProjectRoot == "" {
		errs = append(errs, fmt.Errorf("PROJECT_ROOT is required"))
	}
	if c.StoreFile == "" {
		errs = append(errs, fmt.Errorf("STORE_FILE is required"))
	}
	errs = append(errs, validateLogging(c.LogLevel, "")...)
	return errors.Join(errs...)
}
