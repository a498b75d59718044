package ctl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultProfilePath = "~/.config/xelns/config.toml"
	defaultDBPath      = "~/.local/share/xelns/content.db"
	defaultRemoteURL   = "http://localhost:8787/api"
)

// Profile holds the operator's persistent defaults.
type Profile struct {
	DBPath      string `toml:"db_path"`
	RemoteURL   string `toml:"remote_url"`
	Token       string `toml:"token"`
	ProjectRoot string `toml:"project_root"`
}

// LoadProfile reads the profile at path, or the default location when path is
// empty. Missing files and empty fields fall back to defaults.
func LoadProfile(path string) (Profile, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultProfilePath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	b, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Profile{}, fmt.Errorf("read profile: %w", err)
	default:
		if err := toml.Unmarshal(b, &p); err != nil {
			return Profile{}, fmt.Errorf("parse profile %s: %w", resolved, err)
		}
	}

	p.DBPath = strings.TrimSpace(p.DBPath)
	if p.DBPath == "" {
		p.DBPath = defaultDBPath
	}
	if p.DBPath != ":memory:" {
		if p.DBPath, err = expandPath(p.DBPath); err != nil {
			return Profile{}, err
		}
	}
	p.RemoteURL = strings.TrimSpace(p.RemoteURL)
	if p.RemoteURL == "" {
		p.RemoteURL = defaultRemoteURL
	}
	p.Token = strings.TrimSpace(p.Token)
	if p.ProjectRoot = strings.TrimSpace(p.ProjectRoot); p.ProjectRoot == "" {
		p.ProjectRoot = "."
	}
	if p.ProjectRoot, err = expandPath(p.ProjectRoot); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
