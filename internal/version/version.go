// Package version reports build metadata. Values come from -ldflags first,
// then from the VCS settings the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/xelns/xelns-web/internal/version.Version=...".
var (
	AppName    = "xelns-web"
	Version    = "dev"
	Commit     = "none"
	CommitDate string
	BuildDate  string
	BuildId    string
	GoVersion  string
	VCSDirty   *bool
)

type Info struct {
	AppName    string `json:"app"`
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	CommitDate string `json:"commit_date"`
	BuildDate  string `json:"build_date"`
	BuildId    string `json:"build_id"`
	GoVersion  string `json:"go_version"`
	VCSDirty   *bool  `json:"vcs_dirty,omitempty"`
}

func Get() Info {
	info := Info{
		AppName:    AppName,
		Version:    Version,
		Commit:     Commit,
		CommitDate: CommitDate,
		BuildDate:  BuildDate,
		BuildId:    BuildId,
		GoVersion:  GoVersion,
		VCSDirty:   VCSDirty,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.merge(bi)
	}
	return info
}

// merge fills what ldflags left unset from the embedded build settings.
func (i *Info) merge(bi *debug.BuildInfo) {
	i.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		if s.Value == "" {
			continue
		}
		switch s.Key {
		case "vcs.revision":
			if i.Commit == "none" {
				i.Commit = s.Value
			}
		case "vcs.time":
			i.CommitDate = s.Value
			if i.BuildDate == "" {
				i.BuildDate = s.Value
			}
		case "vcs.modified":
			dirty := s.Value == "true"
			i.VCSDirty = &dirty
		}
	}
}

// Dirty reports "true", "false" or "unknown".
func (i Info) Dirty() string {
	if i.VCSDirty == nil {
		return "unknown"
	}
	return fmt.Sprint(*i.VCSDirty)
}

// Short is "<app> <version> (commit=..., go=...)".
func (i Info) Short() string {
	return fmt.Sprintf("%s %s (commit=%s, go=%s)", i.AppName, i.Version, i.Commit, i.GoVersion)
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit=%s, commit_date=%s, build_id=%s, build_date=%s, go=%s, dirty=%s)",
		i.AppName, i.Version, i.Commit, i.CommitDate, i.BuildId, i.BuildDate, i.GoVersion, i.Dirty())
}
