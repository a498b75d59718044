package content

import (
	"io/fs"
	"time"
)

type Source string

const (
	SourceUnknown Source = "unknown"
	SourceSeed    Source = "seed"
	SourceDir     Source = "dir"
)

type Meta struct {
	// Version is the site directory name, e.g. site-2024-05-06T07-08-09-123Z.
	Version string `json:"version,omitempty"`
	// SHA256 is the hex digest of the site's index.html.
	SHA256 string `json:"sha256,omitempty"`
	Dir    string `json:"dir,omitempty"`
	Source Source `json:"source,omitempty"`

	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

type Snapshot struct {
	FS       fs.FS
	Meta     Meta
	LoadedAt time.Time
}
