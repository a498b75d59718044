package content

import (
	"encoding/json"
	"io/fs"

	"github.com/xelns/xelns-web/internal/xerrors"
)

// ValidationOptions picks the checks a site must pass before it is served.
// The zero value only requires a non-empty index.html.
type ValidationOptions struct {
	// MinFiles rejects sites with fewer regular files. 0 disables it.
	MinFiles int

	// RequiredFiles must exist in the site root.
	RequiredFiles []string

	// JSONFiles, when present, must hold a JSON object.
	JSONFiles []string
}

// DefaultValidationOptions is what every generator run produces: the entry
// document plus a routing config that parses.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MinFiles:      2,
		RequiredFiles: []string{"vercel.json"},
		JSONFiles:     []string{"vercel.json"},
	}
}

// ValidateSnapshot returns the first failed check, or nil.
func ValidateSnapshot(snap *Snapshot, opts ValidationOptions) error {
	switch {
	case snap == nil:
		return xerrors.New("validate: snapshot is nil")
	case snap.FS == nil:
		return xerrors.New("validate: snapshot has nil filesystem")
	}
	checks := []func(fs.FS) error{
		checkIndex,
		func(fsys fs.FS) error { return checkRequired(fsys, opts.RequiredFiles) },
		func(fsys fs.FS) error { return checkJSON(fsys, opts.JSONFiles) },
		func(fsys fs.FS) error { return checkMinFiles(fsys, opts.MinFiles) },
	}
	for _, check := range checks {
		if err := check(snap.FS); err != nil {
			return err
		}
	}
	return nil
}

func checkIndex(fsys fs.FS) error {
	info, err := fs.Stat(fsys, "index.html")
	if err != nil {
		return xerrors.Wrap(err, "validate: index.html not found")
	}
	if info.Size() == 0 {
		return xerrors.New("validate: index.html is empty")
	}
	return nil
}

func checkRequired(fsys fs.FS, names []string) error {
	for _, name := range names {
		if _, err := fs.Stat(fsys, name); err != nil {
			return xerrors.Wrapf(err, "validate: %s not found", name)
		}
	}
	return nil
}

func checkJSON(fsys fs.FS, names []string) error {
	for _, name := range names {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(b, &obj); err != nil {
			return xerrors.Wrapf(err, "validate: %s is not a JSON object", name)
		}
	}
	return nil
}

func checkMinFiles(fsys fs.FS, minFiles int) error {
	if minFiles <= 0 {
		return nil
	}
	n, err := countFiles(fsys)
	if err != nil {
		return xerrors.Wrap(err, "validate: counting files")
	}
	if n < minFiles {
		return xerrors.Newf("validate: site has %d files, minimum is %d", n, minFiles)
	}
	return nil
}

func countFiles(fsys fs.FS) (int, error) {
	n := 0
	err := fs.WalkDir(fsys, ".", func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return err
	})
	return n, err
}
