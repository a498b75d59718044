package sitehandler

import (
	"io/fs"
	"path"
	"strings"

	"github.com/xelns/xelns-web/internal/pathutil"
)

// target is where a request path lands: a file to serve, or a canonical
// path to redirect to.
type target struct {
	file     string
	redirect string
}

// resolve maps a URL path onto fsys. "/" and "dir/" serve their index.html,
// a path with an extension must name a file, and an extensionless path whose
// directory has an index.html redirects to the slash form.
func resolve(fsys fs.FS, urlPath string) (target, bool) {
	clean, ok := pathutil.CleanURLPath(urlPath)
	if !ok {
		return target{}, false
	}
	rel := strings.TrimPrefix(clean, "/")

	switch {
	case clean == "/" || strings.HasSuffix(clean, "/"):
		return fileTarget(fsys, rel+"index.html")
	case path.Ext(clean) != "":
		return fileTarget(fsys, rel)
	case isFile(fsys, rel+"/index.html"):
		return target{redirect: clean + "/"}, true
	}
	return target{}, false
}

func fileTarget(fsys fs.FS, name string) (target, bool) {
	if !isFile(fsys, name) {
		return target{}, false
	}
	return target{file: name}, true
}

func isFile(fsys fs.FS, name string) bool {
	if fsys == nil || !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(fsys, name)
	return err == nil && !info.IsDir()
}
