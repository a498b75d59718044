// Package pathutil normalizes request paths before they reach a file system.
package pathutil

import (
	"path"
	"strings"
)

// HasDotSegments reports whether any segment of p is "." or "..".
func HasDotSegments(p string) bool {
	for seg := range strings.SplitSeq(p, "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}

// CleanURLPath returns p rooted at "/" and cleaned, keeping a trailing slash.
// It rejects NUL bytes, backslashes, any "..", and dot segments rather than
// resolving them.
func CleanURLPath(p string) (string, bool) {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if strings.ContainsAny(p, "\x00\\") || strings.Contains(p, "..") || HasDotSegments(p) {
		return "", false
	}
	clean := path.Clean(p)
	if clean != "/" && strings.HasSuffix(p, "/") {
		clean += "/"
	}
	return clean, true
}
