package sitehandler

import (
	"path"
	"strings"
)

type fileClass int

const (
	classOther fileClass = iota
	classHTML
	classAsset
)

// generated builds fingerprint these, so they can be cached for a year
var assetExts = map[string]bool{
	".css":  true, ".js": true, ".mjs": true, ".map": true,
	".png":  true, ".jpg": true, ".jpeg": true, ".webp": true, ".gif": true, ".svg": true, ".ico": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
}

func classify(name string) fileClass {
	ext := strings.ToLower(path.Ext(name))
	switch {
	case ext == "" || ext == ".html":
		return classHTML
	case assetExts[ext]:
		return classAsset
	}
	return classOther
}

func (p CachePolicy) For(name string) string {
	switch classify(name) {
	case classHTML:
		return p.HTML
	case classAsset:
		return p.Asset
	}
	return p.Other
}
