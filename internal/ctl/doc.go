// Package ctl implements xelnsctl, the operator command line for the site
// content: export and import backups, push to and pull from the remote store,
// apply a published snapshot, build a static site and triage contact
// messages.
//
// # Profile
//
// Defaults come from a TOML profile, by default ~/.config/xelns/config.toml:
//
//	db_path      = "~/.local/share/xelns/content.db"
//	remote_url   = "http://localhost:8787/api"
//	token        = ""
//	project_root = "~/src/xelns-site"
//
// Every key is optional and a missing file is not an error. Command line
// flags override the profile.
package ctl
