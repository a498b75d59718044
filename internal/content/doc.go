// Package content serves generated sites.
//
// The site generator writes one site-<stamp> directory per run under an
// output base. This package picks the newest of those directories, checks it
// is servable, and keeps it as the active snapshot:
//   - [SiteDir]: finds and opens generated site directories
//   - [Manager]: holds the active snapshot behind an atomic.Pointer for lock-free reads
//   - [Watcher]: polls the output base and hot-swaps newer sites into the Manager
//   - [Snapshot]: a read-only filesystem plus metadata
package content
