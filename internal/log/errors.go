package log

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// errorFields describes err as key/value pairs: the error itself, the
// outermost non-wrapper type, the root cause type, the distinct messages
// along the chain and optionally the wrap sites.
func errorFields(err error, withLinks bool, maxLinks int) []any {
	kv := []any{
		"err", err,
		"error_type", surfaceType(err),
		"cause_type", fmt.Sprintf("%T", rootCause(err)),
	}
	if chain := messageChain(err); len(chain) > 0 {
		kv = append(kv, "error_chain", chain)
	}
	if withLinks {
		kv = append(kv, "error_links", wrapSites(err, maxLinks))
	}
	return kv
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// surfaceType skips xerrors and fmt.Errorf wrappers.
func surfaceType(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		t := reflect.TypeOf(e)
		base := t
		for base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		if strings.HasSuffix(base.PkgPath(), "/internal/xerrors") {
			continue
		}
		if base.PkgPath() == "fmt" && base.Name() == "wrapError" {
			continue
		}
		return t.String()
	}
	return fmt.Sprintf("%T", err)
}

func messageChain(err error) []string {
	var out []string
	push := func(s string) {
		if len(out) == 0 || out[len(out)-1] != s {
			out = append(out, s)
		}
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		push(e.Error())
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			push(e.Error())
		}
	}
	return out
}

// wrapSites lists each link of the chain with the position it was created
// at, when known. The outermost link is always included.
func wrapSites(err error, max int) []map[string]any {
	var links []map[string]any
	depth := 0
	for e := err; e != nil && depth < max; e = errors.Unwrap(e) {
		link := map[string]any{"msg": e.Error()}
		fr, ok := position(e)
		if ok {
			link["func"], link["file"], link["line"] = fr.Function, fr.File, fr.Line
		}
		if ok || depth == 0 {
			links = append(links, link)
		}
		depth++
	}
	return links
}

func position(e error) (runtime.Frame, bool) {
	if p, ok := e.(interface{ PC() uintptr }); ok {
		if p.PC() == 0 {
			return runtime.Frame{}, false
		}
		fr, _ := runtime.CallersFrames([]uintptr{p.PC()}).Next()
		return fr, true
	}
	if s, ok := e.(interface{ StackPCs() []uintptr }); ok {
		frames := runtime.CallersFrames(s.StackPCs())
		for {
			fr, more := frames.Next()
			if fr.Function != "" && !internalFrame(fr.Function) && !strings.Contains(fr.Function, "/internal/xerrors.") {
				return fr, true
			}
			if !more {
				break
			}
		}
	}
	return runtime.Frame{}, false
}

// internalFrame reports frames belonging to slog or to this package's
// logger plumbing.
func internalFrame(fn string) bool {
	if strings.HasPrefix(fn, "log/slog.") {
		return true
	}
	for _, p := range []string{"/internal/log.(*logger).", "/internal/log.enrich.", "/internal/log.recordStack"} {
		if strings.Contains(fn, p) {
			return true
		}
	}
	return false
}

// formatFrames renders function/file:line pairs, dropping leading logging
// frames and stopping at the runtime.
func formatFrames(pcs []uintptr) string {
	var b strings.Builder
	started := false
	frames := runtime.CallersFrames(pcs)
	for {
		fr, more := frames.Next()
		if strings.HasPrefix(fr.Function, "runtime.") {
			break
		}
		if !started && fr.Function != "" && !internalFrame(fr.Function) {
			started = true
		}
		if started {
			fmt.Fprintf(&b, "%s\n\t%s:%d\n", fr.Function, fr.File, fr.Line)
		}
		if !more {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
