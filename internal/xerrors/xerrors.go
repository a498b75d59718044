// Package xerrors adds call-site information to errors. New, Newf, WithStack
// and EnsureTrace record a stack; Wrap and Wrapf record the single frame that
// added context. The logger turns both into stack and error_links fields.
package xerrors

import (
	"errors"
	"fmt"
	"runtime"
)

const maxDepth = 64

type stacked struct {
	cause error
	stack []uintptr
}

func (e *stacked) Error() string       { return e.cause.Error() }
func (e *stacked) Unwrap() error       { return e.cause }
func (e *stacked) StackPCs() []uintptr { return e.stack }

type annotated struct {
	cause error
	msg   string
	pc    uintptr
}

func (e *annotated) Error() string { return e.msg + ": " + e.cause.Error() }
func (e *annotated) Unwrap() error { return e.cause }
func (e *annotated) PC() uintptr   { return e.pc }

// callers skips runtime.Callers, callers itself and the exported entry point.
func callers() []uintptr {
	pcs := make([]uintptr, maxDepth)
	return pcs[:runtime.Callers(3, pcs)]
}

func caller() uintptr {
	var pc [1]uintptr
	runtime.Callers(3, pc[:])
	return pc[0]
}

func New(msg string) error {
	return &stacked{cause: errors.New(msg), stack: callers()}
}

func Newf(format string, args ...any) error {
	return &stacked{cause: fmt.Errorf(format, args...), stack: callers()}
}

// WithStack records the caller's stack on err. Nil stays nil.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return &stacked{cause: err, stack: callers()}
}

// EnsureTrace is WithStack unless some error in the chain already carries a
// stack.
func EnsureTrace(err error) error {
	if err == nil {
		return nil
	}
	var st interface{ StackPCs() []uintptr }
	if errors.As(err, &st) && len(st.StackPCs()) > 0 {
		return err
	}
	return &stacked{cause: err, stack: callers()}
}

// Wrap prefixes err with msg. Nil stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, msg: msg, pc: caller()}
}

func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, msg: fmt.Sprintf(format, args...), pc: caller()}
}
