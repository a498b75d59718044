package sitegen

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/xelns/xelns-web/internal/xerrors"
)

// Runner executes the production build.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) error
}

// ExecRunner runs the build as a child process. Build output streams to
// stderr; the error carries the tail of what the build wrote there.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return xerrors.New("empty build command")
	}
	var tail bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = os.Stderr
	cmd.Stderr = &tailWriter{buf: &tail, max: 4096, also: os.Stderr}
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(tail.String())
		if msg == "" {
			return xerrors.Wrapf(err, "%s", strings.Join(argv, " "))
		}
		return xerrors.Wrapf(err, "%s: %s", strings.Join(argv, " "), msg)
	}
	return nil
}

// tailWriter keeps the last max bytes written and copies everything to also.
type tailWriter struct {
	buf  *bytes.Buffer
	max  int
	also *os.File
}

func (t *tailWriter) Write(p []byte) (int, error) {
	if t.also != nil {
		_, _ = t.also.Write(p)
	}
	t.buf.Write(p)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}
