package adb

import (
	"bytes"
	"context"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/execabs"
)

// Runner executes a host command and returns its standard output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands as child processes. It refuses to resolve
// programs relative to the current directory.
type ExecRunner struct{}

// Run implements Runner
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := execabs.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrapf(ctxErr, "%s %s", name, strings.Join(args, " "))
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg != "" {
			return nil, errors.Wrapf(err, "%s %s: %s", name, strings.Join(args, " "), msg)
		}
		return nil, errors.Wrapf(err, "%s %s", name, strings.Join(args, " "))
	}
	return stdout.Bytes(), nil
}
