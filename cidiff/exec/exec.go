// Package exec runs external commands for the git
// backend and captures their output.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Error is returned when a command runs but exits
// unsuccessfully. Stderr holds whatever the command
// wrote to its error stream.
type Error struct {
	Cmd    string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
	}

	return fmt.Sprintf("%s: %v: %s", e.Cmd, e.Err, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Ex executes the named command in the given directory and
// returns its stdout. Pass empty dir to use the current
// working directory. When timeout is positive the command
// is killed once it elapses.
func Ex(
	ctx context.Context,
	dir string,
	timeout time.Duration,
	name string,
	arg ...string,
) (string, error) {
	return ExEnv(ctx, dir, timeout, nil, name, arg...)
}

// ExEnv is Ex with env entries appended to the inherited
// environment. Later entries win over inherited ones.
func ExEnv(
	ctx context.Context,
	dir string,
	timeout time.Duration,
	env []string,
	name string,
	arg ...string,
) (string, error) {
	const errCtx = "executing command"

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmdLine := strings.TrimSpace(
		name + " " + strings.Join(arg, " "),
	)

	slog.Debug("executing", "cmd", name, "args", strings.Join(arg, " "), "dir", dir)

	//nolint:gosec // arguments are built by the git backend
	cmd := exec.CommandContext(ctx, name, arg...)
	if dir != "" {
		cmd.Dir = dir
	}

	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	slog.Debug(
		"output",
		"cmd", cmdLine,
		"bytes", stdout.Len(),
	)

	if err != nil {
		if timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ctx.Err(), timeout)
		}

		return stdout.String(), fmt.Errorf(
			"%s: %w", errCtx,
			&Error{Cmd: cmdLine, Stderr: stderr.String(), Err: err},
		)
	}

	return stdout.String(), nil
}
