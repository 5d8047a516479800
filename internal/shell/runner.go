// Package shell runs .buildrc pre/post commands through a host shell.
//
// Each command is fed to a fresh shell process on stdin, with the working
// directory set on the child process only; the parent's working directory is
// never changed. Output is streamed live and captured. A command fails when
// the shell cannot be spawned, exits non-zero, or writes anything to stderr.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrNonZeroExit marks a command whose shell exited with a non-zero status.
	ErrNonZeroExit = errors.New("non-zero exit status")
	// ErrStderrOutput marks a command that wrote to stderr. Commands that print
	// warnings on stderr are failures too.
	ErrStderrOutput = errors.New("command wrote to stderr")
	// ErrNoShell is returned when neither the configured shell nor a fallback is on PATH.
	ErrNoShell = errors.New("no shell found")
)

// maxErrDetail bounds how much stderr is folded into an error message.
const maxErrDetail = 512

// Result is the outcome of a single command.
type Result struct {
	Command  string
	Dir      string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	Err      error
}

// Failed reports whether the command is considered failed.
func (r Result) Failed() bool { return r.Err != nil }

// Runner executes one command string in a given directory.
type Runner struct {
	shell  string
	env    []string
	stdout io.Writer
	stderr io.Writer
}

// NewRunner creates a Runner that streams child output to the process stdout/stderr.
func NewRunner() *Runner {
	return &Runner{stdout: os.Stdout, stderr: os.Stderr}
}

// WithShell overrides the shell binary (name on PATH or absolute path).
func (r *Runner) WithShell(shell string) *Runner {
	r.shell = shell
	return r
}

// WithEnv appends KEY=VALUE pairs to the inherited environment of every command.
func (r *Runner) WithEnv(env []string) *Runner {
	r.env = append(r.env, env...)
	return r
}

// WithOutput sets the live stdout/stderr observers. Nil discards the stream.
func (r *Runner) WithOutput(stdout, stderr io.Writer) *Runner {
	r.stdout = orDiscard(stdout)
	r.stderr = orDiscard(stderr)
	return r
}

// Run executes command in dir and waits for it. A running command is never
// interrupted; ctx is only consulted before the shell is spawned.
func (r *Runner) Run(ctx context.Context, dir, command string) Result {
	res := Result{Command: command, Dir: dir, ExitCode: -1}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	shell, err := r.resolveShell()
	if err != nil {
		res.Err = err
		return res
	}

	var outBuf, errBuf bytes.Buffer
	// #nosec G204 - running user-configured build commands is the purpose of this package
	cmd := exec.Command(shell)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(command + "\n")
	cmd.Stdout = io.MultiWriter(orDiscard(r.stdout), &outBuf)
	cmd.Stderr = io.MultiWriter(orDiscard(r.stderr), &errBuf)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	start := time.Now()
	runErr := cmd.Run()
	res.Duration = time.Since(start)
	res.Stdout = outBuf.String()
	res.Stderr = errBuf.String()

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		res.ExitCode = 0
	case errors.As(runErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.Err = fmt.Errorf("spawn %s: %w", shell, runErr)
		return res
	}

	switch {
	case res.ExitCode != 0:
		res.Err = fmt.Errorf("%w %d%s", ErrNonZeroExit, res.ExitCode, detail(res.Stderr))
	case res.Stderr != "":
		res.Err = fmt.Errorf("%w%s", ErrStderrOutput, detail(res.Stderr))
	}
	return res
}

// resolveShell mirrors the host-shell lookup order: configured shell, bash, sh.
func (r *Runner) resolveShell() (string, error) {
	if r.shell != "" {
		path, err := exec.LookPath(r.shell)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrNoShell, r.shell, err)
		}
		return path, nil
	}
	for _, candidate := range []string{"bash", "sh"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", ErrNoShell
}

func detail(stderr string) string {
	s := strings.TrimSpace(stderr)
	if s == "" {
		return ""
	}
	if len(s) > maxErrDetail {
		s = s[len(s)-maxErrDetail:]
	}
	return ": " + s
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
