// SPDX-License-Identifier: MPL-2.0

// Package runner executes shell command lines through an embedded POSIX shell
// interpreter, so redirections such as "< inputs/a.txt" behave the same on
// every platform.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/algorist/algorist/pkg/types"
)

// ErrCommandFailed is returned by Check when a command exits non-zero.
var ErrCommandFailed = errors.New("command failed")

type (
	// Command is one shell command line.
	Command struct {
		Line string
		// Dir is the working directory; empty means the current one.
		Dir string
		// Env holds variables added on top of the runner's environment.
		Env    map[string]string
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result is the outcome of a captured command.
	Result struct {
		ExitCode  types.ExitCode
		Output    string
		ErrOutput string
	}

	// CommandError reports a command that ran but exited non-zero.
	CommandError struct {
		Line     string
		ExitCode types.ExitCode
		Stderr   string
	}

	// Runner runs commands. The zero value is not usable; call New.
	Runner struct {
		environ []string
	}

	// Option configures a Runner.
	Option func(*Runner)
)

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%q exited with status %s", e.Line, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Unwrap returns ErrCommandFailed for errors.Is() compatibility.
func (e *CommandError) Unwrap() error { return ErrCommandFailed }

// New returns a runner inheriting the process environment.
func New(opts ...Option) *Runner {
	r := &Runner{environ: os.Environ()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithEnviron replaces the inherited environment ("KEY=value" entries).
func WithEnviron(environ []string) Option {
	return func(r *Runner) {
		r.environ = slices.Clone(environ)
	}
}

// Run executes cmd with its own stdio and returns the shell's exit code. A
// non-nil error means the command could not be run at all.
func (r *Runner) Run(ctx context.Context, cmd Command) (types.ExitCode, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(cmd.Line), "command")
	if err != nil {
		return 1, fmt.Errorf("failed to parse command %q: %w", cmd.Line, err)
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(r.env(cmd.Env)...)),
		interp.StdIO(cmd.Stdin, orDiscard(cmd.Stdout), orDiscard(cmd.Stderr)),
	}
	if cmd.Dir != "" {
		opts = append(opts, interp.Dir(cmd.Dir))
	}
	sh, err := interp.New(opts...)
	if err != nil {
		return 1, fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := sh.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return types.ExitCode(status), nil
		}
		return 1, fmt.Errorf("command %q failed: %w", cmd.Line, err)
	}
	return 0, nil
}

// Capture executes cmd collecting its output. cmd's own Stdout and Stderr
// are ignored.
func (r *Runner) Capture(ctx context.Context, cmd Command) (*Result, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	code, err := r.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return &Result{ExitCode: code, Output: stdout.String(), ErrOutput: stderr.String()}, nil
}

// Check runs cmd capturing stderr and turns a non-zero exit into a
// *CommandError. Stdout is passed through.
func (r *Runner) Check(ctx context.Context, cmd Command) error {
	var stderr bytes.Buffer
	if cmd.Stderr != nil {
		cmd.Stderr = io.MultiWriter(cmd.Stderr, &stderr)
	} else {
		cmd.Stderr = &stderr
	}
	code, err := r.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if !code.IsSuccess() {
		return &CommandError{Line: cmd.Line, ExitCode: code, Stderr: stderr.String()}
	}
	return nil
}

func (r *Runner) env(extra map[string]string) []string {
	env := slices.Clone(r.environ)
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		env = append(env, k+"="+extra[k])
	}
	return env
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// Quote joins args into a command line, quoting each as needed.
func Quote(args ...string) (string, error) {
	quoted := make([]string, len(args))
	for i, a := range args {
		q, err := syntax.Quote(a, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("cannot quote %q: %w", a, err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}
