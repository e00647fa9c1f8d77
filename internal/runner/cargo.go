// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"io"
)

type (
	// Stdio bundles the streams handed to an interactive command.
	Stdio struct {
		In  io.Reader
		Out io.Writer
		Err io.Writer
	}

	// RunSpec describes "cargo run" of one problem binary.
	RunSpec struct {
		Dir string
		ID  string
		// Input, when set, is redirected to the program's stdin.
		Input string
		Env   map[string]string
	}
)

// CargoRunLine returns the command line running a problem binary.
func CargoRunLine(id, input string) (string, error) {
	line, err := Quote("cargo", "run", "--bin", id)
	if err != nil {
		return "", err
	}
	if input != "" {
		in, err := Quote(input)
		if err != nil {
			return "", err
		}
		line += " < " + in
	}
	return line, nil
}

// CargoRun runs a problem binary, forwarding its exit code.
func (r *Runner) CargoRun(ctx context.Context, spec RunSpec, stdio Stdio) (int, error) {
	line, err := CargoRunLine(spec.ID, spec.Input)
	if err != nil {
		return 1, err
	}
	code, err := r.Run(ctx, Command{
		Line:   line,
		Dir:    spec.Dir,
		Env:    spec.Env,
		Stdin:  stdio.In,
		Stdout: stdio.Out,
		Stderr: stdio.Err,
	})
	return int(code), err
}

// CargoVendor vendors the dependencies of the project in dir into dest.
func (r *Runner) CargoVendor(ctx context.Context, dir, dest string, stdio Stdio) error {
	line, err := Quote("cargo", "vendor", dest, "--quiet")
	if err != nil {
		return err
	}
	return r.Check(ctx, Command{Line: line, Dir: dir, Stdout: stdio.Out, Stderr: stdio.Err})
}

// Format runs rustfmt on the given files.
func (r *Runner) Format(ctx context.Context, dir string, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	line, err := Quote(append([]string{"rustfmt", "--edition", "2021"}, files...)...)
	if err != nil {
		return err
	}
	return r.Check(ctx, Command{Line: line, Dir: dir})
}
