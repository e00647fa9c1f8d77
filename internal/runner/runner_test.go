// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRunnerCapture(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "in.txt"), []byte("42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := New(WithEnviron([]string{"BASE=1"}))

	tests := []struct {
		name string
		cmd  Command
		want Result
	}{
		{
			name: "builtin output",
			cmd:  Command{Line: "echo hello"},
			want: Result{Output: "hello\n"},
		},
		{
			name: "exit status",
			cmd:  Command{Line: "echo bad >&2; exit 3"},
			want: Result{ExitCode: 3, ErrOutput: "bad\n"},
		},
		{
			name: "extra env over base",
			cmd:  Command{Line: `echo "$BASE $FOO"`, Env: map[string]string{"FOO": "bar"}},
			want: Result{Output: "1 bar\n"},
		},
		{
			name: "stdin redirect relative to dir",
			cmd:  Command{Line: "read x < in.txt; echo got $x", Dir: dir},
			want: Result{Output: "got 42\n"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Capture(context.Background(), tt.cmd)
			if err != nil {
				t.Fatalf("Capture() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, *got); diff != "" {
				t.Errorf("Capture() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunnerParseError(t *testing.T) {
	t.Parallel()

	if _, err := New().Run(context.Background(), Command{Line: "if then"}); err == nil {
		t.Fatal("Run() error = nil, want parse error")
	}
}

func TestRunnerCheck(t *testing.T) {
	t.Parallel()

	r := New(WithEnviron(nil))
	if err := r.Check(context.Background(), Command{Line: "true"}); err != nil {
		t.Fatalf("Check(true) error: %v", err)
	}

	err := r.Check(context.Background(), Command{Line: "echo oops >&2; exit 2"})
	var ce *CommandError
	if !errors.As(err, &ce) || !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("Check() error = %v, want CommandError", err)
	}
	if ce.ExitCode != 2 || ce.Stderr != "oops\n" {
		t.Errorf("CommandError = %+v", ce)
	}
}

func TestCargoRunLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id, input, want string
	}{
		{"a", "", "cargo run --bin a"},
		{"a", "inputs/a.txt", "cargo run --bin a < inputs/a.txt"},
		{"b", "my inputs/b.txt", "cargo run --bin b < 'my inputs/b.txt'"},
	}
	for _, tt := range tests {
		got, err := CargoRunLine(tt.id, tt.input)
		if err != nil {
			t.Fatalf("CargoRunLine() error: %v", err)
		}
		if got != tt.want {
			t.Errorf("CargoRunLine(%q, %q) = %q, want %q", tt.id, tt.input, got, tt.want)
		}
	}
}

func TestFormatWithoutFiles(t *testing.T) {
	t.Parallel()

	if err := New().Format(context.Background(), t.TempDir()); err != nil {
		t.Fatalf("Format() error: %v", err)
	}
}

func TestLoadDotenv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	env, err := LoadDotenv(dir)
	if err != nil || len(env) != 0 {
		t.Fatalf("LoadDotenv(missing) = %v, %v", env, err)
	}

	content := "# comment\nRUST_BACKTRACE=1\nexport MODE=\"debug\"\n"
	if err := os.WriteFile(filepath.Join(dir, DotenvFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	env, err = LoadDotenv(dir)
	if err != nil {
		t.Fatalf("LoadDotenv() error: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"RUST_BACKTRACE": "1", "MODE": "debug"}, env); diff != "" {
		t.Errorf("LoadDotenv() mismatch (-want +got):\n%s", diff)
	}
}
