// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for algorist.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "algorist",
		Short: "Contest project manager and single-file bundler for Rust",
		Long: TitleStyle.Render("algorist") + SubtitleStyle.Render(" - contest project manager and single-file bundler for Rust") + `

algorist lays out cargo projects for programming contests and bundles a
problem binary together with the library modules it actually uses into one
file that an online judge accepts.

` + SubtitleStyle.Render("Examples:") + `
  algorist create abc300      Create a contest with problems a..h
  algorist add ex             Add src/bin/ex.rs
  algorist run a -i           Run problem a on inputs/a.txt
  algorist bundle a           Write bundled/src/bin/a.rs
  algorist bundle --all -w    Re-bundle every problem on change`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/algorist/config.cue)")

	rootCmd.AddCommand(
		newCreateCommand(app),
		newAddCommand(app),
		newBundleCommand(app),
		newRunCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// runE adapts a handler so failures print their remediation before fang
// prints the error itself.
func (a *App) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		var exitErr *ExitError
		if err == nil || (errors.As(err, &exitErr) && exitErr.Err == nil) {
			return err
		}
		renderError(a.stderr, err, a.scheme, a.verbose)
		return err
	}
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}
