// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/algorist/algorist/internal/bundle"
)

type bundleFlags struct {
	all    bool
	watch  bool
	stdout bool
	fmt    bool
}

// newBundleCommand creates the `algorist bundle` command.
func newBundleCommand(app *App) *cobra.Command {
	var flags bundleFlags
	cmd := &cobra.Command{
		Use:   "bundle [problem-id]...",
		Short: "Bundle problems into single files",
		Long: `Bundle problems into single files for submission.

Each src/bin/<id>.rs is merged with the library modules it uses into
bundled/src/bin/<id>.rs. Unused modules are left out. Problems given
together are bundled concurrently.`,
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			return runBundle(cmd.Context(), app, args, flags)
		}),
	}
	cmd.Flags().BoolVarP(&flags.all, "all", "a", false, "bundle every problem in the contest")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "re-bundle when a problem or library file changes")
	cmd.Flags().BoolVar(&flags.stdout, "stdout", false, "print the bundle of a single problem instead of writing it")
	cmd.Flags().BoolVar(&flags.fmt, "fmt", false, "run rustfmt on the written bundles")
	cmd.MarkFlagsMutuallyExclusive("stdout", "watch")
	cmd.MarkFlagsMutuallyExclusive("stdout", "all")
	return cmd
}

func runBundle(ctx context.Context, app *App, args []string, flags bundleFlags) error {
	s, err := app.inProject(ctx)
	if err != nil {
		return err
	}
	cache, err := s.parseCache()
	if err != nil {
		return err
	}
	opts := []bundle.Option{
		bundle.WithLogger(s.logger),
		bundle.WithHeader(s.cfg.Bundle.Header),
		bundle.WithParseCache(cache),
	}
	if flags.fmt || s.cfg.Bundle.Rustfmt {
		opts = append(opts, bundle.WithFormatter(app.Runner))
	}
	svc, err := bundle.NewService(s.project, opts...)
	if err != nil {
		return err
	}

	switch {
	case flags.stdout:
		if len(args) != 1 {
			return errors.New("--stdout takes exactly one problem id")
		}
		targets, err := svc.Targets(args, false)
		if err != nil {
			return err
		}
		reg, err := svc.Registry()
		if err != nil {
			return err
		}
		res, err := svc.Render(reg, targets[0])
		if err != nil {
			return err
		}
		_, err = io.WriteString(app.stdout, res.Output)
		return err

	case flags.watch:
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("Watching for changes, press Ctrl+C to stop"))
		err := svc.Watch(ctx, bundle.WatchOptions{
			IDs:      args,
			All:      flags.all,
			Debounce: s.cfg.Bundle.DebounceDuration(),
			Report: func(written []bundle.Written, err error) {
				if err != nil {
					fmt.Fprintln(app.stderr, ErrorStyle.Render("✗ ")+err.Error())
					renderError(app.stderr, err, app.scheme, app.verbose)
				}
				printWritten(app.stdout, written)
			},
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	targets, err := svc.Targets(args, flags.all)
	if err != nil {
		return err
	}
	written, err := svc.BundleProblems(ctx, targets)
	printWritten(app.stdout, written)
	return err
}

func printWritten(w io.Writer, written []bundle.Written) {
	for _, b := range written {
		fmt.Fprintf(w, "%s %s %s %s\n",
			SuccessStyle.Render("✓"),
			b.ID,
			CmdStyle.Render(b.Path),
			SubtitleStyle.Render(fmt.Sprintf("(%d modules, %d bytes)", b.Modules, b.Bytes)),
		)
	}
}
