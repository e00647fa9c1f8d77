// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/algorist/algorist/internal/issue"
	"github.com/algorist/algorist/internal/scaffold"
)

// newCreateCommand creates the `algorist create` command.
func newCreateCommand(app *App) *cobra.Command {
	var (
		libraryDir string
		empty      bool
	)
	cmd := &cobra.Command{
		Use:   "create <contest-id>",
		Short: "Create a new contest project",
		Long: `Create a new contest project in ./<contest-id>.

The project depends on the algorithm library crate. With --library (or
library.source in the config) the crate directory is copied into crates/
and referenced by path; otherwise the crate is fetched with 'cargo vendor'.`,
		Args: cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			s, err := app.outsideProject(cmd.Context())
			if err != nil {
				return err
			}
			if libraryDir == "" {
				libraryDir = s.cfg.Library.Source
			}

			opts := scaffold.CreateOptions{
				ParentDir: app.workdir,
				Layout:    s.cfg.Project.Layout(),
				Library: scaffold.LibrarySpec{
					Name:    s.cfg.Library.Name,
					Version: s.cfg.Library.Version,
				},
				LibraryDir: libraryDir,
				Vendorer:   app.Runner,
				Stdio:      app.stdio(),
				IDs:        s.cfg.Problems.DefaultIDs,
				Empty:      empty,
			}
			s.logger.Debug("creating contest", "id", args[0], "library", libraryDir, "problems", len(opts.IDs))
			p, err := scaffold.Create(cmd.Context(), args[0], opts)
			if err != nil {
				ec := issue.NewErrorContext().
					WithOperation("create contest").
					WithResource(args[0])
				if errors.Is(err, scaffold.ErrContestExists) {
					ec.WithSuggestion("Pick another contest id or remove the existing directory")
				}
				return ec.Wrap(err).BuildError()
			}

			fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(p.Root))
			fmt.Fprintln(app.stdout, SubtitleStyle.Render("  cd "+args[0]+" && algorist run a"))
			return nil
		}),
	}
	cmd.Flags().StringVar(&libraryDir, "library", "", "copy the library crate from this directory")
	cmd.Flags().BoolVar(&empty, "empty", false, "do not create problem stubs")
	return cmd
}
