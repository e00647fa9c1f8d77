// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/algorist/algorist/internal/scaffold"
)

// newAddCommand creates the `algorist add` command.
func newAddCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <problem-id>...",
		Short: "Add problem files to the current contest",
		Args:  cobra.MinimumNArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			s, err := app.inProject(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range args {
				path, err := scaffold.Add(s.project, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "%s Added %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(s.project.Rel(path)))
			}
			return nil
		}),
	}
}
