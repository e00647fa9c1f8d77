// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/algorist/algorist/internal/project"
	"github.com/algorist/algorist/internal/runner"
	"github.com/algorist/algorist/pkg/types"
)

// newRunCommand creates the `algorist run` command.
func newRunCommand(app *App) *cobra.Command {
	var withInput bool
	cmd := &cobra.Command{
		Use:   "run <problem-id>",
		Short: "Run a problem binary with cargo",
		Long: `Run a problem binary with 'cargo run --bin <id>'.

With -i the sample input inputs/<id>.txt is fed to stdin. Variables from
the project's .env file are added to the environment.`,
		Args: cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			s, err := app.inProject(cmd.Context())
			if err != nil {
				return err
			}
			id := strings.TrimSuffix(args[0], project.ProblemExt)
			if _, err := s.project.ReadProblem(id); err != nil {
				return err
			}

			env, err := runner.LoadDotenv(s.project.Root)
			if err != nil {
				return err
			}
			spec := runner.RunSpec{Dir: s.project.Root, ID: id, Env: env}
			if withInput {
				input := s.project.InputFile(id)
				if _, err := os.Stat(input); err == nil {
					spec.Input = s.project.Rel(input)
				} else {
					fmt.Fprintln(app.stderr, WarningStyle.Render("Warning: ")+"no sample input at "+s.project.Rel(input)+", reading stdin")
				}
			}

			s.logger.Debug("running", "problem", id, "input", spec.Input, "env", len(env))
			code, err := app.Runner.CargoRun(cmd.Context(), spec, app.stdio())
			if err != nil {
				return err
			}
			status := types.ExitCode(code)
			if sig, ok := status.Signal(); ok {
				fmt.Fprintf(app.stderr, "%s %s terminated by signal %d\n", WarningStyle.Render("!"), id, sig)
			}
			if !status.IsSuccess() {
				return &ExitError{Code: status}
			}
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&withInput, "input", "i", false, "read stdin from inputs/<id>.txt")
	return cmd
}
