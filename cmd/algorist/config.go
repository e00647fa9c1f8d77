// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/algorist/algorist/internal/config"
)

// newConfigCommand creates the `algorist config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage algorist configuration",
		Long: `Manage algorist configuration.

Configuration is merged from, in increasing precedence:
  - built-in defaults
  - the user file, $XDG_CONFIG_HOME/algorist/config.cue
  - algorist.cue at the contest root
  - ALGORIST_* environment variables (e.g. ALGORIST_BUNDLE_HEADER=false)

--config replaces both files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			if app.configPath != "" {
				fmt.Fprintln(app.stdout, app.configPath)
				return nil
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName))
			return nil
		}),
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			return initConfig(app, force)
		}),
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output merged configuration as CUE",
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			s, err := app.outsideProject(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
			return nil
		}),
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	s, err := app.outsideProject(ctx)
	if err != nil {
		return err
	}
	var root string
	if s.project != nil {
		root = s.project.Root
	}
	sources, err := config.Sources(config.LoadOptions{ConfigFilePath: app.configPath, ProjectDir: root})
	if err != nil {
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	out := app.stdout

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)
	if len(sources) == 0 {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config files"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config files"), strings.Join(sources, ", "))
	}
	fmt.Fprintln(out)

	cfg := s.cfg
	rows := []struct{ key, value string }{
		{"library.name", cfg.Library.Name},
		{"library.source", cfg.Library.Source},
		{"library.version", cfg.Library.Version},
		{"project.src_dir", cfg.Project.SrcDir},
		{"project.crates_dir", cfg.Project.CratesDir},
		{"project.bundled_dir", cfg.Project.BundledDir},
		{"project.inputs_dir", cfg.Project.InputsDir},
		{"bundle.header", fmt.Sprint(cfg.Bundle.Header)},
		{"bundle.rustfmt", fmt.Sprint(cfg.Bundle.Rustfmt)},
		{"bundle.debounce", cfg.Bundle.Debounce},
		{"bundle.cache_size", fmt.Sprint(cfg.Bundle.CacheSize)},
		{"problems.default_ids", strings.Join(cfg.Problems.DefaultIDs, ", ")},
		{"ui.color_scheme", string(cfg.UI.ColorScheme)},
		{"ui.verbose", fmt.Sprint(cfg.UI.Verbose)},
	}
	for _, r := range rows {
		value := valueStyle.Render(r.value)
		if r.value == "" {
			value = SubtitleStyle.Render("(not set)")
		}
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render(r.key), value)
	}
	return nil
}

func initConfig(app *App, force bool) error {
	path := app.configPath
	if path == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, config.ConfigFileName)
	}
	written, err := config.WriteDefault(path, force)
	if err != nil {
		return err
	}
	if !written {
		fmt.Fprintf(app.stdout, "%s %s already exists (use --force to overwrite)\n", WarningStyle.Render("!"), CmdStyle.Render(path))
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path))
	return nil
}
