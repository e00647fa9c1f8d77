// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/algorist/algorist/internal/config"
	"github.com/algorist/algorist/internal/project"
	"github.com/algorist/algorist/internal/registry"
	"github.com/algorist/algorist/internal/runner"
)

type (
	// Runner runs the external tools the CLI delegates to. *runner.Runner
	// satisfies it.
	Runner interface {
		CargoRun(ctx context.Context, spec runner.RunSpec, stdio runner.Stdio) (int, error)
		CargoVendor(ctx context.Context, dir, dest string, stdio runner.Stdio) error
		Format(ctx context.Context, dir string, files ...string) error
	}

	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer; every command handler receives it.
	App struct {
		Config  config.Provider
		Runner  Runner
		workdir string
		stdin   io.Reader
		stdout  io.Writer
		stderr  io.Writer

		// Set from persistent flags before a command runs.
		configPath string
		verbose    bool
		// scheme is the glamour style for guides, from ui.color_scheme.
		scheme string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Runner Runner
		// Workdir is where project discovery starts and contests are created.
		Workdir string
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// session is the configuration and project a command runs against.
	session struct {
		cfg     *config.Config
		project *project.Project
		logger  *log.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runner == nil {
		deps.Runner = runner.New()
	}
	if deps.Workdir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		deps.Workdir = wd
	}
	return &App{
		scheme:  string(config.ColorSchemeAuto),
		Config:  deps.Config,
		Runner:  deps.Runner,
		workdir: deps.Workdir,
		stdin:   deps.Stdin,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}, nil
}

// loadConfig loads the configuration, layering the project file of root
// when root is not empty.
func (a *App) loadConfig(ctx context.Context, root string) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath, ProjectDir: root})
	if err != nil {
		return nil, err
	}
	a.scheme = string(cfg.UI.ColorScheme)
	return cfg, nil
}

// inProject finds the enclosing contest project and loads its
// configuration. The project is reopened with the configured layout.
func (a *App) inProject(ctx context.Context) (*session, error) {
	found, err := project.Find(a.workdir, project.DefaultLayout())
	if err != nil {
		return nil, err
	}
	cfg, err := a.loadConfig(ctx, found.Root)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		project: project.Open(found.Root, cfg.Project.Layout()),
		logger:  a.logger(cfg),
	}, nil
}

// outsideProject loads the configuration for commands that may run anywhere.
// The project file is still layered when a project encloses the workdir.
func (a *App) outsideProject(ctx context.Context) (*session, error) {
	var root string
	found, err := project.Find(a.workdir, project.DefaultLayout())
	switch {
	case err == nil:
		root = found.Root
	case !errors.Is(err, project.ErrProjectNotFound):
		return nil, err
	}
	cfg, err := a.loadConfig(ctx, root)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, project: found, logger: a.logger(cfg)}, nil
}

func (a *App) logger(cfg *config.Config) *log.Logger {
	l := log.NewWithOptions(a.stderr, log.Options{
		Prefix:          config.AppName,
		ReportTimestamp: false,
	})
	if a.verbose || cfg.UI.Verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

func (s *session) parseCache() (*registry.ParseCache, error) {
	return registry.NewParseCache(s.cfg.Bundle.CacheSize)
}

func (a *App) stdio() runner.Stdio {
	return runner.Stdio{In: a.stdin, Out: a.stdout, Err: a.stderr}
}
