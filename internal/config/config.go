// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/algorist/algorist/internal/issue"
	"github.com/algorist/algorist/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "algorist"
	// ConfigFileName is the user-level config file inside ConfigDir.
	ConfigFileName = "config.cue"
	// ProjectConfigFile is the per-contest config file at the project root.
	ProjectConfigFile = "algorist.cue"
	// EnvPrefix prefixes environment overrides, e.g. ALGORIST_BUNDLE_HEADER.
	EnvPrefix = "ALGORIST"
)

//go:embed config_schema.cue
var configSchema []byte

// ErrConfigNotFound is returned when an explicit config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// ConfigDir returns the user-level configuration directory. XDG_CONFIG_HOME
// wins on every platform; otherwise the platform default is used.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// Sources lists the config files that Load would read for opts, in merge
// order. Files that do not exist are omitted.
func Sources(opts LoadOptions) ([]string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)
		}
		return []string{opts.ConfigFilePath}, nil
	}

	var out []string
	dir := opts.ConfigDirPath
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if p := filepath.Join(dir, ConfigFileName); fileExists(p) {
		out = append(out, p)
	}
	if opts.ProjectDir != "" {
		if p := filepath.Join(opts.ProjectDir, ProjectConfigFile); fileExists(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// loadWithOptions merges defaults, the config files named by Sources and the
// environment, in that order of increasing precedence.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, []string, error) {
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	paths, err := Sources(opts)
	if err != nil {
		return nil, nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the --config path is correct").
			WithSuggestion("Run 'algorist config init' to write a default config").
			WithGuide(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	for _, p := range paths {
		if err := loadCUEIntoViper(v, p); err != nil {
			return nil, nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(p).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Compare it with the output of 'algorist config dump'").
				WithGuide(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Check " + EnvPrefix + "_* environment variables for stray values").
			WithGuide(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return &cfg, paths, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("library.name", d.Library.Name)
	v.SetDefault("library.source", d.Library.Source)
	v.SetDefault("library.version", d.Library.Version)
	v.SetDefault("project.src_dir", d.Project.SrcDir)
	v.SetDefault("project.crates_dir", d.Project.CratesDir)
	v.SetDefault("project.bundled_dir", d.Project.BundledDir)
	v.SetDefault("project.inputs_dir", d.Project.InputsDir)
	v.SetDefault("bundle.header", d.Bundle.Header)
	v.SetDefault("bundle.rustfmt", d.Bundle.Rustfmt)
	v.SetDefault("bundle.debounce", d.Bundle.Debounce)
	v.SetDefault("bundle.cache_size", d.Bundle.CacheSize)
	v.SetDefault("problems.default_ids", d.Problems.DefaultIDs)
	v.SetDefault("ui.color_scheme", string(d.UI.ColorScheme))
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// v. Decoding goes through a map so unset fields keep the earlier layers.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	m, _, err := cueutil.Decode[map[string]any](configSchema, data, "#Config", cueutil.WithFilename(path))
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(*m); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteDefault writes the default configuration to path, creating parent
// directories. An existing file is left alone unless force is set; the
// returned bool reports whether the file was written.
func WriteDefault(path string, force bool) (bool, error) {
	if !force && fileExists(path) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// GenerateCUE renders cfg as a config file accepted by #Config.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// algorist configuration\n\n")

	sb.WriteString("library: {\n")
	fmt.Fprintf(&sb, "\tname: %q\n", cfg.Library.Name)
	if cfg.Library.Source != "" {
		fmt.Fprintf(&sb, "\tsource: %q\n", cfg.Library.Source)
	}
	fmt.Fprintf(&sb, "\tversion: %q\n", cfg.Library.Version)
	sb.WriteString("}\n")

	sb.WriteString("\nproject: {\n")
	fmt.Fprintf(&sb, "\tsrc_dir: %q\n", cfg.Project.SrcDir)
	fmt.Fprintf(&sb, "\tcrates_dir: %q\n", cfg.Project.CratesDir)
	fmt.Fprintf(&sb, "\tbundled_dir: %q\n", cfg.Project.BundledDir)
	fmt.Fprintf(&sb, "\tinputs_dir: %q\n", cfg.Project.InputsDir)
	sb.WriteString("}\n")

	sb.WriteString("\nbundle: {\n")
	fmt.Fprintf(&sb, "\theader: %v\n", cfg.Bundle.Header)
	fmt.Fprintf(&sb, "\trustfmt: %v\n", cfg.Bundle.Rustfmt)
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Bundle.Debounce)
	fmt.Fprintf(&sb, "\tcache_size: %d\n", cfg.Bundle.CacheSize)
	sb.WriteString("}\n")

	sb.WriteString("\nproblems: {\n")
	quoted := make([]string, len(cfg.Problems.DefaultIDs))
	for i, id := range cfg.Problems.DefaultIDs {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	fmt.Fprintf(&sb, "\tdefault_ids: [%s]\n", strings.Join(quoted, ", "))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
