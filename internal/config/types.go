// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/algorist/algorist/internal/project"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidProblemID is returned for ids that cannot name a cargo binary.
	ErrInvalidProblemID = errors.New("invalid problem id")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	problemIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidProblemIDError reports an id in problems.default_ids that cargo
	// would reject as a binary name.
	InvalidProblemIDError struct {
		Value string
	}

	// InvalidConfigError collects every field-level failure of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the merged application configuration.
	Config struct {
		Library  LibraryConfig  `json:"library"  mapstructure:"library"`
		Project  ProjectConfig  `json:"project"  mapstructure:"project"`
		Bundle   BundleConfig   `json:"bundle"   mapstructure:"bundle"`
		Problems ProblemsConfig `json:"problems" mapstructure:"problems"`
		UI       UIConfig       `json:"ui"       mapstructure:"ui"`
	}

	// LibraryConfig selects the algorithm library crate.
	LibraryConfig struct {
		Name    string `json:"name"    mapstructure:"name"`
		Source  string `json:"source"  mapstructure:"source"`
		Version string `json:"version" mapstructure:"version"`
	}

	// ProjectConfig holds the contest directory layout, relative to the root.
	ProjectConfig struct {
		SrcDir     string `json:"src_dir"     mapstructure:"src_dir"`
		CratesDir  string `json:"crates_dir"  mapstructure:"crates_dir"`
		BundledDir string `json:"bundled_dir" mapstructure:"bundled_dir"`
		InputsDir  string `json:"inputs_dir"  mapstructure:"inputs_dir"`
	}

	// BundleConfig tunes the bundle command.
	BundleConfig struct {
		Header    bool   `json:"header"     mapstructure:"header"`
		Rustfmt   bool   `json:"rustfmt"    mapstructure:"rustfmt"`
		Debounce  string `json:"debounce"   mapstructure:"debounce"`
		CacheSize int    `json:"cache_size" mapstructure:"cache_size"`
	}

	// ProblemsConfig lists the problem stubs created with a new contest.
	ProblemsConfig struct {
		DefaultIDs []string `json:"default_ids" mapstructure:"default_ids"`
	}

	// UIConfig controls terminal output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose"      mapstructure:"verbose"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	layout := project.DefaultLayout()
	return &Config{
		Library: LibraryConfig{
			Name:    "algorist",
			Version: "*",
		},
		Project: ProjectConfig{
			SrcDir:     layout.SrcDir,
			CratesDir:  layout.CratesDir,
			BundledDir: layout.BundledDir,
			InputsDir:  layout.InputsDir,
		},
		Bundle: BundleConfig{
			Header:    true,
			Debounce:  "300ms",
			CacheSize: 256,
		},
		Problems: ProblemsConfig{
			DefaultIDs: []string{"a", "b", "c", "d", "e", "f", "g", "h"},
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// Layout converts the project section into a project.Layout.
func (c ProjectConfig) Layout() project.Layout {
	return project.Layout{
		SrcDir:     c.SrcDir,
		CratesDir:  c.CratesDir,
		BundledDir: c.BundledDir,
		InputsDir:  c.InputsDir,
	}
}

// DebounceDuration parses Debounce. Invalid or non-positive values fall
// back to zero, which callers treat as "use the watcher default".
func (c BundleConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// IsValid checks constraints that hold after merging defaults, file values
// and environment overrides. Environment values bypass the CUE schema, so
// the checks overlap with it on purpose.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if c.Library.Name == "" {
		errs = append(errs, errors.New("library.name: must not be empty"))
	}
	for _, dir := range []struct{ key, val string }{
		{"project.src_dir", c.Project.SrcDir},
		{"project.crates_dir", c.Project.CratesDir},
		{"project.bundled_dir", c.Project.BundledDir},
		{"project.inputs_dir", c.Project.InputsDir},
	} {
		if strings.TrimSpace(dir.val) == "" {
			errs = append(errs, fmt.Errorf("%s: must not be empty", dir.key))
		}
	}
	if c.Bundle.Debounce != "" {
		if _, err := time.ParseDuration(c.Bundle.Debounce); err != nil {
			errs = append(errs, fmt.Errorf("bundle.debounce: %w", err))
		}
	}
	if c.Bundle.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("bundle.cache_size: %d is negative", c.Bundle.CacheSize))
	}
	seen := make(map[string]bool)
	for _, id := range c.Problems.DefaultIDs {
		if !problemIDPattern.MatchString(id) {
			errs = append(errs, &InvalidProblemIDError{Value: id})
			continue
		}
		if seen[id] {
			errs = append(errs, fmt.Errorf("problems.default_ids: duplicate id %q", id))
		}
		seen[id] = true
	}
	if ok, csErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, csErrs...)
	}
	return len(errs) == 0, errs
}

// Validate is IsValid folded into a single *InvalidConfigError.
func (c Config) Validate() error {
	if ok, errs := c.IsValid(); !ok {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

func (e *InvalidProblemIDError) Error() string {
	return fmt.Sprintf("problems.default_ids: %q is not a valid problem id", e.Value)
}

func (e *InvalidProblemIDError) Unwrap() error { return ErrInvalidProblemID }

func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("ui.color_scheme: invalid value %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }
