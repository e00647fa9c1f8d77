// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/algorist/algorist/internal/issue"
	"github.com/algorist/algorist/internal/testutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, paths, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("paths = %v, want none", paths)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLayersUserThenProject(t *testing.T) {
	t.Parallel()

	userDir := t.TempDir()
	projDir := t.TempDir()
	writeFile(t, filepath.Join(userDir, ConfigFileName), `
library: name: "mylib"
bundle: {
	header: false
	cache_size: 16
}
ui: color_scheme: "dark"
`)
	writeFile(t, filepath.Join(projDir, ProjectConfigFile), `
bundle: cache_size: 32
problems: default_ids: ["a", "b", "c"]
`)

	cfg, paths, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: userDir, ProjectDir: projDir})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if len(paths) != 2 || !strings.HasSuffix(paths[1], ProjectConfigFile) {
		t.Errorf("paths = %v, want user then project", paths)
	}

	want := DefaultConfig()
	want.Library.Name = "mylib"
	want.Bundle.Header = false
	want.Bundle.CacheSize = 32
	want.Problems.DefaultIDs = []string{"a", "b", "c"}
	want.UI.ColorScheme = ColorSchemeDark
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadExplicitFileReplacesLayers(t *testing.T) {
	t.Parallel()

	userDir := t.TempDir()
	writeFile(t, filepath.Join(userDir, ConfigFileName), `library: name: "ignored"`)
	explicit := filepath.Join(t.TempDir(), "custom.cue")
	writeFile(t, explicit, `bundle: debounce: "1s"`)

	cfg, paths, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: explicit,
		ConfigDirPath:  userDir,
	})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if diff := cmp.Diff([]string{explicit}, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	if cfg.Library.Name != "algorist" {
		t.Errorf("Library.Name = %q, user file should be skipped", cfg.Library.Name)
	}
	if got := cfg.Bundle.DebounceDuration(); got != time.Second {
		t.Errorf("DebounceDuration() = %v, want 1s", got)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax error", "bundle: {", "algorist.cue"},
		{"wrong type", `bundle: header: "yes"`, "bundle.header"},
		{"unknown key", `bundle: colour: true`, "colour"},
		{"bad scheme", `ui: color_scheme: "neon"`, "ui.color_scheme"},
		{"absolute dir", `project: src_dir: "/etc"`, "project.src_dir"},
		{"bad debounce", `bundle: debounce: "soon"`, "bundle.debounce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, ProjectConfigFile), tt.content)

			_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir(), ProjectDir: dir})
			if err == nil {
				t.Fatal("loadWithOptions() error = nil")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error %T is not *issue.ActionableError", err)
			}
			if ae.Guide != issue.ConfigLoadFailedId {
				t.Errorf("Guide = %v, want ConfigLoadFailedId", ae.Guide)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.cue")
	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: missing})
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("error = %v, want ErrConfigNotFound", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !ae.HasSuggestions() {
		t.Errorf("error should carry suggestions: %v", err)
	}
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := loadWithOptions(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("ALGORIST_BUNDLE_HEADER", "false")
	t.Setenv("ALGORIST_LIBRARY_NAME", "fromenv")
	t.Setenv("ALGORIST_UI_COLOR_SCHEME", "light")

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigFile), `library: name: "fromfile"`)

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir(), ProjectDir: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if cfg.Bundle.Header {
		t.Error("Bundle.Header = true, want env override false")
	}
	if cfg.Library.Name != "fromenv" {
		t.Errorf("Library.Name = %q, want fromenv", cfg.Library.Name)
	}
	if cfg.UI.ColorScheme != ColorSchemeLight {
		t.Errorf("UI.ColorScheme = %q, want light", cfg.UI.ColorScheme)
	}
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("ALGORIST_UI_COLOR_SCHEME", "neon")

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidColorScheme) {
		t.Errorf("error = %v, want ErrInvalidColorScheme", err)
	}
}

func TestConfigDirHonorsXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if want := filepath.Join(xdg, AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}

func TestLoadUserFileFromHome(t *testing.T) {
	home := t.TempDir()
	t.Cleanup(testutil.SetHomeDir(t, home))
	writeFile(t, filepath.Join(home, ".config", AppName, ConfigFileName), "library: name: \"homelib\"\n")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Library.Name != "homelib" {
		t.Errorf("Library.Name = %q, want homelib", cfg.Library.Name)
	}
}

func TestGenerateCUELoadsBack(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Library.Source = "../lib"
	cfg.Bundle.Rustfmt = true
	cfg.UI.Verbose = true

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigFile), GenerateCUE(cfg))

	got, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir(), ProjectDir: dir})
	if err != nil {
		t.Fatalf("loading generated config: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("generated config mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)
	wrote, err := WriteDefault(path, false)
	if err != nil || !wrote {
		t.Fatalf("WriteDefault() = %v, %v; want true, nil", wrote, err)
	}

	if err := os.WriteFile(path, []byte("// mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if wrote, err := WriteDefault(path, false); err != nil || wrote {
		t.Errorf("WriteDefault() over existing = %v, %v; want false, nil", wrote, err)
	}
	if wrote, err := WriteDefault(path, true); err != nil || !wrote {
		t.Errorf("WriteDefault(force) = %v, %v; want true, nil", wrote, err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "// algorist configuration") {
		t.Errorf("forced write did not replace the file:\n%s", data)
	}
}
