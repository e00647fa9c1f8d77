// SPDX-License-Identifier: MPL-2.0

package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/algorist/algorist/internal/registry"
	"github.com/algorist/algorist/pkg/modpath"
)

// ErrDuplicateModuleFile is returned when both name.rs and name/mod.rs exist.
var ErrDuplicateModuleFile = errors.New("module file is ambiguous")

type (
	// Crate is a library crate vendored in the project.
	Crate struct {
		// Name is the crate name as spelled in Rust code: the package name
		// with dashes replaced by underscores.
		Name string
		// Package is the package name from the manifest.
		Package string
		Dir     string
		// Lib is the crate root file, src/lib.rs unless the manifest
		// overrides it.
		Lib string
	}

	manifest struct {
		Package struct {
			Name string `toml:"name"`
		} `toml:"package"`
		Lib struct {
			Name string `toml:"name"`
			Path string `toml:"path"`
		} `toml:"lib"`
	}
)

// CrateName normalizes a package name to its Rust spelling.
func CrateName(pkg string) string {
	return strings.ReplaceAll(pkg, "-", "_")
}

// Crates lists the library crates under the crates directory, sorted by
// name. Directories without a manifest, or whose manifest has no package
// name, are skipped. A missing crates directory yields no crates.
func (p *Project) Crates() ([]Crate, error) {
	dir := p.CratesDir()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing crates: %w", err)
	}

	var crates []Crate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		c, ok, err := ReadCrate(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if ok {
			crates = append(crates, c)
		}
	}
	slices.SortFunc(crates, func(a, b Crate) int { return strings.Compare(a.Name, b.Name) })
	return crates, nil
}

// ReadCrate reads the crate whose manifest is in dir. ok is false when dir
// has no manifest or the manifest names no package.
func ReadCrate(dir string) (Crate, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Crate{}, false, nil
	}
	if err != nil {
		return Crate{}, false, fmt.Errorf("reading crate manifest: %w", err)
	}
	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Crate{}, false, fmt.Errorf("parsing %s: %w", filepath.Join(dir, ManifestFile), err)
	}
	name := m.Lib.Name
	if name == "" {
		name = m.Package.Name
	}
	if name == "" {
		return Crate{}, false, nil
	}
	lib := filepath.Join("src", "lib.rs")
	if m.Lib.Path != "" {
		lib = filepath.FromSlash(m.Lib.Path)
	}
	return Crate{
		Name:    CrateName(name),
		Package: m.Package.Name,
		Dir:     dir,
		Lib:     filepath.Join(dir, lib),
	}, true, nil
}

// Sources reads every Rust file of the crate into registry source files.
// lib.rs maps to the crate root, a.rs and a/mod.rs to module a, a/b.rs to
// a::b. Binaries under bin/ and main.rs are not library modules.
func (c Crate) Sources(relTo string) ([]registry.SourceFile, error) {
	root := filepath.Dir(c.Lib)
	libName := filepath.Base(c.Lib)
	matches, err := doublestar.Glob(os.DirFS(root), "**/*.rs")
	if err != nil {
		return nil, fmt.Errorf("listing sources of %s: %w", c.Name, err)
	}
	slices.Sort(matches)

	seen := make(map[string]string, len(matches))
	files := make([]registry.SourceFile, 0, len(matches))
	for _, m := range matches {
		mp, ok := modulePath(c.Name, m, libName)
		if !ok {
			continue
		}
		if prev, dup := seen[mp.Key()]; dup {
			return nil, fmt.Errorf("%w: %s and %s both define %s", ErrDuplicateModuleFile, prev, m, mp)
		}
		seen[mp.Key()] = m

		full := filepath.Join(root, filepath.FromSlash(m))
		text, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", full, err)
		}
		origin := full
		if rel, err := filepath.Rel(relTo, full); err == nil && !strings.HasPrefix(rel, "..") {
			origin = filepath.ToSlash(rel)
		}
		files = append(files, registry.SourceFile{Path: mp, Text: text, Origin: origin})
	}
	return files, nil
}

// modulePath maps a slash-separated file path relative to the crate source
// directory to its module path.
func modulePath(crate, file, libName string) (modpath.Path, bool) {
	if file == libName {
		return modpath.New(crate), true
	}
	dir, base := path.Split(file)
	segs := []string{crate}
	if dir != "" {
		segs = append(segs, strings.Split(strings.TrimSuffix(dir, "/"), "/")...)
	}
	if len(segs) > 1 && (segs[1] == "bin" || segs[1] == "tests") {
		return nil, false
	}
	switch {
	case base == "mod.rs":
		if len(segs) == 1 {
			return nil, false
		}
	case dir == "" && (base == "main.rs" || base == "lib.rs"):
		return nil, false
	default:
		segs = append(segs, strings.TrimSuffix(base, ".rs"))
	}
	return modpath.New(segs...), true
}

// LoadSources reads the sources of all crates.
func (p *Project) LoadSources(crates []Crate) ([]registry.SourceFile, error) {
	var files []registry.SourceFile
	for _, c := range crates {
		cf, err := c.Sources(p.Root)
		if err != nil {
			return nil, err
		}
		files = append(files, cf...)
	}
	return files, nil
}
