// SPDX-License-Identifier: MPL-2.0

// Package project locates a contest project on disk and the library crates
// it vendors.
//
// A project root is a directory holding both a Cargo.toml and a src/
// directory. Problems live in <src_dir>/<id>.rs; every directory under
// <crates_dir> with a Cargo.toml is a library crate.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// ManifestFile is the Cargo manifest name.
	ManifestFile = "Cargo.toml"
	// ProblemExt is the extension of problem source files.
	ProblemExt = ".rs"
)

var (
	// ErrProjectNotFound is returned when no project root encloses the start
	// directory.
	ErrProjectNotFound = errors.New("not inside a contest project")

	// ErrProblemNotFound is returned when a problem id has no source file.
	ErrProblemNotFound = errors.New("problem not found")
)

type (
	// Layout names the project directories, relative to the root.
	Layout struct {
		SrcDir     string
		CratesDir  string
		BundledDir string
		InputsDir  string
	}

	// Project is an opened contest project. All paths are absolute.
	Project struct {
		Root   string
		Layout Layout
	}

	// ProblemNotFoundError carries the id and the path that was checked.
	ProblemNotFoundError struct {
		ID   string
		Path string
	}
)

// DefaultLayout returns the standard cargo-style layout.
func DefaultLayout() Layout {
	return Layout{
		SrcDir:     filepath.Join("src", "bin"),
		CratesDir:  "crates",
		BundledDir: "bundled",
		InputsDir:  "inputs",
	}
}

func (e *ProblemNotFoundError) Error() string {
	return fmt.Sprintf("problem %q not found (expected %s)", e.ID, e.Path)
}

// Unwrap returns ErrProblemNotFound for errors.Is() compatibility.
func (e *ProblemNotFoundError) Unwrap() error { return ErrProblemNotFound }

// Find walks upward from start to the first project root.
func Find(start string, layout Layout) (*Project, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", start, err)
	}
	for {
		if IsRoot(dir) {
			return Open(dir, layout), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("%w (searched upward from %s)", ErrProjectNotFound, start)
		}
		dir = parent
	}
}

// IsRoot reports whether dir holds a Cargo.toml and a src directory.
func IsRoot(dir string) bool {
	if fi, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil || fi.IsDir() {
		return false
	}
	fi, err := os.Stat(filepath.Join(dir, "src"))
	return err == nil && fi.IsDir()
}

// Open returns the project rooted at root without probing the disk.
func Open(root string, layout Layout) *Project {
	def := DefaultLayout()
	if layout.SrcDir == "" {
		layout.SrcDir = def.SrcDir
	}
	if layout.CratesDir == "" {
		layout.CratesDir = def.CratesDir
	}
	if layout.BundledDir == "" {
		layout.BundledDir = def.BundledDir
	}
	if layout.InputsDir == "" {
		layout.InputsDir = def.InputsDir
	}
	return &Project{Root: root, Layout: layout}
}

func (p *Project) path(elem ...string) string {
	return filepath.Join(append([]string{p.Root}, elem...)...)
}

// SrcDir is the directory holding problem sources.
func (p *Project) SrcDir() string { return p.path(p.Layout.SrcDir) }

// CratesDir is the directory holding library crates.
func (p *Project) CratesDir() string { return p.path(p.Layout.CratesDir) }

// InputsDir returns the directory holding problem inputs.
func (p *Project) InputsDir() string { return p.path(p.Layout.InputsDir) }

// BundledDir is the root of the generated single-file project.
func (p *Project) BundledDir() string { return p.path(p.Layout.BundledDir) }

// ProblemFile returns the source path of a problem.
func (p *Project) ProblemFile(id string) string {
	return p.path(p.Layout.SrcDir, id+ProblemExt)
}

// BundledFile returns the output path of a bundled problem.
func (p *Project) BundledFile(id string) string {
	return p.path(p.Layout.BundledDir, "src", "bin", id+ProblemExt)
}

// InputFile returns the sample input path of a problem.
func (p *Project) InputFile(id string) string {
	return p.path(p.Layout.InputsDir, id+".txt")
}

// Rel returns path relative to the project root, or path itself when it is
// outside the root.
func (p *Project) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// ReadProblem returns the source of a problem.
func (p *Project) ReadProblem(id string) ([]byte, error) {
	path := p.ProblemFile(id)
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &ProblemNotFoundError{ID: id, Path: p.Rel(path)}
	}
	if err != nil {
		return nil, fmt.Errorf("reading problem %s: %w", id, err)
	}
	return src, nil
}

// Problems lists the problem ids found in the source directory, sorted.
func (p *Project) Problems() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(p.SrcDir()), "*"+ProblemExt)
	if err != nil {
		return nil, fmt.Errorf("listing problems: %w", err)
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(m, ProblemExt))
	}
	slices.Sort(ids)
	return ids, nil
}
