// SPDX-License-Identifier: MPL-2.0

// Package scaffold creates contest projects and problem files from embedded
// templates.
package scaffold

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/algorist/algorist/internal/project"
	"github.com/algorist/algorist/internal/runner"
)

var (
	//go:embed templates
	templates embed.FS

	// ErrContestExists is returned when the contest directory already exists.
	ErrContestExists = errors.New("contest directory already exists")
	// ErrProblemExists is returned when the problem file already exists.
	ErrProblemExists = errors.New("problem already exists")
	// ErrInvalidID is returned for contest or problem ids that cannot name a
	// directory or cargo binary.
	ErrInvalidID = errors.New("invalid id")
	// ErrNoSourceDir is returned by Add outside a project with a src/ dir.
	ErrNoSourceDir = errors.New("source directory does not exist")

	idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	// libraryIgnores are skipped when copying a library crate.
	libraryIgnores = []string{"target/**", ".git/**", "**/*.rs.bk", "Cargo.lock"}
)

type (
	// Vendorer fetches the project's registry dependencies into a directory.
	// *runner.Runner satisfies it.
	Vendorer interface {
		CargoVendor(ctx context.Context, dir, dest string, stdio runner.Stdio) error
	}

	// CreateOptions configures Create.
	CreateOptions struct {
		// ParentDir receives the contest directory; empty means the working
		// directory.
		ParentDir string
		Layout    project.Layout
		// Library is the crate the contest depends on.
		Library LibrarySpec
		// LibraryDir, when set, is copied into the crates directory and
		// depended on by path. Otherwise Vendorer runs.
		LibraryDir string
		Vendorer   Vendorer
		Stdio      runner.Stdio
		// IDs are the problem stubs to create, unless Empty.
		IDs   []string
		Empty bool
	}

	// ExistsError names the path that blocked Create or Add.
	ExistsError struct {
		Path string
		Err  error
	}
)

func (e *ExistsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Path)
}

func (e *ExistsError) Unwrap() error { return e.Err }

// Create lays out a new contest and returns it opened.
func Create(ctx context.Context, contest string, opts CreateOptions) (*project.Project, error) {
	if !idPattern.MatchString(contest) {
		return nil, fmt.Errorf("%w: contest %q", ErrInvalidID, contest)
	}
	for _, id := range opts.IDs {
		if !idPattern.MatchString(id) {
			return nil, fmt.Errorf("%w: problem %q", ErrInvalidID, id)
		}
	}

	parent := opts.ParentDir
	if parent == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		parent = wd
	}
	absParent, err := filepath.Abs(parent)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve parent directory: %w", err)
	}
	root := filepath.Join(absParent, contest)
	if _, err := os.Stat(root); err == nil {
		return nil, &ExistsError{Path: root, Err: ErrContestExists}
	}

	p := project.Open(root, opts.Layout)
	if err := layout(ctx, p, contest, opts); err != nil {
		_ = os.RemoveAll(root) // Best-effort cleanup on error path
		return nil, err
	}
	return p, nil
}

func layout(ctx context.Context, p *project.Project, contest string, opts CreateOptions) error {
	for _, dir := range []string{p.SrcDir(), p.InputsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p.Rel(dir), err)
		}
	}

	lib := opts.Library
	if opts.LibraryDir != "" {
		name, err := copyLibrary(opts.LibraryDir, p.CratesDir())
		if err != nil {
			return err
		}
		lib.Name = name.pkg
		lib.Path = filepath.ToSlash(filepath.Join(p.Layout.CratesDir, name.dir))
	}

	manifest, err := ContestManifest(contest, lib)
	if err != nil {
		return err
	}
	files := map[string][]byte{
		project.ManifestFile: manifest,
		".gitignore":         mustTemplate("gitignore"),
		"rustfmt.toml":       mustTemplate("rustfmt.toml"),
	}
	vendoring := opts.LibraryDir == "" && lib.Name != ""
	if vendoring {
		files[filepath.Join(".cargo", "config.toml")] = mustTemplate("cargo_config.toml")
	}
	for name, data := range files {
		if err := writeNew(filepath.Join(p.Root, name), data); err != nil {
			return err
		}
	}

	if !opts.Empty {
		for _, id := range opts.IDs {
			if _, err := Add(p, id); err != nil {
				return err
			}
		}
	}

	if vendoring {
		if opts.Vendorer == nil {
			return fmt.Errorf("vendoring %s: no vendorer configured", lib.Name)
		}
		if err := opts.Vendorer.CargoVendor(ctx, p.Root, p.Layout.CratesDir, opts.Stdio); err != nil {
			return fmt.Errorf("vendoring %s: %w", lib.Name, err)
		}
	}
	return nil
}

// Add creates the problem file for id from the template and returns its
// path. A trailing ".rs" on id is ignored.
func Add(p *project.Project, id string) (string, error) {
	id = strings.TrimSuffix(id, project.ProblemExt)
	if !idPattern.MatchString(id) {
		return "", fmt.Errorf("%w: problem %q", ErrInvalidID, id)
	}
	src := filepath.Dir(p.SrcDir())
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNoSourceDir, src)
	}
	target := p.ProblemFile(id)
	if _, err := os.Stat(target); err == nil {
		return "", &ExistsError{Path: target, Err: ErrProblemExists}
	}
	if err := writeNew(target, mustTemplate("problem.rs")); err != nil {
		return "", err
	}
	return target, nil
}

type copiedCrate struct {
	pkg string
	dir string
}

// copyLibrary copies the crate in dir into cratesDir/<dir name>.
func copyLibrary(dir, cratesDir string) (copiedCrate, error) {
	c, ok, err := project.ReadCrate(dir)
	if err != nil {
		return copiedCrate{}, err
	}
	if !ok {
		return copiedCrate{}, fmt.Errorf("%s is not a library crate: no %s with a package name", dir, project.ManifestFile)
	}
	dest := filepath.Join(cratesDir, filepath.Base(filepath.Clean(dir)))

	fsys := os.DirFS(dir)
	err = doublestar.GlobWalk(fsys, "**", func(rel string, d fs.DirEntry) error {
		if d.IsDir() || ignoredLibraryFile(rel) {
			return nil
		}
		data, err := fs.ReadFile(fsys, rel)
		if err != nil {
			return err
		}
		return writeNew(filepath.Join(dest, filepath.FromSlash(rel)), data)
	})
	if err != nil {
		return copiedCrate{}, fmt.Errorf("copying library %s: %w", c.Name, err)
	}
	pkg := c.Package
	if pkg == "" {
		pkg = c.Name
	}
	return copiedCrate{pkg: pkg, dir: filepath.Base(dest)}, nil
}

func ignoredLibraryFile(rel string) bool {
	for _, pat := range libraryIgnores {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

func writeNew(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func mustTemplate(name string) []byte {
	data, err := templates.ReadFile("templates/" + name)
	if err != nil {
		panic(fmt.Sprintf("template %s missing from binary: %v", name, err))
	}
	return data
}
