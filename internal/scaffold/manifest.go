// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
)

// Edition is the Rust edition written into generated manifests.
const Edition = "2021"

type (
	// Manifest is the subset of Cargo.toml that scaffolding writes.
	Manifest struct {
		Package      Package               `toml:"package"`
		Dependencies map[string]Dependency `toml:"dependencies,omitempty"`
		Profile      map[string]Profile    `toml:"profile,omitempty"`
		// Workspace is set on nested manifests so cargo does not search the
		// parent directory for a workspace root.
		Workspace *Workspace `toml:"workspace,omitempty"`
	}

	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Edition string `toml:"edition"`
		Publish bool   `toml:"publish"`
	}

	// Dependency is either a registry version or a local path.
	Dependency struct {
		Version string `toml:"version,omitempty"`
		Path    string `toml:"path,omitempty"`
	}

	Profile struct {
		OptLevel        int  `toml:"opt-level"`
		DebugAssertions bool `toml:"debug-assertions"`
		OverflowChecks  bool `toml:"overflow-checks"`
	}

	Workspace struct{}

	// LibrarySpec selects how a contest depends on the algorithm library.
	LibrarySpec struct {
		// Name is the package name of the library crate.
		Name string
		// Version is used for registry (vendored) dependencies.
		Version string
		// Path, when set, makes the dependency a path dependency, relative
		// to the contest root.
		Path string
	}
)

// ContestManifest returns the Cargo.toml of a new contest.
func ContestManifest(contest string, lib LibrarySpec) ([]byte, error) {
	m := baseManifest(contest)
	if lib.Name != "" {
		dep := Dependency{Version: lib.Version}
		if lib.Path != "" {
			dep = Dependency{Path: path.Clean(lib.Path)}
		} else if dep.Version == "" {
			dep.Version = "*"
		}
		m.Dependencies = map[string]Dependency{lib.Name: dep}
	}
	return marshal(m)
}

// BundledManifest returns the Cargo.toml of the bundled/ directory. Bundled
// files inline the library, so it has no dependencies.
func BundledManifest(contest string) ([]byte, error) {
	m := baseManifest(contest + "-bundled")
	m.Workspace = &Workspace{}
	return marshal(m)
}

func baseManifest(name string) *Manifest {
	return &Manifest{
		Package: Package{Name: PackageName(name), Version: "0.1.0", Edition: Edition},
		Profile: map[string]Profile{
			"dev": {OptLevel: 1, DebugAssertions: true, OverflowChecks: true},
		},
	}
}

// PackageName turns a contest id into a cargo package name: lower case,
// with a "contest-" prefix when the id does not start with a letter.
func PackageName(id string) string {
	name := strings.ToLower(strings.TrimSpace(id))
	if name == "" || !unicode.IsLetter(rune(name[0])) {
		name = "contest-" + name
	}
	return name
}

func marshal(m *Manifest) ([]byte, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding Cargo.toml: %w", err)
	}
	return data, nil
}

// ReadManifest decodes a Cargo.toml written by this package.
func ReadManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding Cargo.toml: %w", err)
	}
	return &m, nil
}
