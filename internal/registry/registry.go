// SPDX-License-Identifier: MPL-2.0

// Package registry builds the immutable, in-memory index of a Rust library:
// one ModuleNode per module path, carrying the module's parsed body and the
// imports and re-exports declared directly inside it.
//
// A Registry is constructed once from already-read source files and is never
// mutated afterwards, so one instance may back any number of concurrent
// bundle operations.
package registry

import (
	"maps"
	"slices"

	"github.com/algorist/algorist/pkg/modpath"
	"github.com/algorist/algorist/pkg/rustsrc"
)

type (
	// SourceFile is the raw text of one file-backed module. Crate roots
	// have single-segment paths.
	SourceFile struct {
		Path   modpath.Path
		Text   []byte
		Origin string
	}

	// Import is an absolute library path referenced by a module's own code.
	Import struct {
		Path modpath.Path
		Pos  rustsrc.Position
		// Tentative marks paths recovered from macro token trees; they may
		// be macro-local spellings and are dropped when they do not resolve.
		Tentative bool
		// Glob marks "use path::*" imports.
		Glob bool
	}

	// Reexport is one public use entry. External entries point outside the
	// library and have nothing to resolve.
	Reexport struct {
		Name     string
		Target   modpath.Path
		Entry    rustsrc.UseEntry
		External bool
	}

	// ModuleNode is one registered module.
	ModuleNode struct {
		Path   modpath.Path
		Origin string
		// File is the parsed file the module lives in; Body is the module's
		// own item list inside it.
		File *rustsrc.File
		Body *rustsrc.Module
		// Visibility and Attrs come from the declaring "mod" item.
		Visibility rustsrc.Visibility
		Attrs      []rustsrc.Attribute

		Children  []string
		Defines   map[string]bool
		Locals    map[string]modpath.Path
		Imports   []Import
		Reexports map[string]Reexport
		Wildcards []Reexport
		// Opaque is set when item-level macro invocations may define names
		// that Defines cannot list.
		Opaque bool
	}

	// Registry indexes every module of the configured library crates.
	Registry struct {
		nodes  map[string]*ModuleNode
		crates []string
		macros map[string]modpath.Path
	}

	// Option configures Build.
	Option func(*builder)
)

// WithParseCache reuses parsed files across builds.
func WithParseCache(c *ParseCache) Option {
	return func(b *builder) { b.cache = c }
}

// Lookup returns the module registered at p.
func (r *Registry) Lookup(p modpath.Path) (*ModuleNode, bool) {
	n, ok := r.nodes[p.Key()]
	return n, ok
}

// IsLibrary reports whether name is the root of a registered crate.
func (r *Registry) IsLibrary(name string) bool {
	_, ok := slices.BinarySearch(r.crates, name)
	return ok
}

// Crates returns the crate names in sorted order.
func (r *Registry) Crates() []string {
	return slices.Clone(r.crates)
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.nodes)
}

// Modules returns every node in path order.
func (r *Registry) Modules() []*ModuleNode {
	out := slices.Collect(maps.Values(r.nodes))
	slices.SortFunc(out, func(a, b *ModuleNode) int { return modpath.Compare(a.Path, b.Path) })
	return out
}

// ExportedMacro returns the module defining a #[macro_export] macro, which
// Rust places at the root of its crate.
func (r *Registry) ExportedMacro(crate, name string) (modpath.Path, bool) {
	p, ok := r.macros[crate+modpath.Separator+name]
	return p, ok
}

// Crate returns the crate name of the module.
func (n *ModuleNode) Crate() string {
	return n.Path.Root()
}

// IsRoot reports whether the node is a crate root.
func (n *ModuleNode) IsRoot() bool {
	return n.Path.Len() == 1
}
