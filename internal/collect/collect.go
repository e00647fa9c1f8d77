// SPDX-License-Identifier: MPL-2.0

// Package collect extracts, from a parsed entry file, every qualified path
// that points into the library's namespace.
package collect

import (
	"cmp"
	"slices"
	"strings"

	"github.com/algorist/algorist/pkg/modpath"
	"github.com/algorist/algorist/pkg/rustsrc"
)

type (
	// LibrarySet reports whether a root segment names a library crate.
	// *registry.Registry satisfies it.
	LibrarySet interface {
		IsLibrary(name string) bool
	}

	// Reference is one library path used by the entry file.
	Reference struct {
		// Path is the absolute library path, with local aliases expanded.
		Path modpath.Path
		// Spelling is the path exactly as written.
		Spelling string
		Pos      rustsrc.Position
		// Glob is set when some use declaration imports everything under
		// Path.
		Glob bool
	}

	candidate struct {
		segs []string
		pos  rustsrc.Position
		// bind is the local name a use entry introduces, "" otherwise.
		bind string
		glob bool
	}
)

// Collect returns the entry file's library references, deduplicated by
// absolute path and ordered by first occurrence. Paths whose root is not a
// library crate, or a local name bound to one, are ignored.
func Collect(f *rustsrc.File, libs LibrarySet) []Reference {
	var (
		cands  []candidate
		locals = make(map[string]modpath.Path)
	)

	var gather func(m *rustsrc.Module)
	gather = func(m *rustsrc.Module) {
		for _, it := range m.Items {
			switch it := it.(type) {
			case *rustsrc.UseItem:
				for _, e := range it.Entries {
					cands = append(cands, candidate{segs: e.Path, pos: e.Pos, bind: e.BoundName(), glob: e.Glob})
				}
			case *rustsrc.ExternCrateItem:
				if it.Alias != "" && libs.IsLibrary(it.Crate) {
					locals[it.Alias] = modpath.New(it.Crate)
				}
			case *rustsrc.ModItem:
				if it.Body != nil {
					gather(it.Body)
				}
			case *rustsrc.MacroRulesItem, *rustsrc.MacroCallItem, *rustsrc.DefItem, *rustsrc.ImplItem, *rustsrc.OtherItem:
			}
		}
		for _, e := range m.LocalUses {
			cands = append(cands, candidate{segs: e.Path, pos: e.Pos, bind: e.BoundName(), glob: e.Glob})
		}
		for _, p := range m.Paths {
			cands = append(cands, candidate{segs: p.Segments, pos: p.Pos})
		}
	}
	gather(f.Module)

	slices.SortStableFunc(cands, func(a, b candidate) int {
		if c := cmp.Compare(a.pos.Line, b.pos.Line); c != 0 {
			return c
		}
		return cmp.Compare(a.pos.Column, b.pos.Column)
	})

	expand := func(segs []string) (modpath.Path, bool) {
		if len(segs) == 0 {
			return nil, false
		}
		if libs.IsLibrary(segs[0]) {
			return modpath.New(segs...), true
		}
		if local, ok := locals[segs[0]]; ok {
			return local.Join(segs[1:]...), true
		}
		return nil, false
	}

	// Use entries bind names in document order, so "use lib::a; use a::b;"
	// expands the second through the first.
	for _, c := range cands {
		if c.bind == "" {
			continue
		}
		if abs, ok := expand(c.segs); ok {
			locals[c.bind] = abs
		}
	}

	seen := make(map[string]int)
	var refs []Reference
	for _, c := range cands {
		abs, ok := expand(c.segs)
		if !ok {
			continue
		}
		if i, dup := seen[abs.Key()]; dup {
			refs[i].Glob = refs[i].Glob || c.glob
			continue
		}
		seen[abs.Key()] = len(refs)
		refs = append(refs, Reference{
			Path:     abs,
			Spelling: strings.Join(c.segs, modpath.Separator),
			Pos:      c.pos,
			Glob:     c.glob,
		})
	}
	return refs
}
