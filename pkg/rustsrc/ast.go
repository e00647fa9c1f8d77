// SPDX-License-Identifier: MPL-2.0

// Package rustsrc parses Rust source files into the structural model the
// bundler works on: module declarations, use directives, item definitions and
// every qualified path spelled in code.
//
// The model is a sealed set of item variants. Consumers switch over the
// concrete types (*ModItem, *UseItem, *ExternCrateItem, *MacroRulesItem,
// *MacroCallItem, *DefItem, *ImplItem, *OtherItem); the unexported marker
// method on Item keeps the set closed to this package.
package rustsrc

import (
	"slices"
	"strings"
)

type (
	// Position is a 1-based line/column location. Columns count bytes.
	Position struct {
		Line   int
		Column int
	}

	// Span is a half-open byte range into File.Source.
	Span struct {
		Start int
		End   int
	}

	// Visibility is the literal visibility qualifier of a declaration
	// ("", "pub", "pub(crate)", "pub(super)", ...).
	Visibility string

	// Attribute is one outer (#[...]) or inner (#![...]) attribute.
	Attribute struct {
		Text string
		Span Span
	}

	// File is a parsed source file. Module is the file-level module.
	File struct {
		Name   string
		Source []byte
		Module *Module
		// Literals are the spans of string literals that cover more than
		// one line, in source order.
		Literals []Span
	}

	// Module holds the items of one module body, file-level or inline.
	Module struct {
		Items      []Item
		InnerAttrs []Attribute
		// Paths lists qualified paths (two or more segments) appearing in
		// code owned by this module, in source order. Paths inside inline
		// child modules belong to the child.
		Paths []PathRef
		// LocalUses are use entries declared inside function bodies and
		// other blocks rather than at module level.
		LocalUses []UseEntry
	}

	// PathRef is one qualified path as written.
	PathRef struct {
		Segments []string
		Pos      Position
		// RootSpan covers the first segment, so callers can rewrite the
		// path root without reparsing.
		RootSpan Span
		// InMacro is set for paths recovered from macro token trees.
		InMacro bool
	}

	// UseEntry is one leaf of a flattened use tree.
	UseEntry struct {
		Path  []string
		Alias string
		Glob  bool
		Pos   Position
		// RootSpan covers the first segment as written. Entries from one
		// grouped tree share it.
		RootSpan Span
	}
)

// IsPublic reports whether the qualifier exposes the item outside its module.
func (v Visibility) IsPublic() bool {
	return strings.HasPrefix(string(v), "pub")
}

// Text returns the source text covered by s.
func (f *File) Text(s Span) string {
	return string(f.Source[s.Start:s.End])
}

// InLiteral reports whether offset lies strictly inside a multi-line string
// literal.
func (f *File) InLiteral(offset int) bool {
	i, _ := slices.BinarySearchFunc(f.Literals, offset, func(s Span, off int) int {
		if s.End <= off {
			return -1
		}
		return 1
	})
	return i < len(f.Literals) && f.Literals[i].Start < offset
}

// BoundName returns the local name an entry introduces, or "" for glob and
// underscore imports.
func (e UseEntry) BoundName() string {
	if e.Glob || e.Alias == "_" {
		return ""
	}
	if e.Alias != "" {
		return e.Alias
	}
	if len(e.Path) == 0 {
		return ""
	}
	return e.Path[len(e.Path)-1]
}

// String spells the entry the way it would appear after "use".
func (e UseEntry) String() string {
	s := strings.Join(e.Path, "::")
	switch {
	case e.Glob && s == "":
		return "*"
	case e.Glob:
		return s + "::*"
	case e.Alias != "":
		return s + " as " + e.Alias
	default:
		return s
	}
}
