// SPDX-License-Identifier: MPL-2.0

package rustsrc

import "strings"

// DefKind classifies named definitions.
type DefKind string

const (
	DefFunction DefKind = "fn"
	DefStruct   DefKind = "struct"
	DefEnum     DefKind = "enum"
	DefUnion    DefKind = "union"
	DefTrait    DefKind = "trait"
	DefType     DefKind = "type"
	DefConst    DefKind = "const"
	DefStatic   DefKind = "static"
)

type (
	// Item is one module-level declaration. The variant set is closed.
	Item interface {
		Header() *ItemHeader
		item()
	}

	// ItemHeader carries the fields every item variant shares.
	ItemHeader struct {
		Name       string
		Visibility Visibility
		// Attrs are the outer attributes written before the item.
		Attrs []Attribute
		// Span covers the item itself, without its attributes.
		Span Span
		Pos  Position
	}

	// ModItem declares a child module. Body is nil for file-backed
	// declarations ("mod name;").
	ModItem struct {
		ItemHeader
		Body     *Module
		TestOnly bool
	}

	// UseItem is a use declaration. With a public visibility it re-exports
	// its entries; otherwise it imports them.
	UseItem struct {
		ItemHeader
		Entries []UseEntry
	}

	// ExternCrateItem is "extern crate name [as alias];".
	ExternCrateItem struct {
		ItemHeader
		Crate string
		Alias string
	}

	// MacroRulesItem is a macro_rules! definition.
	MacroRulesItem struct {
		ItemHeader
		Exported bool
	}

	// MacroCallItem is a macro invoked in item position. Name holds the
	// macro path as written.
	MacroCallItem struct {
		ItemHeader
	}

	// DefItem is a named definition such as a function or a struct.
	DefItem struct {
		ItemHeader
		Kind DefKind
	}

	// ImplItem is an impl block. It defines no module-level name.
	ImplItem struct {
		ItemHeader
	}

	// OtherItem is any other item-level node, kept verbatim.
	OtherItem struct {
		ItemHeader
		NodeType string
	}
)

// Header returns the shared item fields.
func (h *ItemHeader) Header() *ItemHeader { return h }

// HasAttr reports whether an outer attribute starts with the given path,
// e.g. HasAttr("macro_export") or HasAttr("cfg(test)").
func (h *ItemHeader) HasAttr(name string) bool {
	for _, a := range h.Attrs {
		if strings.HasPrefix(AttrBody(a.Text), name) {
			return true
		}
	}
	return false
}

func (*ModItem) item()         {}
func (*UseItem) item()         {}
func (*ExternCrateItem) item() {}
func (*MacroRulesItem) item()  {}
func (*MacroCallItem) item()   {}
func (*DefItem) item()         {}
func (*ImplItem) item()        {}
func (*OtherItem) item()       {}

// AttrBody strips the #[ ] or #![ ] brackets and all whitespace from an
// attribute, returning e.g. "cfg(test)" or "doc=\"...\"".
func AttrBody(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "#!")
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return strings.Join(strings.Fields(s), "")
}

// Mods returns the child module declarations, including test-only ones.
func (m *Module) Mods() []*ModItem {
	var out []*ModItem
	for _, it := range m.Items {
		if mod, ok := it.(*ModItem); ok {
			out = append(out, mod)
		}
	}
	return out
}

// Imports returns the entries of private use declarations, followed by the
// block-scoped ones.
func (m *Module) Imports() []UseEntry {
	var out []UseEntry
	for _, it := range m.Items {
		if use, ok := it.(*UseItem); ok && !use.Visibility.IsPublic() {
			out = append(out, use.Entries...)
		}
	}
	return append(out, m.LocalUses...)
}

// Reexports returns the entries of public use declarations.
func (m *Module) Reexports() []UseEntry {
	var out []UseEntry
	for _, it := range m.Items {
		if use, ok := it.(*UseItem); ok && use.Visibility.IsPublic() {
			out = append(out, use.Entries...)
		}
	}
	return out
}

// Defines returns the names declared directly in the module: definitions,
// non-test child modules and macros, in source order.
func (m *Module) Defines() []string {
	var out []string
	for _, it := range m.Items {
		switch it := it.(type) {
		case *DefItem:
			out = append(out, it.Name)
		case *ModItem:
			if !it.TestOnly {
				out = append(out, it.Name)
			}
		case *MacroRulesItem:
			out = append(out, it.Name)
		case *UseItem, *ExternCrateItem, *MacroCallItem, *ImplItem, *OtherItem:
		}
	}
	return out
}

// HasItemMacros reports whether items are produced by macro invocations, in
// which case Defines is not the complete set of names.
func (m *Module) HasItemMacros() bool {
	for _, it := range m.Items {
		if _, ok := it.(*MacroCallItem); ok {
			return true
		}
	}
	return false
}
