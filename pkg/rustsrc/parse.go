// SPDX-License-Identifier: MPL-2.0

package rustsrc

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

const maxSnippet = 40

// definitionKinds maps tree-sitter node types to named definition kinds.
var definitionKinds = map[string]DefKind{
	"function_item":           DefFunction,
	"function_signature_item": DefFunction,
	"struct_item":             DefStruct,
	"enum_item":               DefEnum,
	"union_item":              DefUnion,
	"trait_item":              DefTrait,
	"type_item":               DefType,
	"const_item":              DefConst,
	"static_item":             DefStatic,
}

// builder walks one syntax tree. It is not safe for concurrent use; Parse
// creates a fresh one per call.
type builder struct {
	src []byte
}

// Parse builds the structural model of one Rust source file. name is used
// only in diagnostics.
func Parse(name string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(rust.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxErrorAt(name, src, firstErrorNode(root))
	}

	b := &builder{src: src}
	mod := &Module{}
	b.module(root, mod)
	f := &File{Name: name, Source: src, Module: mod}
	b.literals(root, &f.Literals)
	return f, nil
}

// literals records the multi-line string literals under n.
func (b *builder) literals(n *sitter.Node, out *[]Span) {
	switch n.Type() {
	case "string_literal", "raw_string_literal":
		if span := spanOf(n); bytes.IndexByte(b.src[span.Start:span.End], '\n') >= 0 {
			*out = append(*out, span)
		}
		return
	case "line_comment", "block_comment":
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		b.literals(n.Child(i), out)
	}
}

// firstErrorNode returns the first ERROR or MISSING node in document order.
func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return nil
}

func syntaxErrorAt(name string, src []byte, n *sitter.Node) *SyntaxError {
	if n == nil {
		return &SyntaxError{File: name, Line: 1, Column: 1}
	}
	pt := n.StartPoint()
	snippet := strings.TrimSpace(n.Content(src))
	if idx := strings.IndexByte(snippet, '\n'); idx >= 0 {
		snippet = snippet[:idx]
	}
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}
	return &SyntaxError{
		File:    name,
		Line:    int(pt.Row) + 1,
		Column:  int(pt.Column) + 1,
		Snippet: snippet,
	}
}

func (b *builder) text(n *sitter.Node) string {
	return n.Content(b.src)
}

func spanOf(n *sitter.Node) Span {
	return Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}

func posOf(n *sitter.Node) Position {
	pt := n.StartPoint()
	return Position{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
}

// module fills mod from the named children of a source_file or
// declaration_list node.
func (b *builder) module(body *sitter.Node, mod *Module) {
	var attrs []Attribute
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "line_comment", "block_comment", "empty_statement":
			continue
		case "attribute_item":
			attrs = append(attrs, Attribute{Text: b.text(child), Span: spanOf(child)})
			continue
		case "inner_attribute_item":
			mod.InnerAttrs = append(mod.InnerAttrs, Attribute{Text: b.text(child), Span: spanOf(child)})
			continue
		}
		if it := b.item(child, attrs, mod); it != nil {
			mod.Items = append(mod.Items, it)
		}
		attrs = nil
	}
}

func (b *builder) header(n *sitter.Node, attrs []Attribute) ItemHeader {
	h := ItemHeader{Attrs: attrs, Span: spanOf(n), Pos: posOf(n)}
	if name := n.ChildByFieldName("name"); name != nil {
		h.Name = b.text(name)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "visibility_modifier" {
			h.Visibility = Visibility(strings.Join(strings.Fields(b.text(c)), ""))
			break
		}
	}
	return h
}

func (b *builder) item(n *sitter.Node, attrs []Attribute, mod *Module) Item {
	h := b.header(n, attrs)
	switch typ := n.Type(); typ {
	case "mod_item":
		it := &ModItem{ItemHeader: h, TestOnly: h.HasAttr("cfg(test)")}
		if body := n.ChildByFieldName("body"); body != nil {
			it.Body = &Module{}
			b.module(body, it.Body)
		}
		return it

	case "use_declaration":
		it := &UseItem{ItemHeader: h}
		if arg := n.ChildByFieldName("argument"); arg != nil {
			b.flattenUse(arg, nil, nil, &it.Entries)
		}
		return it

	case "extern_crate_declaration":
		it := &ExternCrateItem{ItemHeader: h, Crate: h.Name}
		if alias := n.ChildByFieldName("alias"); alias != nil {
			it.Alias = b.text(alias)
		}
		return it

	case "macro_definition":
		b.collectPaths(n, mod)
		return &MacroRulesItem{ItemHeader: h, Exported: h.HasAttr("macro_export")}

	case "macro_invocation":
		return b.macroCall(n, h, mod)

	case "expression_statement":
		if inner := n.NamedChild(0); inner != nil && inner.Type() == "macro_invocation" {
			return b.macroCall(inner, h, mod)
		}
		b.collectPaths(n, mod)
		return &OtherItem{ItemHeader: h, NodeType: typ}

	case "impl_item":
		b.collectPaths(n, mod)
		return &ImplItem{ItemHeader: h}

	default:
		b.collectPaths(n, mod)
		if kind, ok := definitionKinds[typ]; ok && h.Name != "" {
			return &DefItem{ItemHeader: h, Kind: kind}
		}
		return &OtherItem{ItemHeader: h, NodeType: typ}
	}
}

func (b *builder) macroCall(n *sitter.Node, h ItemHeader, mod *Module) Item {
	if m := n.ChildByFieldName("macro"); m != nil {
		h.Name = b.text(m)
	}
	b.collectPaths(n, mod)
	return &MacroCallItem{ItemHeader: h}
}

// pathSegments flattens a path node into its segments. root is the node of
// the first segment. ok is false for paths that carry generic arguments or
// other non-name components.
func (b *builder) pathSegments(n *sitter.Node) (segs []string, root *sitter.Node, ok bool) {
	switch n.Type() {
	case "identifier", "type_identifier", "crate", "self", "super":
		return []string{b.text(n)}, n, true
	case "metavariable":
		if b.text(n) == "$crate" {
			return []string{"crate"}, n, true
		}
		return nil, nil, false
	case "scoped_identifier", "scoped_type_identifier":
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil, nil, false
		}
		path := n.ChildByFieldName("path")
		if path == nil {
			// "::name" global path
			return []string{b.text(name)}, name, true
		}
		segs, root, ok := b.pathSegments(path)
		if !ok {
			return nil, nil, false
		}
		return append(segs, b.text(name)), root, true
	}
	return nil, nil, false
}

// flattenUse expands a use tree into leaf entries, carrying the prefix
// accumulated from enclosing scoped lists.
func (b *builder) flattenUse(n *sitter.Node, prefix []string, prefixRoot *sitter.Node, out *[]UseEntry) {
	entry := func(segs []string, root *sitter.Node) UseEntry {
		full := make([]string, 0, len(prefix)+len(segs))
		full = append(full, prefix...)
		full = append(full, segs...)
		if prefixRoot != nil {
			root = prefixRoot
		}
		e := UseEntry{Path: full, Pos: posOf(n)}
		if root != nil {
			e.RootSpan = spanOf(root)
		}
		return e
	}

	switch n.Type() {
	case "use_as_clause":
		path := n.ChildByFieldName("path")
		if path == nil {
			return
		}
		segs, root, ok := b.pathSegments(path)
		if !ok {
			return
		}
		e := entry(segs, root)
		if alias := n.ChildByFieldName("alias"); alias != nil {
			e.Alias = b.text(alias)
		}
		*out = append(*out, trimSelf(e))

	case "use_wildcard":
		var segs []string
		var root *sitter.Node
		if path := n.NamedChild(0); path != nil {
			var ok bool
			if segs, root, ok = b.pathSegments(path); !ok {
				return
			}
		}
		e := entry(segs, root)
		e.Glob = true
		*out = append(*out, e)

	case "scoped_use_list":
		next := prefix
		nextRoot := prefixRoot
		if path := n.ChildByFieldName("path"); path != nil {
			segs, root, ok := b.pathSegments(path)
			if !ok {
				return
			}
			next = append(append([]string{}, prefix...), segs...)
			if nextRoot == nil {
				nextRoot = root
			}
		}
		if list := n.ChildByFieldName("list"); list != nil {
			b.flattenUse(list, next, nextRoot, out)
		}

	case "use_list":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if t := child.Type(); t == "line_comment" || t == "block_comment" {
				continue
			}
			b.flattenUse(child, prefix, prefixRoot, out)
		}

	default:
		segs, root, ok := b.pathSegments(n)
		if !ok {
			return
		}
		*out = append(*out, trimSelf(entry(segs, root)))
	}
}

// trimSelf turns "a::b::self" into "a::b".
func trimSelf(e UseEntry) UseEntry {
	if l := len(e.Path); l > 1 && e.Path[l-1] == "self" {
		e.Path = e.Path[:l-1]
	}
	return e
}

// collectPaths records every qualified path under n into mod.
func (b *builder) collectPaths(n *sitter.Node, mod *Module) {
	switch n.Type() {
	case "scoped_identifier", "scoped_type_identifier":
		if segs, root, ok := b.pathSegments(n); ok {
			if len(segs) > 1 {
				mod.Paths = append(mod.Paths, PathRef{Segments: segs, Pos: posOf(n), RootSpan: spanOf(root)})
			}
			return
		}
		if path := n.ChildByFieldName("path"); path != nil {
			b.collectPaths(path, mod)
		}
		return
	case "token_tree":
		b.scanTokens(n, mod)
		return
	case "use_declaration":
		if arg := n.ChildByFieldName("argument"); arg != nil {
			b.flattenUse(arg, nil, nil, &mod.LocalUses)
		}
		return
	case "mod_item", "line_comment", "block_comment":
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		b.collectPaths(n.NamedChild(i), mod)
	}
}

func isPathToken(n *sitter.Node, src []byte) bool {
	switch n.Type() {
	case "identifier", "crate", "self", "super":
		return true
	case "metavariable":
		return n.Content(src) == "$crate"
	}
	return false
}

// scanTokens recovers "a::b::c" sequences from an unparsed macro token tree.
func (b *builder) scanTokens(tt *sitter.Node, mod *Module) {
	count := int(tt.ChildCount())
	for i := 0; i < count; i++ {
		c := tt.Child(i)
		if c.Type() == "token_tree" {
			b.scanTokens(c, mod)
			continue
		}
		if !isPathToken(c, b.src) {
			continue
		}
		if i > 0 && tt.Child(i-1).Type() == "::" {
			continue
		}
		first := b.text(c)
		if first == "$crate" {
			first = "crate"
		}
		segs := []string{first}
		j := i
		for j+2 < count && tt.Child(j+1).Type() == "::" && tt.Child(j+2).Type() == "identifier" {
			segs = append(segs, b.text(tt.Child(j+2)))
			j += 2
		}
		if len(segs) > 1 {
			mod.Paths = append(mod.Paths, PathRef{Segments: segs, Pos: posOf(c), RootSpan: spanOf(c), InMacro: true})
		}
		i = j
	}
}
