// SPDX-License-Identifier: MPL-2.0

// Package emit reassembles a pruned library module tree and the entry file
// into one Rust source file.
//
// Output depends only on the entry file, the registry and the closure:
// crates, modules and items are visited in a fixed order and every item is
// re-indented the same way, so unchanged input yields byte-identical output.
// Lines inside multi-line string literals are copied unchanged.
package emit

import (
	"fmt"
	"strings"

	"github.com/algorist/algorist/internal/registry"
	"github.com/algorist/algorist/pkg/modpath"
	"github.com/algorist/algorist/pkg/rustsrc"
)

// crateAllow is attached to every inlined crate; pruning routinely leaves
// unused helpers and imports behind.
const crateAllow = "#[allow(dead_code, unused_imports, unused_macros)]"

type (
	// Index is the registry view the emitter reads.
	Index interface {
		Lookup(p modpath.Path) (*registry.ModuleNode, bool)
		IsLibrary(name string) bool
	}

	// Usage is the resolved closure. *resolve.Closure satisfies it.
	Usage interface {
		Required() []modpath.Path
		IsRequired(p modpath.Path) bool
		UsedReexport(module modpath.Path, name string) bool
		UsedWildcard(module, target modpath.Path) bool
		UsedMacros(crate string) []string
	}

	// Options tunes the output.
	Options struct {
		// Header lines are written first, each prefixed with "// ".
		Header []string
		// Indent is one nesting level; defaults to four spaces.
		Indent string
	}

	emitter struct {
		idx     Index
		usage   Usage
		indent  string
		present map[string]bool
		kids    map[string][]modpath.Path
		out     strings.Builder
	}
)

// Emit renders the bundle. The closure must have been computed against idx.
func Emit(entry *rustsrc.File, idx Index, usage Usage, opts Options) (string, error) {
	e := &emitter{
		idx:     idx,
		usage:   usage,
		indent:  opts.Indent,
		present: make(map[string]bool),
		kids:    make(map[string][]modpath.Path),
	}
	if e.indent == "" {
		e.indent = "    "
	}

	for _, line := range opts.Header {
		e.out.WriteString(strings.TrimRight("// "+line, " "))
		e.out.WriteByte('\n')
	}
	if len(opts.Header) > 0 {
		e.out.WriteByte('\n')
	}

	crates, err := e.plan(usage.Required())
	if err != nil {
		return "", err
	}
	for _, crate := range crates {
		e.crate(crate)
		e.out.WriteByte('\n')
	}

	e.out.WriteString(rewriteEntry(entry, idx))
	return e.out.String(), nil
}

// plan marks every required module and its ancestors present and records
// the sorted child lists. It returns the crates to emit, sorted.
func (e *emitter) plan(required []modpath.Path) ([]modpath.Path, error) {
	all := modpath.NewSet()
	for _, p := range required {
		if _, ok := e.idx.Lookup(p); !ok {
			return nil, fmt.Errorf("emit: required module %s is not registered", p)
		}
		for n := 1; n <= p.Len(); n++ {
			all.Add(p.Prefix(n))
		}
	}
	var crates []modpath.Path
	for _, p := range all.Sorted() {
		e.present[p.Key()] = true
		parent, ok := p.Parent()
		if !ok {
			crates = append(crates, p)
			continue
		}
		e.kids[parent.Key()] = append(e.kids[parent.Key()], p)
	}
	return crates, nil
}

// raw writes s without indentation.
func (e *emitter) raw(s string) {
	e.out.WriteString(s)
	e.out.WriteByte('\n')
}

func (e *emitter) line(depth int, s string) {
	if s == "" {
		e.out.WriteByte('\n')
		return
	}
	e.out.WriteString(strings.Repeat(e.indent, depth))
	e.out.WriteString(s)
	e.out.WriteByte('\n')
}

// crate writes one inlined crate root.
func (e *emitter) crate(root modpath.Path) {
	e.line(0, crateAllow)
	e.line(0, "mod "+root.Root()+" {")
	blocks := e.body(root, 1, e.ownItems(root))
	macros := e.usage.UsedMacros(root.Root())
	if len(macros) > 0 {
		if blocks > 0 {
			e.line(0, "")
		}
		for _, m := range macros {
			e.line(1, "pub use crate::"+m+";")
		}
	}
	e.line(0, "}")
}

// ownItems returns the rendered items of p, or nil when p is only a
// pass-through ancestor.
func (e *emitter) ownItems(p modpath.Path) []block {
	if !e.usage.IsRequired(p) {
		return nil
	}
	node, _ := e.idx.Lookup(p)
	return e.items(node)
}

// body writes the given item blocks followed by p's present children. It
// returns the number of blocks written.
func (e *emitter) body(p modpath.Path, depth int, chunks []block) int {
	blocks := 0
	for _, chunk := range chunks {
		if blocks > 0 {
			e.line(0, "")
		}
		for i, l := range chunk.lines {
			if chunk.verbatim[i] {
				e.raw(l)
				continue
			}
			e.line(depth, l)
		}
		blocks++
	}
	for _, child := range e.kids[p.Key()] {
		if blocks > 0 {
			e.line(0, "")
		}
		e.child(child, depth)
		blocks++
	}
	return blocks
}

// child writes "mod name { ... }" for a present child module, reusing the
// declaration's visibility and attributes.
func (e *emitter) child(p modpath.Path, depth int) {
	node, _ := e.idx.Lookup(p)
	for _, a := range node.Attrs {
		if keepAttr(a) {
			e.line(depth, strings.TrimSpace(a.Text))
		}
	}
	head := "mod " + p.Last()
	if node.Visibility != "" {
		head = string(node.Visibility) + " " + head
	}

	chunks := e.ownItems(p)
	if len(chunks) == 0 && len(e.kids[p.Key()]) == 0 {
		e.line(depth, head+" {}")
		return
	}
	e.line(depth, head+" {")
	e.body(p, depth+1, chunks)
	e.line(depth, "}")
}

// keepAttr drops attributes that are meaningless or harmful once a module or
// item is inlined: documentation, file path overrides and test gating.
func keepAttr(a rustsrc.Attribute) bool {
	body := rustsrc.AttrBody(a.Text)
	switch {
	case strings.HasPrefix(body, "doc"),
		strings.HasPrefix(body, "path="),
		strings.HasPrefix(body, "cfg(test)"):
		return false
	}
	return true
}
