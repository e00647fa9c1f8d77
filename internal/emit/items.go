// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"slices"
	"strings"

	"github.com/algorist/algorist/internal/registry"
	"github.com/algorist/algorist/pkg/rustsrc"
)

type (
	edit struct {
		span rustsrc.Span
		text string
	}

	// rewriter holds the root-segment edits of one module body.
	rewriter struct {
		edits []edit
	}
)

// items renders node's own items as dedented blocks, one per item.
func (e *emitter) items(node *registry.ModuleNode) []block {
	f := node.File
	rw := e.rewriter(node)
	var out []block
	for _, it := range node.Body.Items {
		h := it.Header()
		if h.HasAttr("cfg(test)") {
			continue
		}
		switch it := it.(type) {
		case *rustsrc.ModItem:
			continue
		case *rustsrc.UseItem:
			if it.Visibility.IsPublic() {
				if lines := e.reexportLines(node, it); len(lines) > 0 {
					out = append(out, plainBlock(lines...))
				}
				continue
			}
		case *rustsrc.ExternCrateItem:
			if e.idx.IsLibrary(it.Crate) {
				continue
			}
		}

		var b block
		for _, a := range h.Attrs {
			if keepAttr(a) {
				b.extend(plainBlock(strings.Split(strings.TrimSpace(a.Text), "\n")...))
			}
		}
		prefix := linePrefix(f.Source, h.Span.Start)
		b.extend(dedent(sourceBlock(f, h.Span.Start, prefix+rw.apply(f, h.Span))))
		out = append(out, b)
	}
	return out
}

// reexportLines re-emits the traversed entries of a public use declaration,
// one declaration per entry.
func (e *emitter) reexportLines(node *registry.ModuleNode, it *rustsrc.UseItem) []string {
	var lines []string
	for _, en := range it.Entries {
		keep := false
		switch name := en.BoundName(); {
		case en.Glob:
			for _, wc := range node.Wildcards {
				if wc.Entry.Pos == en.Pos && slices.Equal(wc.Entry.Path, en.Path) {
					keep = wc.External || e.usage.UsedWildcard(node.Path, wc.Target)
					break
				}
			}
		case name == "":
			keep = true
		default:
			re, ok := node.Reexports[name]
			keep = ok && (re.External || e.usage.UsedReexport(node.Path, name))
		}
		if keep {
			lines = append(lines, string(it.Visibility)+" use "+e.spellEntry(node, en)+";")
		}
	}
	return lines
}

// spellEntry rewrites the root of a use entry for its inlined location.
func (e *emitter) spellEntry(node *registry.ModuleNode, en rustsrc.UseEntry) string {
	if len(en.Path) > 0 {
		if root, ok := e.rootText(node, en.Path[0]); ok {
			en.Path = append([]string{root}, en.Path[1:]...)
		}
	}
	return en.String()
}

// rootText returns the replacement for a path root, if it needs one. Crate
// relative roots gain the crate's module name; sibling crate names become
// crate relative.
func (e *emitter) rootText(node *registry.ModuleNode, root string) (string, bool) {
	switch {
	case root == "crate", root == "$crate":
		return root + "::" + node.Crate(), true
	case e.idx.IsLibrary(root) && !node.Defines[root]:
		return "crate::" + root, true
	}
	return "", false
}

func (e *emitter) rewriter(node *registry.ModuleNode) *rewriter {
	rw := &rewriter{}
	seen := make(map[int]bool)
	add := func(span rustsrc.Span) {
		if span.End <= span.Start || seen[span.Start] {
			return
		}
		seen[span.Start] = true
		if text, ok := e.rootText(node, node.File.Text(span)); ok {
			rw.edits = append(rw.edits, edit{span: span, text: text})
		}
	}
	for _, p := range node.Body.Paths {
		add(p.RootSpan)
	}
	for _, en := range node.Body.Imports() {
		add(en.RootSpan)
	}
	slices.SortFunc(rw.edits, func(a, b edit) int { return a.span.Start - b.span.Start })
	return rw
}

// apply returns the text of span with every edit inside it applied.
func (rw *rewriter) apply(f *rustsrc.File, span rustsrc.Span) string {
	var b strings.Builder
	pos := span.Start
	for _, ed := range rw.edits {
		if ed.span.Start < span.Start || ed.span.End > span.End {
			continue
		}
		b.Write(f.Source[pos:ed.span.Start])
		b.WriteString(ed.text)
		pos = ed.span.End
	}
	b.Write(f.Source[pos:span.End])
	return b.String()
}
