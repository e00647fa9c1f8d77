// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"slices"
	"sort"

	"github.com/algorist/algorist/pkg/modpath"
	"github.com/algorist/algorist/pkg/rustsrc"
)

type builder struct {
	cache *ParseCache
	files map[string]SourceFile
	reg   *Registry
}

// Sources turns a path-to-text mapping into SourceFiles, using the path
// spelling as the origin. Keys are "::"-separated module paths.
func Sources(texts map[string]string) []SourceFile {
	files := make([]SourceFile, 0, len(texts))
	for k, v := range texts {
		p := modpath.Parse(k)
		files = append(files, SourceFile{Path: p, Text: []byte(v), Origin: p.String()})
	}
	slices.SortFunc(files, func(a, b SourceFile) int { return modpath.Compare(a.Path, b.Path) })
	return files
}

// Build parses every module reachable from the crate roots in files and
// returns the populated registry. Files not declared by any reachable
// "mod" item are ignored; test-only modules are not registered.
func Build(files []SourceFile, opts ...Option) (*Registry, error) {
	b := &builder{
		files: make(map[string]SourceFile, len(files)),
		reg: &Registry{
			nodes:  make(map[string]*ModuleNode),
			macros: make(map[string]modpath.Path),
		},
	}
	for _, opt := range opts {
		opt(b)
	}

	var roots []SourceFile
	for _, f := range files {
		b.files[f.Path.Key()] = f
		if f.Path.Len() == 1 {
			roots = append(roots, f)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Path.Root() < roots[j].Path.Root() })
	for _, root := range roots {
		b.reg.crates = append(b.reg.crates, root.Path.Root())
	}

	for _, root := range roots {
		f, err := b.cache.Parse(root.Origin, root.Text)
		if err != nil {
			return nil, &LibraryLoadError{Module: root.Path, Origin: root.Origin, Err: err}
		}
		if err := b.walk(root.Path, f, f.Module, nil, root.Origin); err != nil {
			return nil, err
		}
	}

	for _, node := range b.reg.Modules() {
		b.link(node)
	}
	return b.reg, nil
}

// walk registers path and descends into its child module declarations.
func (b *builder) walk(path modpath.Path, f *rustsrc.File, body *rustsrc.Module, decl *rustsrc.ModItem, origin string) error {
	if _, dup := b.reg.nodes[path.Key()]; dup {
		return &LibraryLoadError{Module: path, Origin: origin, Err: ErrDuplicateModule}
	}
	node := &ModuleNode{Path: path, Origin: origin, File: f, Body: body}
	if decl != nil {
		node.Visibility = decl.Visibility
		node.Attrs = decl.Attrs
	}
	b.reg.nodes[path.Key()] = node

	for _, mod := range body.Mods() {
		if mod.TestOnly {
			continue
		}
		node.Children = append(node.Children, mod.Name)
		child := path.Join(mod.Name)
		if mod.Body != nil {
			if err := b.walk(child, f, mod.Body, mod, origin); err != nil {
				return err
			}
			continue
		}
		src, ok := b.files[child.Key()]
		if !ok {
			return &LibraryLoadError{Module: child, Origin: origin, Err: ErrModuleFileMissing}
		}
		cf, err := b.cache.Parse(src.Origin, src.Text)
		if err != nil {
			return &LibraryLoadError{Module: child, Origin: src.Origin, Err: err}
		}
		if err := b.walk(child, cf, cf.Module, mod, src.Origin); err != nil {
			return err
		}
	}
	slices.Sort(node.Children)
	return nil
}

// link derives the absolute imports and re-exports of node. It runs after
// every module is registered, because relative paths resolve against the
// complete tree.
func (b *builder) link(node *ModuleNode) {
	body := node.Body
	node.Defines = make(map[string]bool)
	for _, name := range body.Defines() {
		node.Defines[name] = true
	}
	node.Opaque = body.HasItemMacros()
	node.Locals = make(map[string]modpath.Path)
	node.Reexports = make(map[string]Reexport)

	for _, it := range body.Items {
		if m, ok := it.(*rustsrc.MacroRulesItem); ok && m.Exported {
			b.reg.macros[node.Crate()+modpath.Separator+m.Name] = node.Path
		}
	}

	// Bind local names first so later paths can be spelled through them.
	bind := func(entries []rustsrc.UseEntry) {
		for _, e := range entries {
			name := e.BoundName()
			if name == "" {
				continue
			}
			if abs, ok := b.absolute(node, e.Path); ok {
				node.Locals[name] = abs
			}
		}
	}
	bind(body.Imports())
	bind(body.Reexports())

	seen := make(map[string]int)
	add := func(imp Import) {
		if i, dup := seen[imp.Path.Key()]; dup {
			node.Imports[i].Glob = node.Imports[i].Glob || imp.Glob
			return
		}
		seen[imp.Path.Key()] = len(node.Imports)
		node.Imports = append(node.Imports, imp)
	}

	for _, e := range body.Imports() {
		if abs, ok := b.absolute(node, e.Path); ok {
			add(Import{Path: abs, Pos: e.Pos, Glob: e.Glob})
		}
	}
	for _, ref := range body.Paths {
		if abs, ok := b.absolute(node, ref.Segments); ok {
			add(Import{Path: abs, Pos: ref.Pos, Tentative: ref.InMacro})
		}
	}

	for _, e := range body.Reexports() {
		abs, ok := b.absolute(node, e.Path)
		re := Reexport{Name: e.BoundName(), Target: abs, Entry: e, External: !ok}
		if !ok {
			re.Target = modpath.New(e.Path...)
		}
		switch {
		case e.Glob:
			node.Wildcards = append(node.Wildcards, re)
		case re.Name == "":
			// "pub use path as _" brings a trait into scope without a name.
			if ok {
				add(Import{Path: abs, Pos: e.Pos})
			}
		default:
			node.Reexports[re.Name] = re
		}
	}
	slices.SortFunc(node.Wildcards, func(a, b Reexport) int { return modpath.Compare(a.Target, b.Target) })
}

// absolute resolves a path as spelled inside node to an absolute library
// path. ok is false for paths outside the library (std, external crates,
// generic parameters).
func (b *builder) absolute(node *ModuleNode, segs []string) (modpath.Path, bool) {
	if len(segs) == 0 {
		return nil, false
	}
	first, rest := segs[0], segs[1:]
	switch first {
	case "crate":
		return modpath.New(node.Crate()).Join(rest...), true
	case "self":
		return node.Path.Join(rest...), true
	case "super":
		p := node.Path
		i := 0
		for ; i < len(segs) && segs[i] == "super"; i++ {
			parent, ok := p.Parent()
			if !ok {
				return nil, false
			}
			p = parent
		}
		return p.Join(segs[i:]...), true
	}
	if node.Defines[first] {
		return node.Path.Join(segs...), true
	}
	if local, ok := node.Locals[first]; ok {
		return local.Join(rest...), true
	}
	if b.reg.IsLibrary(first) {
		return modpath.New(segs...), true
	}
	return nil, false
}
