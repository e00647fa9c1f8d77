// SPDX-License-Identifier: MPL-2.0

// Package resolve computes the usage closure of an entry file: the minimal
// set of library modules whose text must be bundled so every collected
// reference, and every import of every bundled module, still resolves.
package resolve

import (
	"errors"
	"maps"
	"slices"

	"github.com/algorist/algorist/internal/collect"
	"github.com/algorist/algorist/internal/registry"
	"github.com/algorist/algorist/pkg/modpath"
)

// maxChain bounds the length of a forwarding chain.
const maxChain = 64

type (
	// Index is the read-only view of the library the resolver needs.
	// *registry.Registry satisfies it.
	Index interface {
		Lookup(p modpath.Path) (*registry.ModuleNode, bool)
		ExportedMacro(crate, name string) (modpath.Path, bool)
	}

	// hop is one forwarding entry traversed while tracing a path.
	hop struct {
		module   modpath.Path
		name     string
		wildcard modpath.Path
		macro    string
	}

	// trace is the side-effect-free outcome of following one path. target
	// is set when the path names a module.
	trace struct {
		modules []modpath.Path
		hops    []hop
		target  modpath.Path
	}

	edge int

	resolver struct {
		idx Index
	}
)

const (
	edgeDirect edge = iota
	edgeReexport
	edgeWildcard
)

// Resolve seeds the closure with refs and expands it breadth-first until
// every required module's imports have been resolved.
func Resolve(idx Index, refs []collect.Reference) (*Closure, error) {
	r := &resolver{idx: idx}
	c := newClosure()
	var queue []modpath.Path

	commit := func(t *trace) {
		for _, m := range t.modules {
			if c.required.Add(m) {
				c.order = append(c.order, m)
				queue = append(queue, m)
			}
		}
		for _, h := range t.hops {
			c.markHop(h)
		}
	}

	for _, ref := range refs {
		key := refKey(ref.Path, ref.Glob)
		if c.resolved[key] {
			continue
		}
		t, err := r.follow(ref.Path, ref.Glob)
		if err != nil {
			return nil, located(err, ref.Path, ref.Spelling, ref, nil)
		}
		c.resolved[key] = true
		commit(t)
	}

	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		if c.expanded[m.Key()] {
			continue
		}
		c.expanded[m.Key()] = true

		node, ok := idx.Lookup(m)
		if !ok {
			continue
		}
		for _, imp := range node.Imports {
			key := refKey(imp.Path, imp.Glob)
			if c.resolved[key] {
				continue
			}
			t, err := r.follow(imp.Path, imp.Glob)
			if err != nil {
				var nf *notFoundError
				if imp.Tentative && errors.As(err, &nf) {
					continue
				}
				return nil, located(err, imp.Path, "", collect.Reference{Pos: imp.Pos}, m)
			}
			c.resolved[key] = true
			commit(t)
		}
	}
	return c, nil
}

// refKey tells a glob import of a path apart from a plain reference to it.
func refKey(p modpath.Path, glob bool) string {
	if glob {
		return p.Key() + modpath.Separator + "*"
	}
	return p.Key()
}

// follow traces p. Names brought in by a glob import of a module are spelled
// unqualified, so everything the module forwards is traced as well.
func (r *resolver) follow(p modpath.Path, glob bool) (*trace, error) {
	t, err := r.trace(p, nil, edgeDirect)
	if err != nil || !glob || t.target == nil {
		return t, err
	}
	fwd, err := r.forwards(t.target, modpath.NewSet())
	if err != nil {
		return nil, err
	}
	return t.merge(fwd), nil
}

// forwards traces every name m re-exports and descends into the modules its
// internal glob re-exports point at. seen stops glob cycles.
func (r *resolver) forwards(m modpath.Path, seen *modpath.Set) (*trace, error) {
	out := &trace{}
	node, ok := r.idx.Lookup(m)
	if !ok || !seen.Add(m) {
		return out, nil
	}
	for _, name := range slices.Sorted(maps.Keys(node.Reexports)) {
		sub, err := r.trace(m.Join(name), nil, edgeDirect)
		if err != nil {
			return nil, err
		}
		out = out.merge(sub)
	}
	for _, wc := range node.Wildcards {
		out.hops = append(out.hops, hop{module: m, wildcard: wc.Target})
		if wc.External {
			continue
		}
		sub, err := r.trace(wc.Target, nil, edgeDirect)
		if err != nil {
			return nil, err
		}
		out = out.merge(sub)
		if sub.target == nil {
			continue
		}
		nested, err := r.forwards(sub.target, seen)
		if err != nil {
			return nil, err
		}
		out = out.merge(nested)
	}
	return out, nil
}

// located attaches the reference location to a failed trace.
func located(err error, p modpath.Path, spelling string, ref collect.Reference, from modpath.Path) error {
	var nf *notFoundError
	if errors.As(err, &nf) {
		return &UnresolvedReferenceError{
			Path:     p,
			Spelling: spelling,
			Pos:      ref.Pos,
			From:     from,
			Missing:  nf.path,
		}
	}
	return err
}

// trace follows p to the module that defines it. chain holds the paths
// already visited on the current forwarding chain.
func (r *resolver) trace(p modpath.Path, chain []modpath.Path, via edge) (*trace, error) {
	if idx := slices.IndexFunc(chain, p.Equal); idx >= 0 {
		if via == edgeWildcard {
			return nil, &notFoundError{path: p}
		}
		return nil, &CyclicReexportError{Chain: append(slices.Clone(chain[idx:]), p)}
	}
	if len(chain) >= maxChain {
		return nil, &CyclicReexportError{Chain: append(slices.Clone(chain), p)}
	}

	if _, ok := r.idx.Lookup(p); ok {
		return r.traceModule(p, chain)
	}

	home := r.home(p)
	if home == nil {
		return nil, &notFoundError{path: p}
	}
	name := p[home.Path.Len()]
	rest := p[home.Path.Len()+1:]
	here := &trace{modules: []modpath.Path{home.Path}}
	next := append(slices.Clone(chain), p)

	if re, ok := home.Reexports[name]; ok {
		here.hops = append(here.hops, hop{module: home.Path, name: name})
		if re.External {
			return here, nil
		}
		sub, err := r.trace(re.Target.Join(rest...), next, edgeReexport)
		if err != nil {
			return nil, err
		}
		return here.merge(sub), nil
	}

	if home.Defines[name] {
		return here, nil
	}

	if home.IsRoot() {
		if def, ok := r.idx.ExportedMacro(home.Crate(), name); ok {
			return &trace{
				modules: []modpath.Path{def},
				hops:    []hop{{module: home.Path, macro: name}},
			}, nil
		}
	}

	var external *registry.Reexport
	for i, wc := range home.Wildcards {
		if wc.External {
			if external == nil {
				external = &home.Wildcards[i]
			}
			continue
		}
		sub, err := r.trace(wc.Target.Join(name).Join(rest...), next, edgeWildcard)
		var nf *notFoundError
		switch {
		case errors.As(err, &nf):
			continue
		case err != nil:
			return nil, err
		}
		here.hops = append(here.hops, hop{module: home.Path, wildcard: wc.Target})
		return here.merge(sub), nil
	}
	if external != nil {
		here.hops = append(here.hops, hop{module: home.Path, wildcard: external.Target})
		return here, nil
	}

	if home.Opaque {
		return here, nil
	}
	return nil, &notFoundError{path: p}
}

// traceModule requires the module at p. When the parent also re-exports a
// value under the same name ("mod gcd; pub use gcd::gcd;"), the spelling is
// ambiguous between the two namespaces and both are kept.
func (r *resolver) traceModule(p modpath.Path, chain []modpath.Path) (*trace, error) {
	here := &trace{modules: []modpath.Path{p}, target: p}
	parentPath, ok := p.Parent()
	if !ok {
		return here, nil
	}
	parent, ok := r.idx.Lookup(parentPath)
	if !ok {
		return here, nil
	}
	re, ok := parent.Reexports[p.Last()]
	if !ok {
		return here, nil
	}
	fwd := &trace{
		modules: []modpath.Path{parent.Path},
		hops:    []hop{{module: parent.Path, name: p.Last()}},
	}
	if !re.External && !re.Target.Equal(p) {
		sub, err := r.trace(re.Target, append(slices.Clone(chain), p), edgeReexport)
		if err != nil {
			return nil, err
		}
		fwd = fwd.merge(sub)
	}
	return here.merge(fwd), nil
}

// home returns the registered module with the longest proper prefix of p.
func (r *resolver) home(p modpath.Path) *registry.ModuleNode {
	for n := p.Len() - 1; n >= 1; n-- {
		if node, ok := r.idx.Lookup(p.Prefix(n)); ok {
			return node
		}
	}
	return nil
}

// merge appends sub to t. The target of t wins when both name one.
func (t *trace) merge(sub *trace) *trace {
	target := t.target
	if target == nil {
		target = sub.target
	}
	return &trace{
		modules: append(slices.Clone(t.modules), sub.modules...),
		hops:    append(slices.Clone(t.hops), sub.hops...),
		target:  target,
	}
}
