// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"slices"

	"github.com/algorist/algorist/pkg/modpath"
)

// Closure is the terminal usage closure. It is read-only once Resolve
// returns.
type Closure struct {
	required *modpath.Set
	resolved map[string]bool
	expanded map[string]bool
	order    []modpath.Path

	reexports map[string]bool
	wildcards map[string]bool
	macros    map[string][]string
}

func newClosure() *Closure {
	return &Closure{
		required:  modpath.NewSet(),
		resolved:  make(map[string]bool),
		expanded:  make(map[string]bool),
		reexports: make(map[string]bool),
		wildcards: make(map[string]bool),
		macros:    make(map[string][]string),
	}
}

func hopKey(module modpath.Path, suffix string) string {
	return module.Key() + "#" + suffix
}

func (c *Closure) markHop(h hop) {
	switch {
	case h.name != "":
		c.reexports[hopKey(h.module, h.name)] = true
	case h.wildcard != nil:
		c.wildcards[hopKey(h.module, h.wildcard.Key())] = true
	case h.macro != "":
		crate := h.module.Root()
		if !slices.Contains(c.macros[crate], h.macro) {
			c.macros[crate] = append(c.macros[crate], h.macro)
			slices.Sort(c.macros[crate])
		}
	}
}

// Required returns the usage tree: every module whose text must be bundled,
// in path order.
func (c *Closure) Required() []modpath.Path {
	return c.required.Sorted()
}

// IsRequired reports membership in the usage tree.
func (c *Closure) IsRequired(p modpath.Path) bool {
	return c.required.Has(p)
}

// Order returns required modules in the breadth-first order they were
// discovered. Useful for diagnostics only.
func (c *Closure) Order() []modpath.Path {
	return slices.Clone(c.order)
}

// UsedReexport reports whether the explicit re-export of name in module was
// traversed.
func (c *Closure) UsedReexport(module modpath.Path, name string) bool {
	return c.reexports[hopKey(module, name)]
}

// UsedWildcard reports whether module's glob re-export of target forwarded
// at least one referenced name.
func (c *Closure) UsedWildcard(module, target modpath.Path) bool {
	return c.wildcards[hopKey(module, target.Key())]
}

// UsedMacros returns the #[macro_export] macros referenced through the root
// of crate, sorted.
func (c *Closure) UsedMacros(crate string) []string {
	return slices.Clone(c.macros[crate])
}
