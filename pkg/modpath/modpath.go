// SPDX-License-Identifier: MPL-2.0

// Package modpath defines Path, the key under which every library module is
// registered, resolved and emitted.
//
// A Path is an ordered list of name segments spelled with "::" separators
// (for example "algorist::math::primes"). Paths are totally ordered segment by
// segment, so a parent always sorts before its children and siblings sort
// lexically. All operations return fresh slices; a Path is never mutated in
// place once created.
package modpath

import (
	"slices"
	"strings"
)

// Separator joins path segments in the textual spelling.
const Separator = "::"

// Path is an ordered sequence of module name segments.
type Path []string

// Parse splits a "::"-separated spelling into a Path. Empty segments are
// dropped, so a leading "::" (global path) is accepted.
func Parse(s string) Path {
	parts := strings.Split(s, Separator)
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			p = append(p, part)
		}
	}
	return p
}

// New builds a Path from the given segments.
func New(segments ...string) Path {
	return slices.Clone(Path(segments))
}

// String returns the "::"-joined spelling. It doubles as the map key.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Key is an alias of String used where a map key is intended.
func (p Path) Key() string {
	return p.String()
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p)
}

// Root returns the first segment, or "" for an empty path.
func (p Path) Root() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Last returns the final segment, or "" for an empty path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path without its last segment. ok is false for paths
// with fewer than two segments.
func (p Path) Parent() (parent Path, ok bool) {
	if len(p) < 2 {
		return nil, false
	}
	return slices.Clone(p[:len(p)-1]), true
}

// Prefix returns a copy of the first n segments.
func (p Path) Prefix(n int) Path {
	if n > len(p) {
		n = len(p)
	}
	return slices.Clone(p[:n])
}

// Join returns a new path with segs appended.
func (p Path) Join(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// HasPrefix reports whether prefix is a (not necessarily proper) prefix of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return slices.Equal(p[:len(prefix)], prefix)
}

// Equal reports segment-wise equality.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p, other)
}

// Compare orders paths segment by segment. A strict prefix sorts first.
func Compare(a, b Path) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// Sort orders paths in place using Compare.
func Sort(paths []Path) {
	slices.SortFunc(paths, Compare)
}

// Set is an insertion-tracking set of paths keyed by their spelling.
type Set struct {
	items map[string]Path
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{items: make(map[string]Path)}
}

// Add inserts p and reports whether it was not already present.
func (s *Set) Add(p Path) bool {
	key := p.Key()
	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = slices.Clone(p)
	return true
}

// Has reports membership.
func (s *Set) Has(p Path) bool {
	_, ok := s.items[p.Key()]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.items)
}

// Sorted returns the members in Compare order.
func (s *Set) Sorted() []Path {
	out := make([]Path, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, p)
	}
	Sort(out)
	return out
}
