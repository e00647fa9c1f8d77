// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/algorist/algorist/internal/collect"
	"github.com/algorist/algorist/internal/registry"
	"github.com/algorist/algorist/pkg/modpath"
	"github.com/algorist/algorist/pkg/rustsrc"
)

func library() map[string]string {
	return map[string]string{
		"lib": "pub mod io;\npub mod math;\npub mod collections;\npub mod prelude;\n",
		"lib::io": "pub struct Scanner;\nimpl Scanner { pub fn new() -> Self { Scanner } }\n",
		"lib::math": `
pub mod primes;
pub mod gcd;
pub mod modint;
pub use self::gcd::gcd;
pub use self::modint::*;
`,
		"lib::math::gcd":    "pub fn gcd(a: u64, b: u64) -> u64 { if b == 0 { a } else { gcd(b, a % b) } }\n",
		"lib::math::modint": "pub struct ModInt(u64);\npub fn inverse(x: u64) -> u64 { x }\n",
		"lib::math::primes": `
use crate::collections::bitset::BitSet;
pub fn sieve(n: usize) -> BitSet { BitSet::new(n) }
`,
		"lib::collections":         "pub mod bitset;\npub mod dsu;\n",
		"lib::collections::bitset": "pub struct BitSet(Vec<u64>);\nimpl BitSet { pub fn new(n: usize) -> Self { BitSet(vec![0; n]) } }\n",
		"lib::collections::dsu":    "pub struct Dsu;\n",
		"lib::prelude":             "pub use crate::io::Scanner;\npub use crate::collections::*;\n",
	}
}

func resolveEntry(t *testing.T, texts map[string]string, entry string) (*Closure, error) {
	t.Helper()
	reg, err := registry.Build(registry.Sources(texts))
	if err != nil {
		t.Fatalf("registry.Build() error: %v", err)
	}
	f, err := rustsrc.Parse("main.rs", []byte(entry))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return Resolve(reg, collect.Collect(f, reg))
}

func mustResolve(t *testing.T, texts map[string]string, entry string) *Closure {
	t.Helper()
	c, err := resolveEntry(t, texts, entry)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	return c
}

func requiredStrings(c *Closure) []string {
	var out []string
	for _, p := range c.Required() {
		out = append(out, p.String())
	}
	return out
}

func TestResolveRequiredSets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry string
		want  []string
	}{
		{
			name:  "leaf module only",
			entry: "use lib::io::Scanner;\nfn main() { let _ = Scanner::new(); }\n",
			want:  []string{"lib::io"},
		},
		{
			name:  "transitive import",
			entry: "fn main() { let _ = lib::math::primes::sieve(100); }\n",
			want:  []string{"lib::collections::bitset", "lib::math::primes"},
		},
		{
			name:  "explicit re-export keeps forwarder and definition",
			entry: "fn main() { lib::math::gcd(4, 6); }\n",
			want:  []string{"lib::math", "lib::math::gcd"},
		},
		{
			name:  "wildcard forwards only demanded names",
			entry: "fn main() { lib::math::inverse(3); }\n",
			want:  []string{"lib::math", "lib::math::modint"},
		},
		{
			name:  "glob import of a module requires that module",
			entry: "use lib::collections::dsu::*;\nfn main() {}\n",
			want:  []string{"lib::collections::dsu"},
		},
		{
			name:  "chained forwarding through prelude",
			entry: "use lib::prelude::bitset::BitSet;\nfn main() {}\n",
			want:  []string{"lib::collections::bitset", "lib::prelude"},
		},
		{
			name:  "no library references",
			entry: "fn main() { println!(\"hi\"); }\n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := mustResolve(t, library(), tt.entry)
			if diff := cmp.Diff(tt.want, requiredStrings(c)); diff != "" {
				t.Errorf("Required() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveMarksTraversedForwarders(t *testing.T) {
	t.Parallel()

	c := mustResolve(t, library(), "fn main() { lib::math::inverse(3); }\n")
	math := modpath.Parse("lib::math")
	if c.UsedReexport(math, "gcd") {
		t.Error("gcd re-export was not demanded")
	}
	if !c.UsedWildcard(math, modpath.Parse("lib::math::modint")) {
		t.Error("modint wildcard should be marked used")
	}
}

func TestResolveGlobImportKeepsForwards(t *testing.T) {
	t.Parallel()

	prelude := modpath.Parse("lib::prelude")
	math := modpath.Parse("lib::math")
	texts := library()
	texts["lib"] = "pub mod io;\npub mod math;\npub mod collections;\npub mod prelude;\npub mod algo;\n"
	texts["lib::algo"] = "use crate::math::*;\n\npub fn lcm(a: u64, b: u64) -> u64 { a / gcd(a, b) * b }\n"

	tests := []struct {
		name     string
		entry    string
		want     []string
		module   modpath.Path
		reexport string
	}{
		{
			name:     "entry glob of a forwarding module",
			entry:    "use lib::prelude::*;\nfn main() { let _s = Scanner::new(); }\n",
			want:     []string{"lib::collections", "lib::io", "lib::prelude"},
			module:   prelude,
			reexport: "Scanner",
		},
		{
			name:  "library glob of a forwarding module",
			entry: "fn main() { lib::algo::lcm(4, 6); }\n",
			want: []string{
				"lib::algo", "lib::math", "lib::math::gcd", "lib::math::modint",
			},
			module:   math,
			reexport: "gcd",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := mustResolve(t, texts, tt.entry)
			if diff := cmp.Diff(tt.want, requiredStrings(c)); diff != "" {
				t.Errorf("Required() mismatch (-want +got):\n%s", diff)
			}
			if !c.UsedReexport(tt.module, tt.reexport) {
				t.Errorf("re-export %s of %s not marked used", tt.reexport, tt.module)
			}
		})
	}

	c := mustResolve(t, texts, "use lib::prelude::*;\nfn main() {}\n")
	if !c.UsedWildcard(prelude, modpath.Parse("lib::collections")) {
		t.Error("prelude's glob re-export of collections not marked used")
	}
}

func TestResolveCyclicReexport(t *testing.T) {
	t.Parallel()

	texts := map[string]string{
		"lib":    "pub mod a;\npub mod b;\n",
		"lib::a": "pub use crate::b::n;\n",
		"lib::b": "pub use crate::a::n;\n",
	}
	_, err := resolveEntry(t, texts, "fn main() { lib::a::n(); }\n")
	if !errors.Is(err, ErrCyclicReexport) {
		t.Fatalf("error = %v, want ErrCyclicReexport", err)
	}
	var ce *CyclicReexportError
	if !errors.As(err, &ce) {
		t.Fatalf("error %T is not *CyclicReexportError", err)
	}
	var chain []string
	for _, p := range ce.Chain {
		chain = append(chain, p.String())
	}
	if diff := cmp.Diff([]string{"lib::a::n", "lib::b::n", "lib::a::n"}, chain); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveGlobCycleIsNotAnError(t *testing.T) {
	t.Parallel()

	texts := map[string]string{
		"lib":    "pub mod a;\npub mod b;\n",
		"lib::a": "pub use crate::b::*;\npub fn here() {}\n",
		"lib::b": "pub use crate::a::*;\n",
	}
	c := mustResolve(t, texts, "fn main() { lib::b::here(); }\n")
	if diff := cmp.Diff([]string{"lib::a", "lib::b"}, requiredStrings(c)); diff != "" {
		t.Errorf("Required() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveUnresolvedReference(t *testing.T) {
	t.Parallel()

	_, err := resolveEntry(t, library(), "fn main() {\n    lib::nonexistent::thing();\n}\n")
	if !errors.Is(err, ErrUnresolvedReference) {
		t.Fatalf("error = %v, want ErrUnresolvedReference", err)
	}
	var ue *UnresolvedReferenceError
	if !errors.As(err, &ue) {
		t.Fatalf("error %T is not *UnresolvedReferenceError", err)
	}
	if ue.Path.String() != "lib::nonexistent::thing" {
		t.Errorf("Path = %s, want lib::nonexistent::thing", ue.Path)
	}
	if ue.Pos.Line != 2 || ue.From != nil {
		t.Errorf("location = line %d from %v, want line 2 from entry", ue.Pos.Line, ue.From)
	}
}

func TestResolveUnresolvedLibraryImport(t *testing.T) {
	t.Parallel()

	texts := map[string]string{
		"lib":    "pub mod a;\n",
		"lib::a": "use crate::missing::Thing;\npub fn f() {}\n",
	}
	_, err := resolveEntry(t, texts, "fn main() { lib::a::f(); }\n")
	var ue *UnresolvedReferenceError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want *UnresolvedReferenceError", err)
	}
	if ue.From.String() != "lib::a" || ue.Path.String() != "lib::missing::Thing" {
		t.Errorf("unexpected error detail: %v", ue)
	}
}

func TestResolveSelfReferenceAndExportedMacro(t *testing.T) {
	t.Parallel()

	texts := map[string]string{
		"lib": "pub mod io;\n",
		"lib::io": `
#[macro_export]
macro_rules! read {
    ($sc:expr) => { $crate::io::Scanner::next(&mut $sc) };
}
pub struct Scanner;
impl Scanner {
    pub fn next(&mut self) -> u64 { self::Scanner::zero() }
    fn zero() -> u64 { 0 }
}
`,
	}
	c := mustResolve(t, texts, "fn main() { let x = lib::read!(sc); }\n")
	if diff := cmp.Diff([]string{"lib::io"}, requiredStrings(c)); diff != "" {
		t.Errorf("Required() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"read"}, c.UsedMacros("lib")); diff != "" {
		t.Errorf("UsedMacros() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveIsOrderIndependent(t *testing.T) {
	t.Parallel()

	a := mustResolve(t, library(), "fn main() { lib::math::gcd(1, 2); lib::math::primes::sieve(3); }\n")
	b := mustResolve(t, library(), "fn main() { lib::math::primes::sieve(3); lib::math::gcd(1, 2); }\n")
	if diff := cmp.Diff(requiredStrings(a), requiredStrings(b)); diff != "" {
		t.Errorf("closure depends on reference order (-first +second):\n%s", diff)
	}
}
