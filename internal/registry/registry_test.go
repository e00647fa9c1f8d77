// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/algorist/algorist/pkg/modpath"
	"github.com/algorist/algorist/pkg/rustsrc"
)

func testLibrary() map[string]string {
	return map[string]string{
		"algorist": `
pub mod io;
pub mod math;
pub mod collections;

#[cfg(test)]
mod tests;
`,
		"algorist::io": `
#[macro_export]
macro_rules! input {
    ($sc:expr, $t:ty) => { $sc.next::<$t>() };
}

pub struct Scanner;

impl Scanner {
    pub fn new() -> Self { Scanner }
}
`,
		"algorist::math": `
pub mod primes;

pub mod gcd {
    pub fn gcd(a: u64, b: u64) -> u64 { if b == 0 { a } else { gcd(b, a % b) } }
}

pub use self::gcd::gcd;
pub use std::cmp::max;
pub use primes::*;
`,
		"algorist::math::primes": `
use crate::collections::bitset::BitSet;

pub fn sieve(n: usize) -> BitSet {
    BitSet::new(n)
}
`,
		"algorist::collections": "pub mod bitset;\n",
		"algorist::collections::bitset": `
pub struct BitSet(Vec<u64>);

impl BitSet {
    pub fn new(n: usize) -> Self { BitSet(vec![0; n]) }
}
`,
	}
}

func mustBuild(t *testing.T, texts map[string]string, opts ...Option) *Registry {
	t.Helper()
	reg, err := Build(Sources(texts), opts...)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return reg
}

func importPaths(imports []Import) []string {
	out := make([]string, len(imports))
	for i, imp := range imports {
		out[i] = imp.Path.String()
	}
	return out
}

func TestBuildRegistersModuleTree(t *testing.T) {
	t.Parallel()

	reg := mustBuild(t, testLibrary())

	var got []string
	for _, n := range reg.Modules() {
		got = append(got, n.Path.String())
	}
	want := []string{
		"algorist",
		"algorist::collections",
		"algorist::collections::bitset",
		"algorist::io",
		"algorist::math",
		"algorist::math::gcd",
		"algorist::math::primes",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Modules() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"algorist"}, reg.Crates()); diff != "" {
		t.Errorf("Crates() mismatch (-want +got):\n%s", diff)
	}
	if !reg.IsLibrary("algorist") || reg.IsLibrary("std") {
		t.Error("IsLibrary returned wrong result")
	}

	gcd, ok := reg.Lookup(modpath.Parse("algorist::math::gcd"))
	if !ok {
		t.Fatal("inline module not registered")
	}
	if gcd.Visibility != "pub" || gcd.Origin != "algorist::math" {
		t.Errorf("inline module = {vis %q origin %q}", gcd.Visibility, gcd.Origin)
	}
}

func TestBuildLinksImportsAndReexports(t *testing.T) {
	t.Parallel()

	reg := mustBuild(t, testLibrary())

	primes, _ := reg.Lookup(modpath.Parse("algorist::math::primes"))
	wantImports := []string{
		"algorist::collections::bitset::BitSet",
		"algorist::collections::bitset::BitSet::new",
	}
	if diff := cmp.Diff(wantImports, importPaths(primes.Imports)); diff != "" {
		t.Errorf("primes imports mismatch (-want +got):\n%s", diff)
	}

	math, _ := reg.Lookup(modpath.Parse("algorist::math"))
	gcd, ok := math.Reexports["gcd"]
	if !ok || gcd.Target.String() != "algorist::math::gcd::gcd" || gcd.External {
		t.Errorf("gcd re-export = %+v", gcd)
	}
	ext, ok := math.Reexports["max"]
	if !ok || !ext.External {
		t.Errorf("std re-export should be external: %+v", ext)
	}
	if len(math.Wildcards) != 1 || math.Wildcards[0].Target.String() != "algorist::math::primes" {
		t.Errorf("wildcards = %+v", math.Wildcards)
	}
	if diff := cmp.Diff([]string{"gcd", "primes"}, math.Children); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}

	home, ok := reg.ExportedMacro("algorist", "input")
	if !ok || home.String() != "algorist::io" {
		t.Errorf("ExportedMacro(input) = %v, %v", home, ok)
	}
}

func TestBuildRelativePaths(t *testing.T) {
	t.Parallel()

	reg := mustBuild(t, map[string]string{
		"lib": "pub mod a;\npub mod b;\n",
		"lib::a": `
pub mod inner {
    use super::super::b::Thing;
    pub fn f() -> Thing { self::helper(); super::top(); Thing }
    fn helper() {}
}
pub fn top() {}
`,
		"lib::b": "pub struct Thing;\n",
	})

	inner, _ := reg.Lookup(modpath.Parse("lib::a::inner"))
	want := []string{"lib::b::Thing", "lib::a::inner::helper", "lib::a::top"}
	if diff := cmp.Diff(want, importPaths(inner.Imports)); diff != "" {
		t.Errorf("inner imports mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMarksGlobImports(t *testing.T) {
	t.Parallel()

	reg := mustBuild(t, map[string]string{
		"lib":    "pub mod a;\npub mod b;\n",
		"lib::a": "use crate::b::*;\nuse crate::b::Thing;\npub fn f() { crate::b::g(); }\n",
		"lib::b": "pub struct Thing;\npub fn g() {}\n",
	})
	a, _ := reg.Lookup(modpath.Parse("lib::a"))
	got := make(map[string]bool)
	for _, imp := range a.Imports {
		got[imp.Path.String()] = imp.Glob
	}
	want := map[string]bool{"lib::b": true, "lib::b::Thing": false, "lib::b::g": false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Glob flags mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing module file", func(t *testing.T) {
		t.Parallel()
		_, err := Build(Sources(map[string]string{"lib": "pub mod gone;\n"}))
		var le *LibraryLoadError
		if !errors.As(err, &le) {
			t.Fatalf("error %v is not *LibraryLoadError", err)
		}
		if le.Module.String() != "lib::gone" || !errors.Is(err, ErrModuleFileMissing) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("syntax error names module", func(t *testing.T) {
		t.Parallel()
		_, err := Build(Sources(map[string]string{
			"lib":        "pub mod broken;\n",
			"lib::broken": "pub fn f( {\n",
		}))
		if !errors.Is(err, ErrLibraryLoad) || !errors.Is(err, rustsrc.ErrSyntax) {
			t.Fatalf("error %v should wrap ErrLibraryLoad and ErrSyntax", err)
		}
		var le *LibraryLoadError
		if errors.As(err, &le) && le.Module.String() != "lib::broken" {
			t.Errorf("Module = %s, want lib::broken", le.Module)
		}
	})
}

func TestBuildOpaqueModule(t *testing.T) {
	t.Parallel()

	reg := mustBuild(t, map[string]string{
		"lib": "macro_rules! gen { () => { pub fn made() {} } }\ngen!();\n",
	})
	root, _ := reg.Lookup(modpath.Parse("lib"))
	if !root.Opaque {
		t.Error("module with item-level macro call should be opaque")
	}
}

func TestParseCacheReuse(t *testing.T) {
	t.Parallel()

	cache, err := NewParseCache(16)
	if err != nil {
		t.Fatalf("NewParseCache() error: %v", err)
	}

	first := mustBuild(t, testLibrary(), WithParseCache(cache))
	if got := cache.Len(); got != 6 {
		t.Fatalf("cache.Len() = %d, want 6", got)
	}
	second := mustBuild(t, testLibrary(), WithParseCache(cache))
	if got := cache.Len(); got != 6 {
		t.Errorf("cache.Len() after rebuild = %d, want 6", got)
	}

	a, _ := first.Lookup(modpath.Parse("algorist::io"))
	b, _ := second.Lookup(modpath.Parse("algorist::io"))
	if a.File != b.File {
		t.Error("rebuild should reuse the cached parse")
	}
}
