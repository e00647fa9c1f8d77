// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/algorist/algorist/internal/registry"
	"github.com/algorist/algorist/internal/resolve"
	"github.com/algorist/algorist/pkg/rustsrc"
)

func library() []registry.SourceFile {
	return registry.Sources(map[string]string{
		"lib":               "pub mod io;\npub mod math;\npub mod collections;\n",
		"lib::io":           "pub struct Scanner;\n",
		"lib::math":         "pub mod primes;\npub mod cyc;\n",
		"lib::math::primes": "use crate::collections::bitset::BitSet;\npub fn sieve(n: usize) -> BitSet { BitSet::new(n) }\n",
		"lib::math::cyc":    "pub use crate::collections::back::n;\n",
		"lib::collections":  "pub mod bitset;\npub mod back;\n",
		"lib::collections::bitset": "pub struct BitSet(Vec<u64>);\n" +
			"impl BitSet { pub fn new(n: usize) -> Self { BitSet(vec![0; n]) } }\n",
		"lib::collections::back": "pub use crate::math::cyc::n;\n",
	})
}

func paths(r *Result) []string {
	var out []string
	for _, p := range r.Required {
		out = append(out, p.String())
	}
	return out
}

func TestSourcesLeafOnly(t *testing.T) {
	t.Parallel()

	entry := "use lib::io::Scanner;\nfn main() {}\n"
	res, err := Sources("main.rs", []byte(entry), library(), Options{})
	if err != nil {
		t.Fatalf("Sources() error: %v", err)
	}
	if diff := cmp.Diff([]string{"lib::io"}, paths(res)); diff != "" {
		t.Errorf("Required mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasSuffix(res.Output, entry) {
		t.Errorf("entry code not kept verbatim:\n%s", res.Output)
	}
	if strings.Contains(res.Output, "BitSet") || strings.Contains(res.Output, "mod math") {
		t.Errorf("unreachable modules bundled:\n%s", res.Output)
	}
	if res.References != 1 {
		t.Errorf("References = %d, want 1", res.References)
	}
}

func TestSourcesTransitiveImport(t *testing.T) {
	t.Parallel()

	res, err := Sources("main.rs", []byte("fn main() { lib::math::primes::sieve(3); }\n"), library(), Options{})
	if err != nil {
		t.Fatalf("Sources() error: %v", err)
	}
	if diff := cmp.Diff([]string{"lib::collections::bitset", "lib::math::primes"}, paths(res)); diff != "" {
		t.Errorf("Required mismatch (-want +got):\n%s", diff)
	}
	var order []string
	for _, p := range res.Order {
		order = append(order, p.String())
	}
	if diff := cmp.Diff([]string{"lib::math::primes", "lib::collections::bitset"}, order); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}
	for _, s := range []string{"pub mod bitset {", "pub mod primes {", "use crate::lib::collections::bitset::BitSet;"} {
		if !strings.Contains(res.Output, s) {
			t.Errorf("output lacks %q:\n%s", s, res.Output)
		}
	}
}

func TestSourcesGlobImportKeepsForwards(t *testing.T) {
	t.Parallel()

	files := registry.Sources(map[string]string{
		"lib":            "pub mod algo;\npub mod io;\npub mod math;\npub mod prelude;\n",
		"lib::io":        "pub struct Scanner;\n",
		"lib::prelude":   "pub use crate::io::Scanner;\n",
		"lib::math":      "pub mod gcd;\npub use self::gcd::gcd;\n",
		"lib::math::gcd": "pub fn gcd(a: u64, b: u64) -> u64 { if b == 0 { a } else { gcd(b, a % b) } }\n",
		"lib::algo":      "use crate::math::*;\n\npub fn lcm(a: u64, b: u64) -> u64 { a / gcd(a, b) * b }\n",
	})
	tests := []struct {
		name  string
		entry string
		want  []string
	}{
		{
			name:  "entry glob",
			entry: "use lib::prelude::*;\nfn main() { let _s = Scanner; }\n",
			want:  []string{"pub use crate::lib::io::Scanner;", "pub struct Scanner;"},
		},
		{
			name:  "library glob",
			entry: "fn main() { lib::algo::lcm(4, 6); }\n",
			want:  []string{"use crate::lib::math::*;", "pub use self::gcd::gcd;", "pub fn gcd(a: u64, b: u64)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Sources("main.rs", []byte(tt.entry), files, Options{})
			if err != nil {
				t.Fatalf("Sources() error: %v", err)
			}
			for _, s := range tt.want {
				if !strings.Contains(res.Output, s) {
					t.Errorf("output lacks %q:\n%s", s, res.Output)
				}
			}
			for _, empty := range []string{"pub mod prelude {}", "pub mod math {}"} {
				if strings.Contains(res.Output, empty) {
					t.Errorf("forwarding module emitted empty (%s):\n%s", empty, res.Output)
				}
			}
		})
	}
}

func TestSourcesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry string
		files []registry.SourceFile
		is    error
	}{
		{"entry syntax", "fn main( {", library(), rustsrc.ErrSyntax},
		{"unresolved", "fn main() { lib::nonexistent::thing(); }\n", library(), resolve.ErrUnresolvedReference},
		{"cycle", "fn main() { lib::math::cyc::n(); }\n", library(), resolve.ErrCyclicReexport},
		{
			"library syntax",
			"fn main() {}\n",
			registry.Sources(map[string]string{"lib": "pub fn broken( {"}),
			registry.ErrLibraryLoad,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Sources("main.rs", []byte(tt.entry), tt.files, Options{})
			if !errors.Is(err, tt.is) {
				t.Fatalf("Sources() error = %v, want %v", err, tt.is)
			}
			if res != nil {
				t.Error("a failed bundle returned output")
			}
		})
	}
}

func TestBundleSharesRegistry(t *testing.T) {
	t.Parallel()

	reg, err := registry.Build(library())
	if err != nil {
		t.Fatal(err)
	}
	entry := []byte("fn main() { lib::math::primes::sieve(3); lib::io::Scanner; }\n")
	first, err := Bundle("main.rs", entry, reg, Options{Header: []string{"x"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(first.Output, "// x\n\n") {
		t.Errorf("header missing:\n%s", first.Output)
	}

	done := make(chan string, 8)
	for range 8 {
		go func() {
			res, err := Bundle("main.rs", entry, reg, Options{Header: []string{"x"}})
			if err != nil {
				done <- err.Error()
				return
			}
			done <- res.Output
		}()
	}
	for range 8 {
		if got := <-done; got != first.Output {
			t.Fatalf("concurrent bundle differs:\n%s", got)
		}
	}
}
