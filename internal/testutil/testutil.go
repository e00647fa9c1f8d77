// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// MustChdir changes the current working directory to dir.
// It returns a cleanup function that restores the original directory.
// The test fails immediately if the directory change fails.
func MustChdir(t testing.TB, dir string) func() {
	t.Helper()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get current directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change directory to %s: %v", dir, err)
	}
	return func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Errorf("failed to restore directory to %s: %v", originalWd, err)
		}
	}
}

// MustSetenv sets the environment variable key to value.
// It returns a cleanup function that restores the original value (or unsets it).
func MustSetenv(t testing.TB, key, value string) func() {
	t.Helper()
	originalValue, hadValue := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	return func() {
		if hadValue {
			if err := os.Setenv(key, originalValue); err != nil {
				t.Errorf("failed to restore env %s: %v", key, err)
			}
		} else {
			if err := os.Unsetenv(key); err != nil {
				t.Errorf("failed to unset env %s: %v", key, err)
			}
		}
	}
}

// MustMkdirAll creates a directory along with any necessary parents.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// MustReadFile returns the content of path as a string.
func MustReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// WriteFiles creates every file in files under root, keyed by
// slash-separated relative path, along with its parent directories.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		MustMkdirAll(t, filepath.Dir(path), 0o755)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
}

// ContestProject lays out a small contest project in a fresh temporary
// directory and returns its root. The vendored "algorist" crate has io,
// math (with primes, gcd and a glob re-export of modint) and collections
// (bitset, dsu) modules; problem "a" reads input, problem "b" sieves
// primes. extra files are written last and may replace defaults.
func ContestProject(t testing.TB, extra map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"Cargo.toml": "[package]\nname = \"contest\"\nversion = \"0.1.0\"\nedition = \"2021\"\n\n[dependencies]\nalgorist = { path = \"crates/algorist\" }\n",
		"src/bin/a.rs": "use algorist::io::Scanner;\n\nfn main() {\n    let mut sc = Scanner::new();\n    let n: u64 = sc.next();\n    println!(\"{}\", n);\n}\n",
		"src/bin/b.rs": "use algorist::math::primes::sieve;\n\nfn main() {\n    let s = sieve(100);\n    println!(\"{}\", s.count());\n}\n",
		"crates/algorist/Cargo.toml": "[package]\nname = \"algorist\"\nversion = \"0.1.0\"\nedition = \"2021\"\n",
		"crates/algorist/src/lib.rs": "pub mod collections;\npub mod io;\npub mod math;\n",
		"crates/algorist/src/io.rs": "pub struct Scanner;\n\nimpl Scanner {\n    pub fn new() -> Self {\n        Scanner\n    }\n\n    pub fn next<T: Default>(&mut self) -> T {\n        T::default()\n    }\n}\n",
		"crates/algorist/src/math/mod.rs": "pub mod gcd;\npub mod modint;\npub mod primes;\n\npub use self::gcd::gcd;\npub use self::modint::*;\n",
		"crates/algorist/src/math/gcd.rs": "pub fn gcd(a: u64, b: u64) -> u64 {\n    if b == 0 { a } else { gcd(b, a % b) }\n}\n",
		"crates/algorist/src/math/modint.rs": "pub struct ModInt(pub u64);\n",
		"crates/algorist/src/math/primes.rs": "use crate::collections::bitset::BitSet;\n\npub fn sieve(n: usize) -> BitSet {\n    BitSet::new(n)\n}\n\n#[cfg(test)]\nmod tests {\n    #[test]\n    fn sieve_small() {}\n}\n",
		"crates/algorist/src/collections/mod.rs": "pub mod bitset;\npub mod dsu;\n",
		"crates/algorist/src/collections/bitset.rs": "pub struct BitSet(Vec<u64>);\n\nimpl BitSet {\n    pub fn new(n: usize) -> Self {\n        BitSet(vec![0; (n + 63) / 64])\n    }\n\n    pub fn count(&self) -> u32 {\n        self.0.iter().map(|w| w.count_ones()).sum()\n    }\n}\n",
		"crates/algorist/src/collections/dsu.rs": "pub struct Dsu(Vec<usize>);\n",
	}
	for k, v := range extra {
		files[k] = v
	}
	WriteFiles(t, root, files)
	return root
}
