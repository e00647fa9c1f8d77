// SPDX-License-Identifier: MPL-2.0

// Package bundle turns a problem file and the library registry into a
// single self-contained Rust file.
//
// Bundle is the pure core: parse the entry, collect its library references,
// resolve the usage closure and emit. Service wraps it with the on-disk
// workflow of a contest project.
package bundle

import (
	"fmt"

	"github.com/algorist/algorist/internal/collect"
	"github.com/algorist/algorist/internal/emit"
	"github.com/algorist/algorist/internal/registry"
	"github.com/algorist/algorist/internal/resolve"
	"github.com/algorist/algorist/pkg/modpath"
	"github.com/algorist/algorist/pkg/rustsrc"
)

type (
	// Options tunes Bundle.
	Options struct {
		// Header lines are written as line comments at the top.
		Header []string
	}

	// Result is a successful bundle.
	Result struct {
		Output string
		// Required is the usage tree, in path order.
		Required []modpath.Path
		// Order lists the same modules in the order resolution reached them.
		Order []modpath.Path
		// References counts the distinct library references of the entry.
		References int
	}
)

// Bundle bundles entry against reg. reg is only read, so concurrent calls
// may share it.
func Bundle(name string, entry []byte, reg *registry.Registry, opts Options) (*Result, error) {
	f, err := rustsrc.Parse(name, entry)
	if err != nil {
		return nil, err
	}
	refs := collect.Collect(f, reg)
	closure, err := resolve.Resolve(reg, refs)
	if err != nil {
		return nil, err
	}
	out, err := emit.Emit(f, reg, closure, emit.Options{Header: opts.Header})
	if err != nil {
		return nil, fmt.Errorf("emitting %s: %w", name, err)
	}
	return &Result{
		Output:     out,
		Required:   closure.Required(),
		Order:      closure.Order(),
		References: len(refs),
	}, nil
}

// Sources builds a registry from files and bundles entry against it.
func Sources(name string, entry []byte, files []registry.SourceFile, opts Options) (*Result, error) {
	reg, err := registry.Build(files)
	if err != nil {
		return nil, err
	}
	return Bundle(name, entry, reg, opts)
}
