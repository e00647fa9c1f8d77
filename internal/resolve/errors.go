// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/algorist/algorist/pkg/modpath"
	"github.com/algorist/algorist/pkg/rustsrc"
)

var (
	// ErrUnresolvedReference is the sentinel wrapped by *UnresolvedReferenceError.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrCyclicReexport is the sentinel wrapped by *CyclicReexportError.
	ErrCyclicReexport = errors.New("cyclic re-export")
)

type (
	// UnresolvedReferenceError names a path no module defines or forwards.
	UnresolvedReferenceError struct {
		// Path is the reference as collected (absolute, aliases expanded).
		Path modpath.Path
		// Spelling is the path as written, when it came from the entry file.
		Spelling string
		Pos      rustsrc.Position
		// From is the library module whose import failed; nil when the
		// reference came from the entry file.
		From modpath.Path
		// Missing is the forwarded path that failed, when it differs from Path.
		Missing modpath.Path
	}

	// CyclicReexportError reports a forwarding chain that revisits a path.
	// Chain lists the forwarded paths in order, ending with the repeat.
	CyclicReexportError struct {
		Chain []modpath.Path
	}
)

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unresolved reference %s", e.Path)
	if e.Spelling != "" && e.Spelling != e.Path.String() {
		fmt.Fprintf(&b, " (written %s)", e.Spelling)
	}
	if e.From != nil {
		fmt.Fprintf(&b, " in module %s", e.From)
	}
	if e.Pos.Line > 0 {
		fmt.Fprintf(&b, " at %d:%d", e.Pos.Line, e.Pos.Column)
	}
	if e.Missing != nil && !e.Missing.Equal(e.Path) {
		fmt.Fprintf(&b, ": forwarded to %s, which does not exist", e.Missing)
	}
	return b.String()
}

// Unwrap returns ErrUnresolvedReference for errors.Is compatibility.
func (e *UnresolvedReferenceError) Unwrap() error { return ErrUnresolvedReference }

// Error implements the error interface.
func (e *CyclicReexportError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, p := range e.Chain {
		parts[i] = p.String()
	}
	return "cyclic re-export: " + strings.Join(parts, " -> ")
}

// Unwrap returns ErrCyclicReexport for errors.Is compatibility.
func (e *CyclicReexportError) Unwrap() error { return ErrCyclicReexport }

// notFoundError is the internal outcome of a failed trace; Resolve turns it
// into an *UnresolvedReferenceError carrying the reference's location.
type notFoundError struct {
	path modpath.Path
}

func (e *notFoundError) Error() string { return "no module defines " + e.path.String() }
