// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"

	"github.com/algorist/algorist/pkg/modpath"
)

var (
	// ErrLibraryLoad is the sentinel wrapped by every *LibraryLoadError.
	ErrLibraryLoad = errors.New("library load failed")

	// ErrModuleFileMissing reports a "mod name;" declaration without a
	// backing source file.
	ErrModuleFileMissing = errors.New("module file not found")

	// ErrDuplicateModule reports two declarations of the same module path.
	ErrDuplicateModule = errors.New("duplicate module declaration")
)

// LibraryLoadError names the library module that could not be registered.
// Err is the underlying cause, typically a *rustsrc.SyntaxError.
type LibraryLoadError struct {
	Module modpath.Path
	Origin string
	Err    error
}

// Error implements the error interface.
func (e *LibraryLoadError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("load library module %s (%s): %v", e.Module, e.Origin, e.Err)
	}
	return fmt.Sprintf("load library module %s: %v", e.Module, e.Err)
}

// Unwrap exposes both ErrLibraryLoad and the underlying cause.
func (e *LibraryLoadError) Unwrap() []error { return []error{ErrLibraryLoad, e.Err} }
