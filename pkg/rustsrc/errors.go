// SPDX-License-Identifier: MPL-2.0

package rustsrc

import (
	"errors"
	"fmt"
)

// ErrSyntax is the sentinel wrapped by every *SyntaxError.
var ErrSyntax = errors.New("syntax error")

// SyntaxError locates the first unparseable construct in a file.
type SyntaxError struct {
	File    string
	Line    int
	Column  int
	Snippet string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("%s:%d:%d: syntax error", e.File, e.Line, e.Column)
	}
	return fmt.Sprintf("%s:%d:%d: syntax error near %q", e.File, e.Line, e.Column, e.Snippet)
}

// Unwrap returns ErrSyntax for errors.Is compatibility.
func (e *SyntaxError) Unwrap() error { return ErrSyntax }
