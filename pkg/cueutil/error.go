// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrFileTooLarge is returned when a document exceeds the size limit.
var ErrFileTooLarge = errors.New("file too large")

// FieldError is one failed constraint, located by its field path.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// FormatError flattens a CUE error into "<file>: <field>: <message>" lines.
// Errors that did not come from CUE are prefixed with the file name only.
func FormatError(err error, filename string) error {
	if err == nil {
		return nil
	}
	fields := FieldErrors(err)
	switch len(fields) {
	case 0:
		return fmt.Errorf("%s: %w", filename, err)
	case 1:
		return fmt.Errorf("%s: %s", filename, fields[0])
	}
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = f.String()
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filename, strings.Join(lines, "\n  "))
}

// FieldErrors splits err into one entry per CUE error it carries.
func FieldErrors(err error) []FieldError {
	var out []FieldError
	for _, e := range cueerrors.Errors(err) {
		field := fieldPath(cueerrors.Path(e))
		msg := e.Error()
		if field != "" && strings.HasPrefix(msg, field) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, field), ":"))
		}
		out = append(out, FieldError{Field: field, Message: msg})
	}
	return out
}

// fieldPath renders ["libraries", "0", "name"] as "libraries[0].name".
func fieldPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		switch {
		case i > 0 && isIndex(part):
			b.WriteString("[" + part + "]")
		case i > 0:
			b.WriteString("." + part)
		default:
			b.WriteString(part)
		}
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize fails with ErrFileTooLarge when data exceeds maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: %d bytes exceeds the %d byte limit: %w", filename, len(data), maxSize, ErrFileTooLarge)
	}
	return nil
}
