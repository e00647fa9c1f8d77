// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared by the runner and the CLI.
package types

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// ExitOK is the status of a successful run.
	ExitOK ExitCode = 0
	// ExitFailure is the generic failure status.
	ExitFailure ExitCode = 1

	// signalBase is added to the signal number by POSIX shells when a
	// child is killed by a signal.
	signalBase = 128
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is a process exit status in the range 0-255. The zero value
	// means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside 0-255.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == ExitOK }

// Signal returns the number of the signal that killed the process, following
// the shell's 128+n convention. A crashed solution (stack overflow, SIGSEGV)
// reports 139 this way.
func (c ExitCode) Signal() (int, bool) {
	if c <= signalBase || c > 255 {
		return 0, false
	}
	return int(c - signalBase), true
}

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
