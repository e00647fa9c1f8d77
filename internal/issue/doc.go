// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and markdown remediation guides.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions; Issue holds a longer guide rendered with glamour when the CLI
// reports a failure it can explain.
package issue
