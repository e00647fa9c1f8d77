// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes user-written CUE documents against an embedded
// schema definition.
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	cfg, _, err := cueutil.Decode[Config](schema, data, "#Config",
//	    cueutil.WithFilename("algorist.cue"))
//
// Errors name the offending field in dotted form, e.g.
// "algorist.cue: bundle.debounce: conflicting values".
package cueutil
