// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Decode unifies data with the definition def of schema, validates the
// result and decodes it into a T. The unified value is returned alongside
// for callers that need to inspect fields the Go type does not carry.
func Decode[T any](schema, data []byte, def string, opts ...Option) (*T, cue.Value, error) {
	o := apply(opts)
	unified, err := unify(schema, data, def, o)
	if err != nil {
		return nil, cue.Value{}, err
	}
	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, cue.Value{}, FormatError(err, o.filename)
	}
	return &out, unified, nil
}

// Validate checks data against def without decoding it.
func Validate(schema, data []byte, def string, opts ...Option) error {
	_, err := unify(schema, data, def, apply(opts))
	return err
}

func apply(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func unify(schema, data []byte, def string, o options) (cue.Value, error) {
	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return cue.Value{}, err
	}
	ctx := cuecontext.New()
	root, err := definition(ctx, schema, def)
	if err != nil {
		return cue.Value{}, err
	}
	user := ctx.CompileBytes(data, cue.Filename(o.filename))
	if user.Err() != nil {
		return cue.Value{}, FormatError(user.Err(), o.filename)
	}
	unified := root.Unify(user)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return cue.Value{}, FormatError(err, o.filename)
	}
	return unified, nil
}

func definition(ctx *cue.Context, schema []byte, def string) (cue.Value, error) {
	sv := ctx.CompileBytes(schema)
	if sv.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: compiling schema: %w", sv.Err())
	}
	root := sv.LookupPath(cue.ParsePath(def))
	if root.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s: %w", def, root.Err())
	}
	return root, nil
}
