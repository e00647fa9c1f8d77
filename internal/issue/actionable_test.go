// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableErrorError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation only", &ActionableError{Operation: "bundle problem"}, "failed to bundle problem"},
		{"with resource", &ActionableError{Operation: "bundle problem", Resource: "src/bin/a.rs"}, "failed to bundle problem: src/bin/a.rs"},
		{"with cause", &ActionableError{Operation: "load configuration", Cause: errors.New("bad key")}, "failed to load configuration: bad key"},
		{
			"full",
			&ActionableError{Operation: "bundle problem", Resource: "src/bin/a.rs", Cause: errors.New("no such file")},
			"failed to bundle problem: src/bin/a.rs: no such file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableErrorFormat(t *testing.T) {
	t.Parallel()

	root := errors.New("root cause")
	err := &ActionableError{
		Operation:   "bundle problem",
		Resource:    "src/bin/a.rs",
		Suggestions: []string{"Run 'algorist add a'", "Check the id"},
		Cause:       fmt.Errorf("reading: %w", root),
	}

	plain := err.Format(false)
	for _, want := range []string{"failed to bundle problem", "• Run 'algorist add a'", "• Check the id"} {
		if !strings.Contains(plain, want) {
			t.Errorf("Format(false) lacks %q:\n%s", want, plain)
		}
	}
	if strings.Contains(plain, "Error chain") {
		t.Errorf("Format(false) includes the chain:\n%s", plain)
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. reading: root cause", "2. root cause"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) lacks %q:\n%s", want, verbose)
		}
	}
	if !err.HasSuggestions() {
		t.Error("HasSuggestions() = false")
	}
}

func TestErrorContextBuild(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should be nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}

	cause := errors.New("boom")
	ctx := NewErrorContext().
		WithOperation("run problem").
		WithResource("a").
		WithSuggestion("one").
		WithSuggestions("two", "three").
		WithGuide(CommandFailedId).
		Wrap(cause)
	ae := ctx.Build()
	if ae.Operation != "run problem" || ae.Resource != "a" || ae.Guide != CommandFailedId {
		t.Errorf("Build() = %+v", ae)
	}
	if len(ae.Suggestions) != 3 {
		t.Errorf("Suggestions = %v, want 3 entries", ae.Suggestions)
	}
	if !errors.Is(ae, cause) {
		t.Error("errors.Is(built, cause) = false")
	}

	ctx.WithSuggestion("four")
	if len(ae.Suggestions) != 3 {
		t.Error("built error shares the builder's suggestion slice")
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should be nil")
	}
	err := WrapWithContext(errors.New("x"), "write bundle", "bundled/src/bin/a.rs")
	if got := err.Error(); got != "failed to write bundle: bundled/src/bin/a.rs: x" {
		t.Errorf("Error() = %q", got)
	}
}

func TestGuideOf(t *testing.T) {
	t.Parallel()

	inner := NewErrorContext().WithOperation("inner").WithGuide(SyntaxErrorId).Wrap(errors.New("x")).BuildError()
	outer := NewErrorContext().WithOperation("outer").Wrap(fmt.Errorf("wrapped: %w", inner)).BuildError()

	is, ok := GuideOf(outer)
	if !ok || is.Id() != SyntaxErrorId {
		t.Errorf("GuideOf() = %v, %v; want SyntaxErrorId", is, ok)
	}
	if _, ok := GuideOf(errors.New("plain")); ok {
		t.Error("GuideOf(plain) should report no guide")
	}
}
