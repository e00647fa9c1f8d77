// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/charmbracelet/log"

	"github.com/algorist/algorist/internal/issue"
	"github.com/algorist/algorist/internal/project"
	"github.com/algorist/algorist/internal/registry"
	"github.com/algorist/algorist/internal/resolve"
	"github.com/algorist/algorist/internal/runner"
	"github.com/algorist/algorist/internal/scaffold"
	"github.com/algorist/algorist/pkg/rustsrc"
)

// guides maps error kinds to their remediation guide. Order matters: the
// first match wins.
var guides = []struct {
	target error
	id     issue.Id
}{
	{project.ErrProjectNotFound, issue.ProjectNotFoundId},
	{project.ErrProblemNotFound, issue.ProblemNotFoundId},
	{registry.ErrLibraryLoad, issue.LibraryLoadFailedId},
	{rustsrc.ErrSyntax, issue.SyntaxErrorId},
	{resolve.ErrUnresolvedReference, issue.UnresolvedReferenceId},
	{resolve.ErrCyclicReexport, issue.CyclicReexportId},
	{scaffold.ErrContestExists, issue.ContestExistsId},
	{scaffold.ErrProblemExists, issue.ProblemExistsId},
	{runner.ErrCommandFailed, issue.CommandFailedId},
	{fs.ErrPermission, issue.PermissionDeniedId},
}

// guideFor returns the guide for err. An ActionableError carrying a guide
// takes precedence over the error kind.
func guideFor(err error) *issue.Issue {
	if g, ok := issue.GuideOf(err); ok {
		return g
	}
	for _, g := range guides {
		if errors.Is(err, g.target) {
			return issue.Get(g.id)
		}
	}
	return nil
}

// renderError writes the remediation for err below the headline fang
// prints: the suggestions of an ActionableError and the guide, rendered with
// glamour using scheme. Errors carrying neither produce no output.
func renderError(w io.Writer, err error, scheme string, verbose bool) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && (ae.HasSuggestions() || verbose) {
		fmt.Fprintln(w, ae.Format(verbose))
	}

	g := guideFor(err)
	if g == nil {
		return
	}
	rendered, renderErr := g.Render(scheme)
	if renderErr != nil {
		log.Warn("failed to render issue guide", "id", g.Id(), "err", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}
