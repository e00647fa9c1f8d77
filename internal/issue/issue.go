// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ProjectNotFoundId Id = iota + 1
	ProblemNotFoundId
	LibraryLoadFailedId
	SyntaxErrorId
	UnresolvedReferenceId
	CyclicReexportId
	ConfigLoadFailedId
	ContestExistsId
	ProblemExistsId
	CommandFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	docLinks []HttpLink
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guide with a glamour style ("dark", "light", "auto",
// or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	projectNotFoundIssue = &Issue{
		id: ProjectNotFoundId,
		mdMsg: `
# Not inside a contest project!

A contest project is a directory holding both a ` + "`Cargo.toml`" + ` and a ` + "`src/`" + ` directory.
The current directory and all of its parents were searched.

## Things you can try:
- Create a new contest and step into it:
~~~
$ algorist create contest1
$ cd contest1
~~~

- Or change into an existing contest directory first.`,
	}

	problemNotFoundIssue = &Issue{
		id: ProblemNotFoundId,
		mdMsg: `
# Problem not found!

Problems live in ` + "`src/bin/<id>.rs`" + `; no file matched the id you gave.

## Things you can try:
- Check the id for typos (a trailing ` + "`.rs`" + ` is accepted)
- Add the problem first:
~~~
$ algorist add a
~~~`,
	}

	libraryLoadFailedIssue = &Issue{
		id: LibraryLoadFailedId,
		mdMsg: `
# Failed to load the library crates!

A module declared with ` + "`mod name;`" + ` has no backing file, or a library file
could not be parsed.

## Things you can try:
- Make sure every ` + "`mod name;`" + ` has a ` + "`name.rs`" + ` or ` + "`name/mod.rs`" + ` next to the declaring file
- Run ` + "`cargo check`" + ` inside ` + "`crates/<name>`" + ` to see compiler diagnostics
- Re-vendor the library:
~~~
$ cargo vendor crates
~~~`,
	}

	syntaxErrorIssue = &Issue{
		id: SyntaxErrorId,
		mdMsg: `
# Syntax error!

The problem file could not be parsed, so no bundle was written.

## Things you can try:
- Look at the reported line and column
- Run ` + "`cargo check --bin <id>`" + ` for a full compiler diagnostic`,
	}

	unresolvedReferenceIssue = &Issue{
		id: UnresolvedReferenceId,
		mdMsg: `
# Unresolved library path!

A path into a library crate names a module or item that does not exist, and
no module on the way re-exports it.

## Things you can try:
- Check the path for typos
- Verify the item is ` + "`pub`" + ` and its module is declared in the parent with ` + "`pub mod`" + `
- If the name comes through a re-export, check the ` + "`pub use`" + ` declaration it relies on`,
	}

	cyclicReexportIssue = &Issue{
		id: CyclicReexportId,
		mdMsg: `
# Cyclic re-export!

Following ` + "`pub use`" + ` declarations led back to a name already visited.
Rust rejects such code too.

## Things you can try:
- Make one of the listed re-exports point at the defining module instead`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file is not valid CUE or does not match the schema.

## Things you can try:
- Print the effective configuration and where it came from:
~~~
$ algorist config show
$ algorist config path
~~~

- Recreate a default file:
~~~
$ algorist config init --force
~~~`,
	}

	contestExistsIssue = &Issue{
		id: ContestExistsId,
		mdMsg: `
# Contest directory already exists!

` + "`algorist create`" + ` never writes into an existing directory.

## Things you can try:
- Pick another contest id
- Remove or rename the existing directory`,
	}

	problemExistsIssue = &Issue{
		id: ProblemExistsId,
		mdMsg: `
# Problem already exists!

` + "`algorist add`" + ` does not overwrite problem files.

## Things you can try:
- Edit the existing file in ` + "`src/bin/`" + `
- Choose a different id`,
	}

	commandFailedIssue = &Issue{
		id: CommandFailedId,
		mdMsg: `
# External command failed!

` + "`cargo`" + ` or ` + "`rustfmt`" + ` exited with an error or could not be started.

## Things you can try:
- Check that the Rust toolchain is installed and on your PATH:
~~~
$ cargo --version
$ rustfmt --version
~~~

- Read the command output above for the compiler's own diagnostic`,
		extLinks: []HttpLink{"https://rustup.rs"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

A file or directory could not be read or written.

## Things you can try:
- Check the permissions of the project directory and of ` + "`bundled/`" + `
- Run algorist from a directory you own`,
	}

	issues = map[Id]*Issue{
		projectNotFoundIssue.Id():     projectNotFoundIssue,
		problemNotFoundIssue.Id():     problemNotFoundIssue,
		libraryLoadFailedIssue.Id():   libraryLoadFailedIssue,
		syntaxErrorIssue.Id():         syntaxErrorIssue,
		unresolvedReferenceIssue.Id(): unresolvedReferenceIssue,
		cyclicReexportIssue.Id():      cyclicReexportIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		contestExistsIssue.Id():       contestExistsIssue,
		problemExistsIssue.Id():       problemExistsIssue,
		commandFailedIssue.Id():       commandFailedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

// Values returns every registered issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
