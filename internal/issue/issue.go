// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ContainerNotFoundId Id = iota + 1
	ContainerMalformedId
	DigestMismatchId
	BundleFailedId
	UnsupportedModuleId
	SandboxFailedId
	ConfigLoadFailedId
	LintConfigUnreadableId
	ProgramFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
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

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	containerNotFoundIssue = &Issue{
		id: ContainerNotFoundId,
		mdMsg: `
# No container found!

lintcage could not read the container file it was asked to run.

## Things you can try:
- Build the container next to the lintcage executable:
~~~
$ lintcage bundle
~~~
- Or point at an existing container:
~~~
$ lintcage run --container ./eslint.bundle -- src/
~~~`,
	}

	containerMalformedIssue = &Issue{
		id: ContainerMalformedId,
		mdMsg: `
# The container is damaged!

A length header in the container points past the end of the file, so the
units cannot be decoded.

## Things you can try:
- Rebuild the container with ` + "`lintcage bundle`" + `
- Check that the file was copied completely
- Run ` + "`lintcage inspect`" + ` on it to see where decoding stops`,
	}

	digestMismatchIssue = &Issue{
		id: DigestMismatchId,
		mdMsg: `
# Container digest mismatch!

The container's BLAKE3 digest differs from the one you expected, so it was
not executed.

## Things you can try:
- Compare with the digest printed by ` + "`lintcage bundle`" + `
- Rebuild the container from a trusted tree`,
	}

	bundleFailedIssue = &Issue{
		id: BundleFailedId,
		mdMsg: `
# Bundling failed!

A reference could not be resolved, or a unit could not be read.

## Things you can try:
- Install the program's dependencies (` + "`npm install`" + `) in the base directory
- Ignore optional units with an override:
~~~cue
bundle: overrides: [{path: "pkg/optional.js", ignore: true}]
~~~
- Run with ` + "`--verbose`" + ` to see which unit failed`,
	}

	unsupportedModuleIssue = &Issue{
		id: UnsupportedModuleId,
		mdMsg: `
# Unsupported module!

Only ` + "`.js`" + ` and ` + "`.json`" + ` units can be bundled. Native ` + "`.node`" + ` extensions
and other file types cannot run from a container.

## Things you can try:
- Add an ignore override for the unit if the program works without it
- Use a pure JavaScript alternative of the dependency`,
	}

	sandboxFailedIssue = &Issue{
		id: SandboxFailedId,
		mdMsg: `
# The sandbox could not be verified!

lintcage refuses to run bundled code unless the seccomp filter is installed
and a stat of its own executable fails with ENOSYS.

## Things you can try:
- Run on Linux (amd64 or arm64) with seccomp enabled in the kernel
- Check that no container runtime blocks the seccomp syscall
- For local debugging only, disable the sandbox:
~~~
$ LINTCAGE_RUN_SANDBOX=false lintcage run
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

lintcage.cue could not be parsed or does not match the schema.

## Things you can try:
- Print the defaults as a starting point:
~~~
$ lintcage config show
~~~
- Remove fields you are not sure about; unset fields keep their defaults`,
	}

	lintConfigUnreadableIssue = &Issue{
		id: LintConfigUnreadableId,
		mdMsg: `
# Lint configuration unreadable!

The lint configuration file is read once before the sandbox is entered.
After that no file can be opened.

## Things you can try:
- Create ` + "`.eslintrc.json`" + ` in the working directory
- Or choose another file with ` + "`--config-file`" + ``,
	}

	programFailedIssue = &Issue{
		id: ProgramFailedId,
		mdMsg: `
# The bundled program failed!

An exception escaped the bundled program before it finished.

## Things you can try:
- Run with ` + "`--verbose`" + ` to see the full error chain
- Check whether the program needs a module that was ignored while bundling`,
	}

	issues = map[Id]*Issue{
		containerNotFoundIssue.Id():    containerNotFoundIssue,
		containerMalformedIssue.Id():   containerMalformedIssue,
		digestMismatchIssue.Id():       digestMismatchIssue,
		bundleFailedIssue.Id():         bundleFailedIssue,
		unsupportedModuleIssue.Id():    unsupportedModuleIssue,
		sandboxFailedIssue.Id():        sandboxFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		lintConfigUnreadableIssue.Id(): lintConfigUnreadableIssue,
		programFailedIssue.Id():        programFailedIssue,
	}
)

// Values returns every catalogued issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
