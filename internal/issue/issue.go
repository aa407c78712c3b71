// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	DistributionNotFoundId Id = iota + 1
	UnknownDistributionId
	InvalidDistributionId
	EngineNotFoundId
	CompileTimeoutId
	FileNotInDistributionId
	ConfigLoadFailedId
	DatabaseCorruptId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation about the issue
	extLinks []HttpLink  // external links that might be useful for the user
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
		extraMd += "\n\n"
		extraMd += "## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	distributionNotFoundIssue = &Issue{
		id: DistributionNotFoundId,
		mdMsg: `
# No TeX distribution found!

texindex asks ` + "`kpsewhich`" + ` for the TEXMF search path, but it could not be run.

## Things you can try:
- Install TeX Live or MiKTeX and make sure its binaries are on your PATH:
~~~
$ kpsewhich -var-value TEXMF
~~~
- Point texindex at a specific kpsewhich in your config file:
~~~cue
kpsewhich: "/usr/local/texlive/2024/bin/x86_64-linux/kpsewhich"
~~~`,
		extLinks: []HttpLink{"https://tug.org/texlive/", "https://miktex.org/"},
	}

	unknownDistributionIssue = &Issue{
		id: UnknownDistributionId,
		mdMsg: `
# Unknown TeX distribution!

None of the TEXMF root directories contains a filename database.
TeX Live keeps one ` + "`ls-R`" + ` file per root; MiKTeX keeps ` + "`fndb`" + ` files under ` + "`miktex/data/le`" + `.

## Things you can try:
- Rebuild the TeX Live filename database:
~~~
$ mktexlsr
~~~
- Refresh the MiKTeX filename database:
~~~
$ initexmf --update-fndb
~~~`,
	}

	invalidDistributionIssue = &Issue{
		id: InvalidDistributionId,
		mdMsg: `
# The filename database is corrupt!

A filename database could not be parsed. texindex never uses partially read databases.

## Things you can try:
- Regenerate the database (` + "`mktexlsr`" + ` on TeX Live, ` + "`initexmf --update-fndb`" + ` on MiKTeX)
- Run ` + "`texindex distro -v`" + ` to see which file failed`,
	}

	engineNotFoundIssue = &Issue{
		id: EngineNotFoundId,
		mdMsg: `
# TeX engine not found!

Probe documents are compiled with ` + "`latex`" + `, ` + "`lualatex`" + ` or ` + "`xelatex`" + `, depending on the package.

## Things you can try:
- Make sure the engines are installed and on your PATH
- Configure explicit engine paths:
~~~cue
engines: {
	latex:    "/usr/bin/latex"
	lualatex: "/usr/bin/lualatex"
	xelatex:  "/usr/bin/xelatex"
}
~~~`,
	}

	compileTimeoutIssue = &Issue{
		id: CompileTimeoutId,
		mdMsg: `
# Probe compilation timed out!

The engine was killed after the configured timeout and the file was recorded
without any commands or environments.

## Things you can try:
- Increase the timeout in your config file:
~~~cue
compile: timeout: "30s"
~~~
- Delete the component database to retry every file. Its location is
  printed as ` + "`database_path`" + ` by:
~~~
$ texindex config show
~~~`,
	}

	fileNotInDistributionIssue = &Issue{
		id: FileNotInDistributionId,
		mdMsg: `
# File not found in the distribution!

Only packages (` + "`.sty`" + `) and classes (` + "`.cls`" + `) listed in the filename database can be analyzed.

## Things you can try:
- Check the spelling, including the extension:
~~~
$ texindex distro --find amsmath.sty
~~~
- Install the package with your distribution's package manager
- Rebuild the filename database after a manual installation`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Print the effective configuration:
~~~
$ texindex config show
~~~
- Write a fresh default configuration:
~~~
$ texindex config init
~~~`,
	}

	databaseCorruptIssue = &Issue{
		id: DatabaseCorruptId,
		mdMsg: `
# The component database is corrupt!

The cached component list could not be decoded. Commands that analyze files
start over with an empty database and rewrite it; read-only commands stop here.

## Things you can try:
- Run ` + "`texindex index <file>`" + ` to rebuild entries
- Remove the file; it is recreated on demand`,
	}

	issues = map[Id]*Issue{
		distributionNotFoundIssue.Id():  distributionNotFoundIssue,
		unknownDistributionIssue.Id():   unknownDistributionIssue,
		invalidDistributionIssue.Id():   invalidDistributionIssue,
		engineNotFoundIssue.Id():        engineNotFoundIssue,
		compileTimeoutIssue.Id():        compileTimeoutIssue,
		fileNotInDistributionIssue.Id(): fileNotInDistributionIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		databaseCorruptIssue.Id():       databaseCorruptIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	ids := make([]Id, 0, len(issues))
	for id := range issues {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]*Issue, len(ids))
	for i, id := range ids {
		out[i] = issues[id]
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
