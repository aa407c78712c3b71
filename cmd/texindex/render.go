// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/texlsp/texindex/internal/component"
	"github.com/texlsp/texindex/internal/issue"
)

// maxListedNames caps the commands and environments printed per component
// unless verbose output is requested.
const maxListedNames = 12

// renderComponent returns a bordered card describing c.
func renderComponent(c *component.Component, verbose bool) string {
	var lines []string

	title := TitleStyle.Render(strings.Join(c.FileNames, ", "))
	if c.IsEmpty() {
		title += " " + WarningStyle.Render("(no primitives)")
	}
	lines = append(lines, title)

	lines = append(lines,
		field("references", c.References, lipgloss.NewStyle(), verbose),
		field("commands", c.Commands, CmdStyle, verbose),
		field("environments", c.Environments, CmdStyle, verbose),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func field(label string, values []string, style lipgloss.Style, verbose bool) string {
	text := SubtitleStyle.Render("none")
	if len(values) > 0 {
		shown := values
		if !verbose && len(shown) > maxListedNames {
			shown = shown[:maxListedNames]
		}
		text = style.Render(strings.Join(shown, " "))
		if len(shown) < len(values) {
			text += SubtitleStyle.Render(fmt.Sprintf(" … +%d more", len(values)-len(shown)))
		}
		text = fmt.Sprintf("%s %s", SubtitleStyle.Render(fmt.Sprintf("(%d)", len(values))), text)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), text)
}

// printComponents writes one card per component.
func printComponents(w io.Writer, comps []*component.Component, verbose bool) {
	for _, c := range comps {
		fmt.Fprintln(w, renderComponent(c, verbose))
	}
}

// renderError writes err to w. Errors linked to a catalogued issue also get
// the issue's markdown guidance.
func renderError(w io.Writer, err error, verbose bool) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		renderIssue(w, ae.Issue())
	}
}

// renderIssue writes the markdown guidance of i. A nil issue writes nothing.
func renderIssue(w io.Writer, i *issue.Issue) {
	if i == nil {
		return
	}
	if md, err := i.Render("auto"); err == nil {
		fmt.Fprint(w, md)
	}
}
