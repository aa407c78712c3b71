// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/texlsp/texindex/internal/component"
	"github.com/texlsp/texindex/internal/issue"
)

func newIndexCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "index <file-name>...",
		Short: "Analyze packages or classes and print their components",
		Long: `Analyze packages or classes and print their components.

Files already in the component database are printed as cached. Unknown files
are analyzed, together with every package they load, and the database is
saved afterwards.`,
		Example: `  texindex index amsmath.sty
  texindex index article.cls tikz.sty`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), app, args)
		},
	}
}

func runIndex(ctx context.Context, app *App, names []string) error {
	s, err := app.newSession(ctx, sessionOptions{database: true, progress: progressPrinter(app.stderr)})
	if err != nil {
		return err
	}

	var missing []string
	for _, name := range names {
		if _, ok := s.resolver.Lookup(name); !ok {
			missing = append(missing, name)
			continue
		}
		s.db.GetComponent(name)
	}

	if err := s.db.Start(ctx); err != nil {
		return err
	}
	waitErr := s.db.WaitIdle(ctx)
	if err := s.db.Stop(); err != nil {
		s.logger.Warn("saving component database failed", "path", s.db.Path(), "err", err)
	}
	if waitErr != nil {
		return waitErr
	}

	var comps []*component.Component
	seen := make(map[*component.Component]bool)
	for _, name := range names {
		if c, ok := s.db.Lookup(name); ok && !seen[c] {
			seen[c] = true
			comps = append(comps, c)
		}
	}
	printComponents(app.stdout, comps, app.flags.verbose)
	if app.flags.verbose && slices.ContainsFunc(comps, (*component.Component).IsEmpty) {
		fmt.Fprintln(app.stderr, WarningStyle.Render("Some files define no commands or environments."))
		renderIssue(app.stderr, issue.Get(issue.CompileTimeoutId))
	}

	if len(missing) > 0 {
		return &ExitError{Code: exitNotInDistribution, Err: notInDistributionError(missing)}
	}
	return nil
}

// progressPrinter writes one line per progress report.
func progressPrinter(w io.Writer) component.ProgressSink {
	return component.ProgressFunc(func(p component.Progress) {
		switch {
		case p.Done:
			fmt.Fprintln(w, SubtitleStyle.Render(p.Title)+" "+SuccessStyle.Render("done"))
		case p.Percentage != nil:
			fmt.Fprintf(w, "%s %3d%% %s\n", SubtitleStyle.Render(p.Title), *p.Percentage, p.Message)
		default:
			fmt.Fprintln(w, SubtitleStyle.Render(p.Title)+" "+p.Message)
		}
	})
}

func notInDistributionError(names []string) error {
	return issue.NewErrorContext().
		WithOperation("index").
		WithResource(strings.Join(names, ", ")).
		WithIssue(issue.FileNotInDistributionId).
		WithSuggestion("Check the spelling, including the extension").
		Wrap(fmt.Errorf("%d file(s) not found in the distribution", len(names))).
		BuildError()
}

// withExtension appends ext unless name already carries an extension.
func withExtension(name, ext string) string {
	if filepath.Ext(name) == "" {
		return name + ext
	}
	return name
}
