// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/texlsp/texindex/internal/component"
	"github.com/texlsp/texindex/internal/issue"
)

func newShowCommand(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "show [file-name]...",
		Short: "Print cached components without analyzing anything",
		Example: `  texindex show amsmath.sty
  texindex show --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return cmd.Help()
			}
			return runShow(cmd.Context(), app, args, all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print every cached component")
	return cmd
}

func runShow(ctx context.Context, app *App, names []string, all bool) error {
	db, err := app.openDatabase(ctx)
	if err != nil {
		return err
	}

	if all {
		printComponents(app.stdout, db.Components(), app.flags.verbose)
		fmt.Fprintln(app.stdout, SubtitleStyle.Render(fmt.Sprintf("%d files in %s", db.Len(), db.Path())))
		return nil
	}

	var missing []string
	for _, name := range names {
		c, ok := db.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		printComponents(app.stdout, []*component.Component{c}, app.flags.verbose)
	}
	if len(missing) > 0 {
		return issue.NewErrorContext().
			WithOperation("show").
			WithResource(db.Path()).
			WithSuggestion(fmt.Sprintf("Run 'texindex index %s' to analyze them", missing[0])).
			Wrap(fmt.Errorf("not in the component database: %v", missing)).
			BuildError()
	}
	return nil
}

func newRelatedCommand(app *App) *cobra.Command {
	var (
		packages []string
		classes  []string
		cached   bool
	)

	cmd := &cobra.Command{
		Use:   "related",
		Short: "Print the components relevant to a document",
		Long: `Print the components relevant to a document that declares the given
packages and classes: their own components plus the components they load.`,
		Example: `  texindex related --class article --package amsmath --package tikz
  texindex related -p hyperref --cached`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(packages) == 0 && len(classes) == 0 {
				return cmd.Help()
			}
			var declared []string
			for _, p := range packages {
				declared = append(declared, withExtension(p, ".sty"))
			}
			for _, c := range classes {
				declared = append(declared, withExtension(c, ".cls"))
			}
			return runRelated(cmd.Context(), app, declared, cached)
		},
	}
	cmd.Flags().StringArrayVarP(&packages, "package", "p", nil, "declared package (repeatable)")
	cmd.Flags().StringArrayVarP(&classes, "class", "c", nil, "declared class (repeatable)")
	cmd.Flags().BoolVar(&cached, "cached", false, "do not analyze unknown files")
	return cmd
}

func runRelated(ctx context.Context, app *App, declared []string, cached bool) error {
	s, err := app.newSession(ctx, sessionOptions{database: true})
	if err != nil {
		return err
	}
	doc := component.DocumentFunc(func() []string { return declared })

	comps := s.db.RelatedComponents([]component.Document{doc})
	if !cached && s.db.Queued() > 0 {
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
		comps = s.db.RelatedComponents([]component.Document{doc})
	}

	printComponents(app.stdout, comps, app.flags.verbose)
	return nil
}
