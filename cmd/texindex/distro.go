// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/texlsp/texindex/internal/probe"
)

func newDistroCommand(app *App) *cobra.Command {
	var find string

	cmd := &cobra.Command{
		Use:   "distro",
		Short: "Show the detected TeX distribution",
		Example: `  texindex distro
  texindex distro --find amsmath.sty`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDistro(cmd.Context(), app, find)
		},
	}
	cmd.Flags().StringVar(&find, "find", "", "print the path of a file name")
	return cmd
}

func runDistro(ctx context.Context, app *App, find string) error {
	s, err := app.newSession(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	r := s.resolver

	if find != "" {
		path, ok := r.Lookup(find)
		if !ok {
			return notInDistributionError([]string{find})
		}
		fmt.Fprintln(app.stdout, path)
		return nil
	}

	fmt.Fprintf(app.stdout, "%s %s\n", labelStyle.Render("kind"), TitleStyle.Render(r.Kind().String()))
	fmt.Fprintf(app.stdout, "%s %d\n", labelStyle.Render("files"), r.Len())
	for _, root := range r.Roots() {
		fmt.Fprintf(app.stdout, "%s %s\n", labelStyle.Render("root"), root)
	}
	if app.flags.verbose {
		for _, db := range r.Databases() {
			fmt.Fprintf(app.stdout, "%s %s\n", labelStyle.Render("database"), db)
		}
		if loc, ok := app.Compiler(s.cfg, s.logger).(engineLocator); ok {
			for _, f := range probe.Formats() {
				fmt.Fprintf(app.stdout, "%s %s %s\n", labelStyle.Render("engine"), f, loc.Executable(f))
			}
		}
	}
	return nil
}
