// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for texindex.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/texlsp/texindex/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "texindex",
		Short: "Index the commands and environments of installed LaTeX packages",
		Long: TitleStyle.Render("texindex") + SubtitleStyle.Render(" - LaTeX package indexer") + `

texindex discovers which commands and environments every package (.sty) and
class (.cls) of your TeX distribution defines, by compiling small probe
documents and reading the engine's log. Results are cached on disk.

` + SubtitleStyle.Render("Examples:") + `
  texindex index amsmath.sty          Analyze a package and print its components
  texindex show amsmath.sty           Print the cached component
  texindex related --package tikz     Components relevant to a document
  texindex distro --find article.cls  Resolve a file in the distribution
  texindex serve                      Index file names read from stdin`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.configFile, "config", "", "config file (default is $HOME/.config/texindex/config.cue)")
	rootCmd.PersistentFlags().StringVar(&app.flags.database, "database", "", "component database file (overrides database_path)")

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	rootCmd.SetIn(app.stdin)

	rootCmd.AddCommand(
		newIndexCommand(app),
		newShowCommand(app),
		newRelatedCommand(app),
		newDistroCommand(app),
		newServeCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, app.flags.verbose)
		}),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their Format method; verbose mode shows the error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
