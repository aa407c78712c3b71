// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/texlsp/texindex/internal/config"
)

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage texindex configuration",
		Long: `Manage texindex configuration.

Configuration is stored in config.cue under the user configuration directory.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := app.loadConfig(cmd.Context())
				if err != nil {
					return err
				}
				if src := cfg.Source(); src != "" {
					fmt.Fprintf(app.stdout, "// loaded from %s\n", src)
				}
				fmt.Fprint(app.stdout, config.GenerateCUE(cfg))

				dbPath, err := cfg.DatabasePath()
				if err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "\n// component database: %s\n", dbPath)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a default configuration file if none exists",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.CreateDefaultConfig("")
				if err != nil {
					return err
				}
				fmt.Fprintln(app.stdout, SuccessStyle.Render("Configuration: ")+path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				dir, err := config.ConfigDir()
				if err != nil {
					return err
				}
				fmt.Fprintln(app.stdout, dir)
				return nil
			},
		},
	)
	return cmd
}
