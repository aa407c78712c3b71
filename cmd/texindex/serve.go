// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/texlsp/texindex/internal/component"
	"github.com/texlsp/texindex/internal/watch"
)

func newServeCommand(app *App) *cobra.Command {
	var watchDatabases bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the analysis worker and answer file names read from stdin",
		Long: `Run the analysis worker and answer file names read from stdin.

Each input line is a file name. Cached components are printed immediately;
unknown files are queued and their progress is reported on stderr. The
command exits at end of input once the queue is drained, or on interrupt.
Without a TeX distribution only cached components are answered.`,
		Example: `  echo amsmath.sty | texindex serve
  texindex serve --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), app, watchDatabases)
		},
	}
	cmd.Flags().BoolVar(&watchDatabases, "watch", false, "reload the distribution when its filename databases change")
	return cmd
}

func runServe(ctx context.Context, app *App, watchFlag bool) error {
	s, err := app.newSession(ctx, sessionOptions{
		database:  true,
		progress:  progressPrinter(app.stderr),
		cacheOnly: true,
	})
	if err != nil {
		return err
	}

	if err := s.db.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.db.Stop(); err != nil {
			s.logger.Warn("saving component database failed", "path", s.db.Path(), "err", err)
		}
	}()

	switch {
	case s.resolver == nil:
		if watchFlag {
			s.logger.Warn("filename database watcher disabled: no TeX distribution")
		}
	case watchFlag || s.cfg.Watch.Enabled:
		w, err := app.newDistroWatcher(s)
		if err != nil {
			s.logger.Warn("filename database watcher disabled", "err", err)
		} else {
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(app.stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := s.db.WaitIdle(ctx); err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			}
			app.answer(s.db, strings.TrimSpace(line))
		}
	}
}

// answer prints the component of name or reports that it was queued.
func (a *App) answer(db *component.Database, name string) {
	if name == "" {
		return
	}
	if c := db.GetComponent(name); c != nil {
		printComponents(a.stdout, []*component.Component{c}, a.flags.verbose)
		return
	}
	if db.InDistribution(name) {
		fmt.Fprintln(a.stdout, WarningStyle.Render(name+": queued"))
		return
	}
	fmt.Fprintln(a.stdout, ErrorStyle.Render(name+": not in the distribution"))
}

// newDistroWatcher watches the filename databases of the session's
// distribution and swaps in a fresh resolver when they change.
func (a *App) newDistroWatcher(s *session) (*watch.Watcher, error) {
	dirs, patterns := s.resolver.WatchTargets()
	return watch.New(watch.Config{
		Dirs:     dirs,
		Names:    patterns,
		Debounce: s.cfg.Watch.Debounce.Duration(),
		Logger:   s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			r, err := a.Distro(ctx, s.cfg, s.logger)
			if err != nil {
				s.logger.Warn("reloading TeX distribution failed", "err", err)
				return nil
			}
			s.db.SetResolver(r)
			s.logger.Info("reloaded TeX distribution", "files", r.Len(), "changed", len(changed))
			return nil
		},
	})
}
