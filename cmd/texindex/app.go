// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/texlsp/texindex/internal/component"
	"github.com/texlsp/texindex/internal/config"
	"github.com/texlsp/texindex/internal/distro"
	"github.com/texlsp/texindex/internal/issue"
	"github.com/texlsp/texindex/internal/probe"
	"github.com/texlsp/texindex/internal/unit"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: every Cobra handler receives an App and builds the
	// distribution resolver, compiler and component database through it.
	App struct {
		Config   ConfigProvider
		Distro   DistroFactory
		Compiler CompilerFactory
		stdout   io.Writer
		stderr   io.Writer
		stdin    io.Reader
		flags    globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config   ConfigProvider
		Distro   DistroFactory
		Compiler CompilerFactory
		Stdout   io.Writer
		Stderr   io.Writer
		Stdin    io.Reader
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// DistroFactory discovers the TeX distribution.
	DistroFactory func(ctx context.Context, cfg *config.Config, logger *log.Logger) (*distro.Resolver, error)

	// CompilerFactory creates the probe compiler.
	CompilerFactory func(cfg *config.Config, logger *log.Logger) unit.Compiler

	// engineChecker is implemented by compilers that can verify their engine
	// binaries before any work is queued.
	engineChecker interface {
		CheckEngine(format probe.Format) error
	}

	// engineLocator is implemented by compilers that report the executable
	// used for each format.
	engineLocator interface {
		Executable(format probe.Format) string
	}

	// globalFlags are the persistent root flags.
	globalFlags struct {
		configFile string
		database   string
		verbose    bool
	}

	// sessionOptions selects what newSession builds.
	sessionOptions struct {
		// database opens the component database.
		database bool
		// progress receives analysis progress. May be nil.
		progress component.ProgressSink
		// cacheOnly reports a distribution failure once and continues with a
		// nil resolver, so only persisted components are available.
		cacheOnly bool
	}

	// session is the per-command state built from the effective configuration.
	// resolver is nil in cache-only mode.
	session struct {
		cfg      *config.Config
		logger   *log.Logger
		resolver *distro.Resolver
		db       *component.Database
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Distro == nil {
		deps.Distro = defaultDistro
	}
	if deps.Compiler == nil {
		deps.Compiler = defaultCompiler
	}

	return &App{
		Config:   deps.Config,
		Distro:   deps.Distro,
		Compiler: deps.Compiler,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
		stdin:    deps.Stdin,
	}
}

func defaultDistro(ctx context.Context, cfg *config.Config, logger *log.Logger) (*distro.Resolver, error) {
	return distro.Create(ctx, distro.Options{
		Kpsewhich: cfg.Kpsewhich.String(),
		Logger:    logger,
	})
}

func defaultCompiler(cfg *config.Config, logger *log.Logger) unit.Compiler {
	return probe.NewCompiler(probe.Options{
		Executables: map[probe.Format]string{
			probe.FormatLatex:    cfg.Engines.Latex.String(),
			probe.FormatLualatex: cfg.Engines.Lualatex.String(),
			probe.FormatXelatex:  cfg.Engines.Xelatex.String(),
		},
		Timeout:     cfg.Compile.Timeout.Duration(),
		ShellEscape: cfg.Compile.ShellEscape,
		ScratchDir:  cfg.Compile.ScratchDir,
		Logger:      logger,
	})
}

// loadConfig loads the effective configuration with the global flags applied.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	opts := config.LoadOptions{
		ConfigFilePath: a.flags.configFile,
		DatabasePath:   a.flags.database,
	}
	if a.flags.verbose {
		opts.LogLevel = config.LogLevelDebug
	}
	return a.Config.Load(ctx, opts)
}

// newLogger creates the service logger writing to stderr.
func (a *App) newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix:          config.AppName,
		ReportTimestamp: true,
	})
	level, err := log.ParseLevel(cfg.LogLevel.String())
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// newSession loads the configuration and discovers the distribution. The
// database is opened only when opts.database is set.
func (a *App) newSession(ctx context.Context, opts sessionOptions) (*session, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, logger: a.newLogger(cfg)}

	s.resolver, err = a.Distro(ctx, cfg, s.logger)
	if err != nil {
		if !opts.cacheOnly {
			return nil, distroError(err)
		}
		renderError(a.stderr, distroError(err), a.flags.verbose)
		s.logger.Warn("no TeX distribution, serving cached components only")
		s.resolver = nil
	}

	if !opts.database {
		return s, nil
	}

	var resolver unit.FileResolver
	if s.resolver != nil {
		resolver = s.resolver
	}

	compiler := a.Compiler(cfg, s.logger)
	if checker, ok := compiler.(engineChecker); ok && resolver != nil {
		if err := checker.CheckEngine(probe.FormatLatex); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("find TeX engine").
				WithResource(cfg.Engines.Latex.String()).
				WithIssue(issue.EngineNotFoundId).
				Wrap(err).
				BuildError()
		}
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	s.db, err = component.Open(component.Options{
		Path:            dbPath,
		Resolver:        resolver,
		Compiler:        compiler,
		Progress:        opts.progress,
		ReadConcurrency: cfg.Index.ReadConcurrency,
		Logger:          s.logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// openDatabase opens the persisted database without discovering the
// distribution. Nothing can be queued. A corrupt file is an error here, unlike
// in newSession where it is rebuilt.
func (a *App) openDatabase(ctx context.Context) (*component.Database, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	if _, err := component.Load(dbPath); errors.Is(err, component.ErrDatabaseCorrupt) {
		return nil, issue.NewErrorContext().
			WithOperation("read component database").
			WithResource(dbPath).
			WithIssue(issue.DatabaseCorruptId).
			Wrap(err).
			BuildError()
	}
	logger := a.newLogger(cfg)
	return component.Open(component.Options{
		Path:     dbPath,
		Compiler: a.Compiler(cfg, logger),
		Logger:   logger,
	})
}

// distroError attaches the matching issue to a distribution failure.
func distroError(err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("discover TeX distribution").
		Wrap(err)

	switch {
	case errors.Is(err, distro.ErrDistributionNotFound):
		ctx.WithIssue(issue.DistributionNotFoundId)
	case errors.Is(err, distro.ErrUnknownDistribution):
		ctx.WithIssue(issue.UnknownDistributionId)
	case errors.Is(err, distro.ErrInvalidDistribution):
		ctx.WithIssue(issue.InvalidDistributionId)
	default:
		ctx.WithSuggestion(fmt.Sprintf("Run '%s distro -v' for details", config.AppName))
	}
	return ctx.BuildError()
}
