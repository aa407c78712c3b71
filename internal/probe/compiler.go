// SPDX-License-Identifier: MPL-2.0

// Package probe compiles synthetic LaTeX documents in throwaway scratch
// directories and returns the engine's log.
//
// The log is the only output of interest: probe documents are written to make
// the engine report loaded files (\listfiles) or defined control sequences
// (\wlog) in it. A non-zero exit status is not a failure as long as a log was
// written; TeX routinely exits non-zero on warnings.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultTimeout bounds a single compilation.
	DefaultTimeout = 10 * time.Second

	sourceFileName = "code.tex"
	logFileName    = "code.log"

	// waitDelay bounds how long Wait blocks after the engine was killed.
	waitDelay = 2 * time.Second
)

var (
	// ErrTimeout is returned when the engine exceeds the compile timeout.
	ErrTimeout = errors.New("compilation timed out")
	// ErrNoLog is returned when the engine finished without writing a log.
	ErrNoLog = errors.New("compilation produced no log")
	// ErrEngineNotFound is returned when the engine executable cannot be started.
	ErrEngineNotFound = errors.New("TeX engine not found")
)

type (
	// Options configures a Compiler. Zero values select defaults.
	Options struct {
		// Executables overrides the engine binary per format.
		Executables map[Format]string
		// Timeout is the hard wall-clock limit per compilation.
		Timeout time.Duration
		// ShellEscape passes -shell-escape to the engine.
		ShellEscape bool
		// ScratchDir is the parent of the per-compilation scratch directories.
		// Empty means os.TempDir().
		ScratchDir string
		// Logger receives debug output. Nil discards it.
		Logger *log.Logger
	}

	// Compiler runs TeX engines on probe documents. It holds no per-compilation
	// state and is safe for concurrent use.
	Compiler struct {
		executables map[Format]string
		timeout     time.Duration
		shellEscape bool
		scratchDir  string
		logger      *log.Logger
	}
)

// NewCompiler creates a Compiler from the given options.
func NewCompiler(opts Options) *Compiler {
	c := &Compiler{
		executables: make(map[Format]string, len(Formats())),
		timeout:     opts.Timeout,
		shellEscape: opts.ShellEscape,
		scratchDir:  opts.ScratchDir,
		logger:      opts.Logger,
	}
	for _, f := range Formats() {
		c.executables[f] = f.String()
		if exe := opts.Executables[f]; exe != "" {
			c.executables[f] = exe
		}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// Timeout returns the per-compilation timeout.
func (c *Compiler) Timeout() time.Duration {
	return c.timeout
}

// Executable returns the engine binary used for format.
func (c *Compiler) Executable(format Format) string {
	return c.executables[format]
}

// Compile writes code to code.tex in a fresh scratch directory, runs the engine
// selected by format there and returns the content of code.log.
//
// The scratch directory is removed on every path. On timeout the engine is killed
// and ErrTimeout is returned; on cancellation of ctx the context error is
// returned. A missing log yields ErrNoLog regardless of the exit status.
func (c *Compiler) Compile(ctx context.Context, code string, format Format) (string, error) {
	if err := format.Validate(); err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp(c.scratchDir, "texindex-probe-")
	if err != nil {
		return "", fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			c.logger.Warn("failed to remove scratch directory", "dir", dir, "error", rmErr)
		}
	}()

	if err := os.WriteFile(filepath.Join(dir, sourceFileName), []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("write probe source: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	exe := c.executables[format]
	cmd := exec.CommandContext(runCtx, exe, c.args()...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil && runCtx.Err() != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("compile canceled: %w", ctxErr)
		}
		c.logger.Warn("probe compilation timed out", "engine", exe, "timeout", c.timeout)
		return "", fmt.Errorf("%w after %s (%s)", ErrTimeout, c.timeout, exe)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return "", fmt.Errorf("%w: %s: %w", ErrEngineNotFound, exe, runErr)
		}
		c.logger.Debug("engine exited with non-zero status", "engine", exe, "code", exitErr.ExitCode())
	}

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w (%s)", ErrNoLog, exe)
	}
	if err != nil {
		return "", fmt.Errorf("read compiler log: %w", err)
	}

	c.logger.Debug("probe compiled", "engine", exe, "elapsed", elapsed, "log_bytes", len(data))
	return string(data), nil
}

// CheckEngine reports whether the engine of format can be found, either as
// a path or on PATH. The error wraps ErrEngineNotFound.
func (c *Compiler) CheckEngine(format Format) error {
	if err := format.Validate(); err != nil {
		return err
	}
	exe := c.executables[format]
	if _, err := exec.LookPath(exe); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEngineNotFound, exe, err)
	}
	return nil
}

func (c *Compiler) args() []string {
	args := []string{"-interaction=batchmode"}
	if c.shellEscape {
		args = append(args, "-shell-escape")
	}
	return append(args, sourceFileName)
}
