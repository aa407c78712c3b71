// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// LogLevelDebug logs everything, including every compilation.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs service lifecycle and analyses.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs degraded results only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"

	maxReadConcurrency = 256
)

var (
	// ErrInvalidDuration is returned when a Duration value cannot be parsed or is not positive.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidExecutablePath is returned when an ExecutablePath value is empty or whitespace-only.
	ErrInvalidExecutablePath = errors.New("invalid executable path")
	// ErrInvalidReadConcurrency is returned when index.read_concurrency is out of range.
	ErrInvalidReadConcurrency = errors.New("invalid read concurrency")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Duration is a Go duration string such as "10s" or "1m30s".
	Duration string

	// InvalidDurationError is returned when a Duration value is not a positive duration.
	// It wraps ErrInvalidDuration for errors.Is() compatibility.
	InvalidDurationError struct {
		Value Duration
	}

	// LogLevel selects the minimum level of log output.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// ExecutablePath names an executable, either a bare name looked up on PATH
	// or a filesystem path.
	ExecutablePath string

	// InvalidExecutablePathError is returned when an ExecutablePath value is
	// empty or whitespace-only.
	InvalidExecutablePathError struct {
		Value ExecutablePath
	}

	// InvalidReadConcurrencyError is returned when a read concurrency is out of range.
	InvalidReadConcurrencyError struct {
		Value int
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// DatabaseFile is the component database file. Empty selects the user cache directory.
		DatabaseFile string `json:"database_path" mapstructure:"database_path"`
		// Kpsewhich is the kpsewhich executable used to find the TEXMF roots.
		Kpsewhich ExecutablePath `json:"kpsewhich" mapstructure:"kpsewhich"`
		// Engines selects the TeX engine binaries.
		Engines EnginesConfig `json:"engines" mapstructure:"engines"`
		// Compile configures probe compilations.
		Compile CompileConfig `json:"compile" mapstructure:"compile"`
		// Index configures unit loading.
		Index IndexConfig `json:"index" mapstructure:"index"`
		// Watch configures reloading of the filename databases.
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
		// LogLevel sets the minimum log level.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`

		source string
	}

	// EnginesConfig names the executable of each TeX engine.
	EnginesConfig struct {
		Latex    ExecutablePath `json:"latex" mapstructure:"latex"`
		Lualatex ExecutablePath `json:"lualatex" mapstructure:"lualatex"`
		Xelatex  ExecutablePath `json:"xelatex" mapstructure:"xelatex"`
	}

	// CompileConfig configures probe compilations.
	CompileConfig struct {
		// Timeout is the hard wall-clock limit of one compilation.
		Timeout Duration `json:"timeout" mapstructure:"timeout"`
		// ShellEscape passes -shell-escape to the engine.
		ShellEscape bool `json:"shell_escape" mapstructure:"shell_escape"`
		// ScratchDir is the parent of per-compilation scratch directories. Empty means the OS temp dir.
		ScratchDir string `json:"scratch_dir" mapstructure:"scratch_dir"`
	}

	// IndexConfig configures unit loading.
	IndexConfig struct {
		// ReadConcurrency bounds concurrent reads of included files.
		ReadConcurrency int `json:"read_concurrency" mapstructure:"read_concurrency"`
	}

	// WatchConfig configures reloading of the filename databases.
	WatchConfig struct {
		// Enabled turns the watcher on for long-running commands.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// Debounce delays reloads until the databases stop changing.
		Debounce Duration `json:"debounce" mapstructure:"debounce"`
	}
)

// String returns the duration string.
func (d Duration) String() string { return string(d) }

// Duration parses the value. Invalid values yield zero.
func (d Duration) Duration() time.Duration {
	v, err := time.ParseDuration(string(d))
	if err != nil {
		return 0
	}
	return v
}

// IsValid returns whether the Duration parses to a positive duration.
func (d Duration) IsValid() (bool, []error) {
	v, err := time.ParseDuration(string(d))
	if err != nil || v <= 0 {
		return false, []error{&InvalidDurationError{Value: d}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDurationError.
func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid duration %q (expected a positive Go duration such as \"10s\")", e.Value)
}

// Unwrap returns ErrInvalidDuration for errors.Is() compatibility.
func (e *InvalidDurationError) Unwrap() error { return ErrInvalidDuration }

// String returns the log level name.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the executable path.
func (p ExecutablePath) String() string { return string(p) }

// IsValid returns whether the ExecutablePath is non-empty and not whitespace-only.
func (p ExecutablePath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidExecutablePathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidExecutablePathError.
func (e *InvalidExecutablePathError) Error() string {
	return fmt.Sprintf("invalid executable path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidExecutablePath for errors.Is() compatibility.
func (e *InvalidExecutablePathError) Unwrap() error { return ErrInvalidExecutablePath }

// Error implements the error interface for InvalidReadConcurrencyError.
func (e *InvalidReadConcurrencyError) Error() string {
	return fmt.Sprintf("invalid read concurrency %d (valid: 1..%d)", e.Value, maxReadConcurrency)
}

// Unwrap returns ErrInvalidReadConcurrency for errors.Is() compatibility.
func (e *InvalidReadConcurrencyError) Unwrap() error { return ErrInvalidReadConcurrency }

// IsValid returns whether every engine path is valid.
func (c EnginesConfig) IsValid() (bool, []error) {
	var errs []error
	for _, p := range []ExecutablePath{c.Latex, c.Lualatex, c.Xelatex} {
		if valid, fieldErrs := p.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the Config has valid fields.
// Bool and free-form path fields need no validation.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Kpsewhich.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Engines.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Compile.Timeout.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Index.ReadConcurrency < 1 || c.Index.ReadConcurrency > maxReadConcurrency {
		errs = append(errs, &InvalidReadConcurrencyError{Value: c.Index.ReadConcurrency})
	}
	if valid, fieldErrs := c.Watch.Debounce.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DatabaseFile: "", // Will use the user cache dir if empty
		Kpsewhich:    "kpsewhich",
		Engines: EnginesConfig{
			Latex:    "latex",
			Lualatex: "lualatex",
			Xelatex:  "xelatex",
		},
		Compile: CompileConfig{
			Timeout:     "10s",
			ShellEscape: false,
			ScratchDir:  "",
		},
		Index: IndexConfig{
			ReadConcurrency: 8,
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: "2s",
		},
		LogLevel: LogLevelInfo,
	}
}
