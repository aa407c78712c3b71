// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/texlsp/texindex/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "texindex"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// DatabaseFileName is the default component database file name.
	DatabaseFileName = "components.json"
	// ConfigDirEnv overrides ConfigDir when set.
	ConfigDirEnv = "TEXINDEX_CONFIG_DIR"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns $TEXINDEX_CONFIG_DIR when set, otherwise the texindex
// directory under the platform configuration root: %APPDATA% on Windows,
// ~/Library/Application Support on macOS and $XDG_CONFIG_HOME (defaulting to
// ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Source returns the config file the configuration was read from. Empty when
// only defaults were used.
func (c *Config) Source() string {
	return c.source
}

// DatabasePath returns the component database location: the configured path,
// or components.json under the user cache directory.
func (c *Config) DatabasePath() (string, error) {
	if c.DatabasePathOverride() != "" {
		return c.DatabasePathOverride(), nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache directory: %w", err)
	}
	return filepath.Join(cacheDir, AppName, DatabaseFileName), nil
}

// DatabasePathOverride returns the configured database path with a leading
// "~/" expanded. Empty when unset.
func (c *Config) DatabasePathOverride() string {
	p := strings.TrimSpace(c.DatabaseFile)
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return p
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'texindex config init' to write a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", cueLoadError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", cueLoadError(cuePath, err)
			}
			resolvedPath = cuePath
		}
		// No config file means defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// The schema checks syntax; durations must also parse and be positive.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Durations must be positive, for example \"10s\"").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("database_path", defaults.DatabaseFile)
	v.SetDefault("kpsewhich", string(defaults.Kpsewhich))
	v.SetDefault("engines.latex", string(defaults.Engines.Latex))
	v.SetDefault("engines.lualatex", string(defaults.Engines.Lualatex))
	v.SetDefault("engines.xelatex", string(defaults.Engines.Xelatex))
	v.SetDefault("compile.timeout", string(defaults.Compile.Timeout))
	v.SetDefault("compile.shell_escape", defaults.Compile.ShellEscape)
	v.SetDefault("compile.scratch_dir", defaults.Compile.ScratchDir)
	v.SetDefault("index.read_concurrency", defaults.Index.ReadConcurrency)
	v.SetDefault("watch.enabled", defaults.Watch.Enabled)
	v.SetDefault("watch.debounce", string(defaults.Watch.Debounce))
	v.SetDefault("log_level", string(defaults.LogLevel))
}

func cueLoadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithIssue(issue.ConfigLoadFailedId).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig creates a default config file in dir if it doesn't
// exist. An empty dir selects ConfigDir. It returns the file path.
func CreateDefaultConfig(dir string) (string, error) {
	cfgDir, err := configDirWithOverride(dir)
	if err != nil {
		return "", err
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := writeCUE(cfgPath, DefaultConfig()); err != nil {
		return "", err
	}
	return cfgPath, nil
}

// Save writes cfg to the config file in dir. An empty dir selects ConfigDir.
func Save(cfg *Config, dir string) error {
	cfgDir, err := configDirWithOverride(dir)
	if err != nil {
		return err
	}
	return writeCUE(filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), cfg)
}

func writeCUE(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// texindex configuration file\n\n")

	if cfg.DatabaseFile != "" {
		fmt.Fprintf(&sb, "database_path: %q\n", cfg.DatabaseFile)
	}
	fmt.Fprintf(&sb, "kpsewhich: %q\n", cfg.Kpsewhich)
	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)

	sb.WriteString("\nengines: {\n")
	fmt.Fprintf(&sb, "\tlatex:    %q\n", cfg.Engines.Latex)
	fmt.Fprintf(&sb, "\tlualatex: %q\n", cfg.Engines.Lualatex)
	fmt.Fprintf(&sb, "\txelatex:  %q\n", cfg.Engines.Xelatex)
	sb.WriteString("}\n")

	sb.WriteString("\ncompile: {\n")
	fmt.Fprintf(&sb, "\ttimeout:      %q\n", cfg.Compile.Timeout)
	fmt.Fprintf(&sb, "\tshell_escape: %v\n", cfg.Compile.ShellEscape)
	if cfg.Compile.ScratchDir != "" {
		fmt.Fprintf(&sb, "\tscratch_dir:  %q\n", cfg.Compile.ScratchDir)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nindex: {\n")
	fmt.Fprintf(&sb, "\tread_concurrency: %d\n", cfg.Index.ReadConcurrency)
	sb.WriteString("}\n")

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tenabled:  %v\n", cfg.Watch.Enabled)
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Watch.Debounce)
	sb.WriteString("}\n")

	return sb.String()
}
