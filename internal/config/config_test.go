// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/texlsp/texindex/internal/issue"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Kpsewhich != "kpsewhich" {
		t.Errorf("expected default kpsewhich to be kpsewhich, got %s", cfg.Kpsewhich)
	}
	if cfg.Engines.Latex != "latex" || cfg.Engines.Lualatex != "lualatex" || cfg.Engines.Xelatex != "xelatex" {
		t.Errorf("unexpected default engines: %+v", cfg.Engines)
	}
	if got := cfg.Compile.Timeout.Duration(); got != 10*time.Second {
		t.Errorf("expected default compile timeout to be 10s, got %s", got)
	}
	if cfg.Compile.ShellEscape {
		t.Error("expected shell escape to be disabled by default")
	}
	if cfg.Index.ReadConcurrency != 8 {
		t.Errorf("expected default read concurrency to be 8, got %d", cfg.Index.ReadConcurrency)
	}
	if cfg.Watch.Enabled {
		t.Error("expected watching to be disabled by default")
	}
	if cfg.LogLevel != LogLevelInfo {
		t.Errorf("expected default log level to be info, got %s", cfg.LogLevel)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("default config should be valid, got %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only honored on Linux")
	}

	t.Setenv(ConfigDirEnv, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg-config")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}
}

func TestConfigDir_EnvOverride(t *testing.T) {
	t.Setenv(ConfigDirEnv, "/custom/config")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if dir != "/custom/config" {
		t.Errorf("ConfigDir() = %s, want /custom/config", dir)
	}
}

func TestDatabasePath(t *testing.T) {
	t.Parallel()

	t.Run("configured", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.DatabaseFile = "/var/lib/texindex/db.json"

		got, err := cfg.DatabasePath()
		if err != nil {
			t.Fatalf("DatabasePath() returned error: %v", err)
		}
		if got != "/var/lib/texindex/db.json" {
			t.Errorf("DatabasePath() = %s", got)
		}
	})

	t.Run("home relative", func(t *testing.T) {
		t.Parallel()
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		cfg := DefaultConfig()
		cfg.DatabaseFile = "~/tex/db.json"

		if got := cfg.DatabasePathOverride(); got != filepath.Join(home, "tex", "db.json") {
			t.Errorf("DatabasePathOverride() = %s", got)
		}
	})

	t.Run("cache default", func(t *testing.T) {
		t.Parallel()
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			t.Skip("no user cache directory")
		}

		got, err := DefaultConfig().DatabasePath()
		if err != nil {
			t.Fatalf("DatabasePath() returned error: %v", err)
		}
		if want := filepath.Join(cacheDir, AppName, DatabaseFileName); got != want {
			t.Errorf("DatabasePath() = %s, want %s", got, want)
		}
	})
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("loadWithOptions() returned error: %v", err)
	}
	if path != "" {
		t.Errorf("expected no resolved path, got %s", path)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadAndSave(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.DatabaseFile = "/tmp/components.json"
	cfg.Engines.Lualatex = "/opt/tex/bin/lualatex"
	cfg.Compile.Timeout = "45s"
	cfg.Compile.ShellEscape = true
	cfg.Compile.ScratchDir = "/tmp/scratch"
	cfg.Index.ReadConcurrency = 3
	cfg.Watch.Enabled = true
	cfg.Watch.Debounce = "500ms"
	cfg.LogLevel = LogLevelDebug

	if err := Save(cfg, dir); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	loaded, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() returned error: %v", err)
	}
	if want := filepath.Join(dir, "config.cue"); path != want {
		t.Errorf("resolved path = %s, want %s", path, want)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", loaded, cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "partial.cue")
	content := "compile: timeout: \"1m\"\nengines: xelatex: \"/usr/local/bin/xelatex\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Compile.Timeout.Duration() != time.Minute {
		t.Errorf("timeout = %s, want 1m", cfg.Compile.Timeout)
	}
	if cfg.Engines.Xelatex != "/usr/local/bin/xelatex" {
		t.Errorf("xelatex = %s", cfg.Engines.Xelatex)
	}
	if cfg.Engines.Latex != "latex" {
		t.Errorf("latex should keep its default, got %s", cfg.Engines.Latex)
	}
	if cfg.Index.ReadConcurrency != 8 {
		t.Errorf("read concurrency should keep its default, got %d", cfg.Index.ReadConcurrency)
	}
}

func TestLoad_CustomPath_NotFound_ReturnsError(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.cue")
	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *issue.ActionableError, got %T", err)
	}
	if ae.Issue() == nil || ae.Issue().Id() != issue.ConfigLoadFailedId {
		t.Error("expected the ConfigLoadFailed issue to be linked")
	}
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("error should contain the path, got: %s", err)
	}
}

func TestLoad_InvalidFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"syntax", "this is not valid CUE syntax {{{{", "load configuration"},
		{"unknown field", "container_engine: \"podman\"\n", "container_engine"},
		{"bad log level", "log_level: \"trace\"\n", "log_level"},
		{"bad duration", "compile: timeout: \"ten seconds\"\n", "timeout"},
		{"zero concurrency", "index: read_concurrency: 0\n", "read_concurrency"},
		{"empty engine", "engines: latex: \"\"\n", "latex"},
		{"zero duration", "watch: debounce: \"0s\"\n", "invalid duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.cue")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error should contain %q, got: %s", tt.contains, err)
			}
		})
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoad_OversizedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.cue")
	big := "// " + strings.Repeat("x", maxConfigFileSize) + "\n"
	if err := os.WriteFile(path, []byte(big), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested")

	path, err := CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() returned error: %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %s", path)
	}

	// An existing file is left untouched.
	if err := os.WriteFile(path, []byte("log_level: \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("failed to overwrite config: %v", err)
	}
	if _, err := CreateDefaultConfig(dir); err != nil {
		t.Fatalf("second CreateDefaultConfig() returned error: %v", err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.LogLevel != LogLevelWarn {
		t.Errorf("existing file was overwritten, log level = %s", cfg.LogLevel)
	}
}

func TestGenerateCUE_ParsesAgainstSchema(t *testing.T) {
	t.Parallel()

	out := GenerateCUE(DefaultConfig())
	if strings.Contains(out, "database_path") {
		t.Error("empty database path should be omitted")
	}
	if _, err := decodeCUE([]byte(out), "generated.cue"); err != nil {
		t.Errorf("generated CUE does not match the schema: %v", err)
	}
}
