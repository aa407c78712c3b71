// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"fmt"
)

type (
	// LoadOptions selects the configuration source and carries command-line
	// overrides applied on top of it.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir when set.
		ConfigDirPath string
		// DatabasePath overrides database_path when set.
		DatabasePath string
		// LogLevel overrides log_level when set.
		LogLevel LogLevel
	}

	// Provider loads configuration from explicit options.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	fileProvider struct{}
)

// NewProvider creates a Provider reading CUE files.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads the configuration file, applies the overrides in opts and
// validates the result.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, source, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	cfg.source = source

	if opts.DatabasePath != "" {
		cfg.DatabaseFile = opts.DatabasePath
	}
	if opts.LogLevel != "" {
		if valid, errs := opts.LogLevel.IsValid(); !valid {
			return nil, fmt.Errorf("log level override: %w", errs[0])
		}
		cfg.LogLevel = opts.LogLevel
	}
	return cfg, nil
}
