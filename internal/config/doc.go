// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/texindex/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/texindex/config.cue on macOS, %APPDATA%\texindex\config.cue
// on Windows). It selects the kpsewhich and engine binaries, the probe compilation limits,
// the component database location and the filename database watcher.
//
// Files are validated against the embedded CUE schema (config_schema.cue) before they are
// merged over the built-in defaults.
package config
