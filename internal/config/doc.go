// SPDX-License-Identifier: MPL-2.0

// Package config loads algorist settings with Viper, using CUE files
// validated against an embedded schema (config_schema.cue).
//
// Layers, lowest precedence first: built-in defaults, the user file
// ($XDG_CONFIG_HOME/algorist/config.cue or the platform config directory),
// the contest's algorist.cue, then ALGORIST_* environment variables. An
// explicit --config file replaces both file layers.
package config
