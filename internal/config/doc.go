// SPDX-License-Identifier: MPL-2.0

// Package config handles lintcage configuration using Viper with CUE as the file format.
//
// Configuration is read from lintcage.cue in the base directory, or from an
// explicit file, validated against the embedded #Config schema
// (config_schema.cue) and merged over the defaults. LINTCAGE_* environment
// variables override both; nested keys use underscores
// (LINTCAGE_RUN_SANDBOX=false).
//
// The defaults package eslint: its command-line entry and recommended
// configuration, the overrides eslint needs to bundle cleanly, and the
// import-fresh loader bridge.
package config
