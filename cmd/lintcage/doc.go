// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for lintcage.
//
// This package implements the Cobra command hierarchy: bundle packs a
// CommonJS tree into a container, run executes a container inside the
// sandbox, inspect describes a container, and config manages lintcage.cue.
package cmd
