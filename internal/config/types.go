// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultContainerName is the container file written by bundle and read by run.
	DefaultContainerName = "eslint.bundle"
	// DefaultModulesDir holds the packages being bundled, relative to the base directory.
	DefaultModulesDir = "node_modules"
	// DefaultMaxConcurrentReads bounds parallel file reads during bundling.
	DefaultMaxConcurrentReads = 32
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Config is the complete lintcage configuration.
	Config struct {
		Bundle BundleConfig `mapstructure:"bundle"`
		Run    RunConfig    `mapstructure:"run"`
		UI     UIConfig     `mapstructure:"ui"`
	}

	// BundleConfig configures the producer.
	BundleConfig struct {
		// Entries are the references traversal starts from.
		Entries []string `mapstructure:"entries"`
		// BaseDir is the directory entries resolve from. Empty means the
		// working directory.
		BaseDir string `mapstructure:"base_dir"`
		// ModulesDir is the package directory override paths are relative to.
		ModulesDir string `mapstructure:"modules_dir"`
		// RootSuffix is removed from the first unit to derive the common root.
		RootSuffix string `mapstructure:"root_suffix"`
		// ManifestName is the package manifest whose private keys are stripped.
		ManifestName string `mapstructure:"manifest_name"`
		// Output is the container file path.
		Output string `mapstructure:"output"`
		// Compress writes a zstd-compressed container.
		Compress bool `mapstructure:"compress"`
		// MaxConcurrentReads bounds parallel reads. Zero is unbounded.
		MaxConcurrentReads int `mapstructure:"max_concurrent_reads"`
		// Overrides adjust traversal for individual units.
		Overrides []OverrideEntry `mapstructure:"overrides"`
	}

	// OverrideEntry configures one override table entry.
	OverrideEntry struct {
		Path              string   `mapstructure:"path"`
		Ignore            bool     `mapstructure:"ignore"`
		Additional        []string `mapstructure:"additional"`
		AdditionalFromDir string   `mapstructure:"additional_from_dir"`
	}

	// RunConfig configures the consumer.
	RunConfig struct {
		// Container is the container file. Empty selects DefaultContainerName
		// next to the executable.
		Container string `mapstructure:"container"`
		// Entry is the unit executed first.
		Entry string `mapstructure:"entry"`
		// SyntheticRoot anchors unit paths. Empty selects node_modules next
		// to the executable.
		SyntheticRoot string `mapstructure:"synthetic_root"`
		// ConfigFile is read before the sandbox is entered and served from
		// memory afterwards. Empty disables interception.
		ConfigFile string `mapstructure:"config_file"`
		// ConfigEncoding is the encoding the intercepted read must request.
		ConfigEncoding string `mapstructure:"config_encoding"`
		// Sandbox enables the seccomp guard.
		Sandbox bool `mapstructure:"sandbox"`
		// ExpectDigest rejects containers with a different digest.
		ExpectDigest string `mapstructure:"expect_digest"`
		// Bridges are dynamic loader bridges installed before execution.
		Bridges []Bridge `mapstructure:"bridges"`
	}

	// Bridge maps a loader unit to the unit it serves.
	Bridge struct {
		Loader string `mapstructure:"loader"`
		Target string `mapstructure:"target"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		Verbose bool `mapstructure:"verbose"`
	}

	// InvalidConfigError is returned when a loaded configuration is not
	// usable. It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the eslint packaging configuration.
func DefaultConfig() *Config {
	return &Config{
		Bundle: BundleConfig{
			Entries:            []string{"eslint/bin/eslint.js", "eslint/conf/eslint-recommended.js"},
			ModulesDir:         DefaultModulesDir,
			RootSuffix:         "eslint/bin/eslint.js",
			ManifestName:       "package.json",
			Output:             DefaultContainerName,
			MaxConcurrentReads: DefaultMaxConcurrentReads,
			Overrides: []OverrideEntry{
				{Path: "eslint/node_modules/js-yaml/index.js", Ignore: true},
				{Path: "eslint/lib/cli-engine.js", AdditionalFromDir: "eslint/lib/formatters"},
				{Path: "eslint/lib/linter.js", Additional: []string{"espree"}},
			},
		},
		Run: RunConfig{
			Entry:          "eslint/bin/eslint.js",
			ConfigFile:     ".eslintrc.json",
			ConfigEncoding: "utf8",
			Sandbox:        true,
			Bridges: []Bridge{
				{Loader: "eslint/node_modules/import-fresh/index.js", Target: "eslint/conf/eslint-recommended.js"},
			},
		},
	}
}

// Validate checks constraints the schema cannot express, such as duplicate
// override paths.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Bundle.Entries) == 0 {
		errs = append(errs, errors.New("bundle.entries: at least one entry is required"))
	}
	if c.Bundle.MaxConcurrentReads < 0 {
		errs = append(errs, fmt.Errorf("bundle.max_concurrent_reads: %d is negative", c.Bundle.MaxConcurrentReads))
	}
	seen := make(map[string]int)
	for i, o := range c.Bundle.Overrides {
		if strings.TrimSpace(o.Path) == "" {
			errs = append(errs, fmt.Errorf("bundle.overrides[%d].path: must not be empty", i))
			continue
		}
		if first, ok := seen[o.Path]; ok {
			errs = append(errs, fmt.Errorf("bundle.overrides[%d]: duplicate path %q (same as bundle.overrides[%d])", i, o.Path, first))
		}
		seen[o.Path] = i
		if o.Ignore && (len(o.Additional) > 0 || o.AdditionalFromDir != "") {
			errs = append(errs, fmt.Errorf("bundle.overrides[%d]: ignored unit %q cannot have additional references", i, o.Path))
		}
	}
	for i, b := range c.Run.Bridges {
		if b.Loader == "" || b.Target == "" {
			errs = append(errs, fmt.Errorf("run.bridges[%d]: loader and target are required", i))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
