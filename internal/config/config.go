// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/lintcage/lintcage/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "lintcage"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "lintcage"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "LINTCAGE"
	// maxConfigFileSize bounds the CUE file read from disk.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// loadWithOptions performs option-driven config loading.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""
	switch {
	case opts.ConfigFilePath != "":
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithIssue(issue.ConfigLoadFailedId).
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'lintcage config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	default:
		local := filepath.Join(opts.BaseDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(local) {
			resolvedPath = local
		}
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithIssue(issue.ConfigLoadFailedId).
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("See 'lintcage config --help' for configuration options").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithIssue(issue.ConfigLoadFailedId).
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Ensure each override path appears only once").
			WithSuggestion("Ignored units cannot also declare additional references").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("bundle.entries", defaults.Bundle.Entries)
	v.SetDefault("bundle.base_dir", defaults.Bundle.BaseDir)
	v.SetDefault("bundle.modules_dir", defaults.Bundle.ModulesDir)
	v.SetDefault("bundle.root_suffix", defaults.Bundle.RootSuffix)
	v.SetDefault("bundle.manifest_name", defaults.Bundle.ManifestName)
	v.SetDefault("bundle.output", defaults.Bundle.Output)
	v.SetDefault("bundle.compress", defaults.Bundle.Compress)
	v.SetDefault("bundle.max_concurrent_reads", defaults.Bundle.MaxConcurrentReads)
	v.SetDefault("bundle.overrides", defaults.Bundle.Overrides)
	v.SetDefault("run.container", defaults.Run.Container)
	v.SetDefault("run.entry", defaults.Run.Entry)
	v.SetDefault("run.synthetic_root", defaults.Run.SyntheticRoot)
	v.SetDefault("run.config_file", defaults.Run.ConfigFile)
	v.SetDefault("run.config_encoding", defaults.Run.ConfigEncoding)
	v.SetDefault("run.sandbox", defaults.Run.Sandbox)
	v.SetDefault("run.expect_digest", defaults.Run.ExpectDigest)
	v.SetDefault("run.bridges", defaults.Run.Bridges)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	configMap, err := decodeCUE(data, path)
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// decodeCUE validates data against #Config and decodes it to a map. Fields
// are optional, so values need not be concrete.
func decodeCUE(data []byte, path string) (map[string]any, error) {
	if len(data) > maxConfigFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return nil, FormatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, FormatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return nil, FormatCUEError(err, path)
	}
	return configMap, nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// lintcage configuration file\n\n")

	sb.WriteString("bundle: {\n")
	sb.WriteString("\tentries: [\n")
	for _, e := range cfg.Bundle.Entries {
		fmt.Fprintf(&sb, "\t\t%q,\n", e)
	}
	sb.WriteString("\t]\n")
	if cfg.Bundle.BaseDir != "" {
		fmt.Fprintf(&sb, "\tbase_dir: %q\n", cfg.Bundle.BaseDir)
	}
	fmt.Fprintf(&sb, "\tmodules_dir: %q\n", cfg.Bundle.ModulesDir)
	fmt.Fprintf(&sb, "\troot_suffix: %q\n", cfg.Bundle.RootSuffix)
	fmt.Fprintf(&sb, "\tmanifest_name: %q\n", cfg.Bundle.ManifestName)
	fmt.Fprintf(&sb, "\toutput: %q\n", cfg.Bundle.Output)
	fmt.Fprintf(&sb, "\tcompress: %v\n", cfg.Bundle.Compress)
	fmt.Fprintf(&sb, "\tmax_concurrent_reads: %d\n", cfg.Bundle.MaxConcurrentReads)
	if len(cfg.Bundle.Overrides) > 0 {
		sb.WriteString("\toverrides: [\n")
		for _, o := range cfg.Bundle.Overrides {
			fields := []string{fmt.Sprintf("path: %q", o.Path)}
			if o.Ignore {
				fields = append(fields, "ignore: true")
			}
			if len(o.Additional) > 0 {
				quoted := make([]string, len(o.Additional))
				for i, a := range o.Additional {
					quoted[i] = fmt.Sprintf("%q", a)
				}
				fields = append(fields, fmt.Sprintf("additional: [%s]", strings.Join(quoted, ", ")))
			}
			if o.AdditionalFromDir != "" {
				fields = append(fields, fmt.Sprintf("additional_from_dir: %q", o.AdditionalFromDir))
			}
			fmt.Fprintf(&sb, "\t\t{%s},\n", strings.Join(fields, ", "))
		}
		sb.WriteString("\t]\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\nrun: {\n")
	if cfg.Run.Container != "" {
		fmt.Fprintf(&sb, "\tcontainer: %q\n", cfg.Run.Container)
	}
	fmt.Fprintf(&sb, "\tentry: %q\n", cfg.Run.Entry)
	if cfg.Run.SyntheticRoot != "" {
		fmt.Fprintf(&sb, "\tsynthetic_root: %q\n", cfg.Run.SyntheticRoot)
	}
	fmt.Fprintf(&sb, "\tconfig_file: %q\n", cfg.Run.ConfigFile)
	if cfg.Run.ConfigEncoding != "" {
		fmt.Fprintf(&sb, "\tconfig_encoding: %q\n", cfg.Run.ConfigEncoding)
	}
	fmt.Fprintf(&sb, "\tsandbox: %v\n", cfg.Run.Sandbox)
	if cfg.Run.ExpectDigest != "" {
		fmt.Fprintf(&sb, "\texpect_digest: %q\n", cfg.Run.ExpectDigest)
	}
	if len(cfg.Run.Bridges) > 0 {
		sb.WriteString("\tbridges: [\n")
		for _, b := range cfg.Run.Bridges {
			fmt.Fprintf(&sb, "\t\t{loader: %q, target: %q},\n", b.Loader, b.Target)
		}
		sb.WriteString("\t]\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
