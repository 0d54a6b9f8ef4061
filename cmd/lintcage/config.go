// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lintcage/lintcage/internal/config"
	"github.com/lintcage/lintcage/internal/issue"
)

var errConfigExists = errors.New("configuration file already exists")

// newConfigCommand creates the `lintcage config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage lintcage configuration",
		Long: `Manage lintcage configuration.

Configuration is read from lintcage.cue in the working directory, or from
the file named by --config. Every field can be overridden from the
environment with a LINTCAGE_ prefix, e.g. LINTCAGE_RUN_SANDBOX=false.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := showConfig(cmd.Context(), app); err != nil {
				return app.fail(err)
			}
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create lintcage.cue with the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(app, force); err != nil {
				return app.fail(err)
			}
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath(app)
			if err != nil {
				return app.fail(err)
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	return cfgCmd
}

// configFilePath returns the file lintcage reads its configuration from.
func configFilePath(app *App) (string, error) {
	if app.configPath != "" {
		return app.configPath, nil
	}
	wd, err := app.getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return filepath.Join(wd, config.ConfigFileName+"."+config.ConfigFileExt), nil
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	path, err := configFilePath(app)
	if err != nil {
		return err
	}
	source := SubtitleStyle.Render("(using defaults)")
	if exists, _ := afero.Exists(app.fs, path); exists {
		source = path
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintf(app.stdout, "%s: %s\n\n", CmdStyle.Render("Config file"), source)
	fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	return nil
}

func initConfig(app *App, force bool) error {
	path, err := configFilePath(app)
	if err != nil {
		return err
	}

	if exists, _ := afero.Exists(app.fs, path); exists && !force {
		return issue.NewErrorContext().
			WithOperation("create configuration").
			WithResource(path).
			WithSuggestion("Pass --force to overwrite it").
			WithSuggestion("Use 'lintcage config show' to see what it currently sets").
			Wrap(errConfigExists).
			BuildError()
	}

	if err := afero.WriteFile(app.fs, path, []byte(config.GenerateCUE(config.DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}
