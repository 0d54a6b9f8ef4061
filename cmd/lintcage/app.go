// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/lintcage/lintcage/internal/config"
	"github.com/lintcage/lintcage/internal/issue"
	"github.com/lintcage/lintcage/internal/sandbox"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and
	// reaches the filesystem, the sandbox and configuration through it.
	App struct {
		Config config.Provider

		fs         afero.Fs
		capability sandbox.Capability
		executable func() (string, error)
		getwd      func() (string, error)
		stdout     io.Writer
		stderr     io.Writer

		verbose    bool
		configPath string
		// exitCode is the bundled program's exit code, applied by Execute
		// after the command tree returns.
		exitCode int
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		FS     afero.Fs
		// Capability replaces the seccomp capability.
		Capability sandbox.Capability
		// Executable reports the running binary's path. It anchors the
		// default container, the synthetic root and the canary.
		Executable func() (string, error)
		Getwd      func() (string, error)
		Stdout     io.Writer
		Stderr     io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.FS == nil {
		deps.FS = afero.NewOsFs()
	}
	if deps.Executable == nil {
		deps.Executable = os.Executable
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}

	return &App{
		Config:     deps.Config,
		fs:         deps.FS,
		capability: deps.Capability,
		executable: deps.Executable,
		getwd:      deps.Getwd,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
}

// ExitCode returns the exit code of the last program run.
func (a *App) ExitCode() int {
	return a.exitCode
}

// logger returns a component logger honoring the verbose setting.
func (a *App) logger(prefix string) *log.Logger {
	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{Prefix: prefix, Level: level})
}

// loadConfig loads lintcage.cue from the --config path or the working
// directory.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	wd, err := a.getwd()
	if err != nil {
		return nil, fmt.Errorf("determine working directory: %w", err)
	}
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath, BaseDir: wd})
	if err != nil {
		if issue.IdOf(err) != 0 {
			return nil, err
		}
		return nil, newServiceError(err, issue.ConfigLoadFailedId)
	}
	if cfg.UI.Verbose {
		a.verbose = true
	}
	return cfg, nil
}

// fail renders any catalogued help for err and turns it into an exit
// error. Errors that already carry an exit code keep it; everything else
// is a setup failure.
func (a *App) fail(err error) error {
	renderIssue(a.stderr, err)
	if a.verbose {
		fmt.Fprintln(a.stderr, formatErrorForDisplay(err, true))
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &ExitError{Code: exitSetupError, Err: err}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
