// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lintcage",
		Short: "Package a lint program into one container and run it sandboxed",
		Long: TitleStyle.Render("lintcage") + SubtitleStyle.Render(" - Package a lint program into one container and run it sandboxed") + `

lintcage walks the CommonJS require graph of a lint program, packs every
reachable unit into a single container file, and later runs the program
from that container under a seccomp filter that refuses filesystem access.

` + SubtitleStyle.Render("Examples:") + `
  lintcage bundle                 Pack node_modules/eslint into eslint.bundle
  lintcage inspect eslint.bundle  List the units of a container
  lintcage run -- src/            Lint src/ with the bundled program
  lintcage config show            Show the effective configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is ./lintcage.cue)")

	rootCmd.AddCommand(newBundleCommand(app))
	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newInspectCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the command tree and exits with the bundled program's exit
// code. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
	os.Exit(app.ExitCode())
}
