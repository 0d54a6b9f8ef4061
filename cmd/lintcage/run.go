// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lintcage/lintcage/internal/config"
	"github.com/lintcage/lintcage/internal/fileaccess"
	"github.com/lintcage/lintcage/internal/issue"
	"github.com/lintcage/lintcage/internal/jsengine"
	"github.com/lintcage/lintcage/internal/namespace"
	"github.com/lintcage/lintcage/internal/sandbox"
	"github.com/lintcage/lintcage/pkg/container"
	"github.com/lintcage/lintcage/pkg/platform"
)

// ErrDigestMismatch is returned when a container's digest differs from the
// expected one.
var ErrDigestMismatch = errors.New("container digest mismatch")

func newRunCommand(app *App) *cobra.Command {
	var (
		containerFile string
		entry         string
		configFile    string
		expectDigest  string
		noSandbox     bool
	)

	cmd := &cobra.Command{
		Use:   "run [flags] [-- program arguments]",
		Short: "Run the entry unit of a container inside the sandbox",
		Long: `Run the entry unit of a container inside the sandbox.

The lint configuration file is read before the sandbox is entered and
served from memory afterwards. Every other filesystem access made by the
bundled program fails with ENOSYS. Arguments after the flags are passed to
the program as process.argv.`,
		Example: `  lintcage run -- src/
  lintcage run --container ./eslint.bundle --config-file .eslintrc.json -- --fix lib/`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}

			rc := cfg.Run
			if cmd.Flags().Changed("container") {
				rc.Container = containerFile
			}
			if cmd.Flags().Changed("entry") {
				rc.Entry = entry
			}
			if cmd.Flags().Changed("config-file") {
				rc.ConfigFile = configFile
			}
			if cmd.Flags().Changed("expect-digest") {
				rc.ExpectDigest = expectDigest
			}
			if noSandbox {
				rc.Sandbox = false
			}

			code, err := app.runContainer(cmd.Context(), rc, args)
			if err != nil {
				return app.fail(err)
			}
			app.exitCode = code
			return nil
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&containerFile, "container", "", "container file (default is "+config.DefaultContainerName+" next to the executable)")
	cmd.Flags().StringVar(&entry, "entry", "", "unit executed first")
	cmd.Flags().StringVar(&configFile, "config-file", "", "lint configuration read before entering the sandbox")
	cmd.Flags().StringVar(&expectDigest, "expect-digest", "", "refuse containers whose BLAKE3 digest differs")
	cmd.Flags().BoolVar(&noSandbox, "no-sandbox", false, "skip the seccomp sandbox (debugging only)")

	return cmd
}

// runContainer runs the consumer and returns the program's exit code.
func (a *App) runContainer(ctx context.Context, rc config.RunConfig, args []string) (int, error) {
	logger := a.logger("run")

	path, err := a.containerPath(rc.Container)
	if err != nil {
		return 0, err
	}
	raw, err := a.readRawContainer(path)
	if err != nil {
		return 0, err
	}

	digest := container.Digest(raw.Raw)
	if rc.ExpectDigest != "" && !strings.EqualFold(rc.ExpectDigest, digest) {
		return 0, newServiceError(fmt.Errorf("%w: %s has %s, expected %s", ErrDigestMismatch, path, digest, rc.ExpectDigest), issue.DigestMismatchId)
	}
	logger.Debug("container read", "path", path, "size", len(raw.Raw), "digest", digest)

	exe, err := a.executablePath()
	if err != nil {
		return 0, err
	}
	wd, err := a.getwd()
	if err != nil {
		return 0, fmt.Errorf("determine working directory: %w", err)
	}

	reader := fileaccess.New(a.fs)
	if rc.ConfigFile != "" {
		configPath := rc.ConfigFile
		if !filepath.IsAbs(configPath) {
			configPath = filepath.Join(wd, configPath)
		}
		content, err := reader.ReadFile(configPath, rc.ConfigEncoding)
		if err != nil {
			return 0, newServiceError(fmt.Errorf("reading lint configuration: %w", err), issue.LintConfigUnreadableId)
		}
		reader = fileaccess.Intercept(reader, configPath, rc.ConfigEncoding, content)
	}

	root := rc.SyntheticRoot
	if root == "" {
		root = filepath.Join(filepath.Dir(exe), config.DefaultModulesDir)
	}

	engine, err := jsengine.New(jsengine.Options{
		Reader: reader,
		Stdout: a.stdout,
		Stderr: a.stderr,
		Argv:   append([]string{exe, filepath.Join(root, filepath.FromSlash(rc.Entry))}, args...),
		Env:    environ(),
		Cwd:    wd,
	})
	if err != nil {
		return 0, fmt.Errorf("starting engine: %w", err)
	}

	if rc.Sandbox {
		capability := a.capability
		if capability == nil {
			capability = sandbox.NewSeccomp(a.logger("sandbox"))
		}
		guard := sandbox.NewGuard(capability, sandbox.StatCanary(exe), a.logger("sandbox"))
		if err := guard.Enter(); err != nil {
			if hint := platform.SeccompHint(platform.DetectConfinement()); hint != "" {
				logger.Warn(hint)
			}
			return 0, newServiceError(err, issue.SandboxFailedId)
		}
	} else {
		logger.Warn("running without the sandbox")
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	// Units are decoded and reconstructed only once the sandbox holds.
	loaded, err := raw.decode()
	if err != nil {
		return 0, err
	}
	logger.Debug("container decoded", "units", len(loaded.Units))

	ns := namespace.New(loaded.Units, engine, namespace.WithRoot(root))
	if !ns.Has(rc.Entry) {
		return 0, newServiceError(fmt.Errorf("entry %q: %w", rc.Entry, namespace.ErrUnknownUnit), issue.ContainerMalformedId)
	}

	for _, b := range rc.Bridges {
		if err := ns.InstallBridge(b.Loader, b.Target); err != nil {
			// Containers built without the loader simply do not need it.
			logger.Debug("bridge not installed", "loader", b.Loader, "target", b.Target, "error", err)
		}
	}

	if _, err := ns.Get(rc.Entry); err != nil {
		var exit *jsengine.ExitError
		if errors.As(err, &exit) {
			return exit.Code, nil
		}
		return 0, &ExitError{Code: exitProgramError, Err: newServiceError(err, issue.ProgramFailedId)}
	}
	return engine.ExitCode(), nil
}

// environ returns the process environment as a map.
func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
