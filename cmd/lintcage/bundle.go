// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lintcage/lintcage/internal/bundle"
	"github.com/lintcage/lintcage/internal/config"
	"github.com/lintcage/lintcage/internal/issue"
	"github.com/lintcage/lintcage/internal/resolve"
	"github.com/lintcage/lintcage/pkg/container"
)

// bundleOutcome describes a written container.
type bundleOutcome struct {
	*bundle.Result
	Output string
	Digest string
	Size   int
}

func newBundleCommand(app *App) *cobra.Command {
	var (
		output   string
		baseDir  string
		compress bool
	)

	cmd := &cobra.Command{
		Use:   "bundle [entry...]",
		Short: "Pack the reachable units of a program into a container",
		Long: `Pack the reachable units of a program into a container.

Entries are module references resolved from the base directory, exactly as
require() would resolve them from a file there. Every unit reachable
through require() calls is read once and written to the container in
discovery order, named relative to the common root.`,
		Example: `  lintcage bundle
  lintcage bundle --compress -o dist/eslint.bundle
  lintcage bundle ./bin/tool.js`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}

			bc := cfg.Bundle
			if len(args) > 0 {
				bc.Entries = args
			}
			if cmd.Flags().Changed("output") {
				bc.Output = output
			}
			if cmd.Flags().Changed("base-dir") {
				bc.BaseDir = baseDir
			}
			if cmd.Flags().Changed("compress") {
				bc.Compress = compress
			}

			outcome, err := app.bundleContainer(cmd.Context(), bc)
			if err != nil {
				return app.fail(err)
			}

			fmt.Fprintf(app.stdout, "%s Bundled %d units (%d bytes) into %s\n",
				SuccessStyle.Render("✓"), len(outcome.Units), outcome.Size, CmdStyle.Render(outcome.Output))
			fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("root:  "), outcome.Root)
			fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("digest:"), outcome.Digest)
			for _, identity := range outcome.UnusedOverrides {
				fmt.Fprintf(app.stdout, "  %s unused override %s\n", WarningStyle.Render("!"), identity)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", config.DefaultContainerName, "container file to write")
	cmd.Flags().StringVar(&baseDir, "base-dir", "", "directory entries are resolved from (default is the working directory)")
	cmd.Flags().BoolVar(&compress, "compress", false, "wrap the container in a zstd frame")

	return cmd
}

// bundleContainer runs the producer: resolve, traverse, encode and write.
func (a *App) bundleContainer(ctx context.Context, bc config.BundleConfig) (*bundleOutcome, error) {
	wd, err := a.getwd()
	if err != nil {
		return nil, fmt.Errorf("determine working directory: %w", err)
	}

	baseDir := bc.BaseDir
	switch {
	case baseDir == "":
		baseDir = wd
	case !filepath.IsAbs(baseDir):
		baseDir = filepath.Join(wd, baseDir)
	}

	var resolverOpts []resolve.Option
	if _, ok := a.fs.(*afero.OsFs); ok {
		// Identities are canonical paths, so the base directory and the
		// override paths derived from it must be canonical as well.
		if canonical, err := filepath.EvalSymlinks(baseDir); err == nil {
			baseDir = canonical
		}
		resolverOpts = append(resolverOpts, resolve.WithRealpath(filepath.EvalSymlinks))
	}

	overrides, err := bc.OverrideTable(a.fs, filepath.Join(baseDir, bc.ModulesDir))
	if err != nil {
		return nil, newServiceError(err, issue.BundleFailedId)
	}

	b := bundle.New(bundle.Options{
		FS:                 a.fs,
		Resolver:           resolve.New(a.fs, resolverOpts...),
		Overrides:          overrides,
		ManifestName:       bc.ManifestName,
		RootSuffix:         bc.RootSuffix,
		MaxConcurrentReads: bc.MaxConcurrentReads,
		Logger:             a.logger("bundle"),
	})
	result, err := b.Bundle(ctx, baseDir, bc.Entries)
	if err != nil {
		id := issue.BundleFailedId
		if errors.Is(err, bundle.ErrNativeExtension) || errors.Is(err, bundle.ErrUnsupportedSuffix) {
			id = issue.UnsupportedModuleId
		}
		return nil, newServiceError(err, id)
	}

	var buf bytes.Buffer
	if err := container.Encode(&buf, result.Units); err != nil {
		return nil, newServiceError(fmt.Errorf("encoding container: %w", err), issue.BundleFailedId)
	}
	raw := buf.Bytes()
	data := raw
	if bc.Compress {
		data = container.Compress(raw)
	}

	output := bc.Output
	if output == "" {
		output = config.DefaultContainerName
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(wd, output)
	}
	if err := afero.WriteFile(a.fs, output, data, 0o644); err != nil {
		return nil, issue.NewErrorContext().
			WithIssue(issue.BundleFailedId).
			WithOperation("write container").
			WithResource(output).
			WithSuggestion("Check that the output directory exists and is writable").
			Wrap(err).
			BuildError()
	}

	return &bundleOutcome{
		Result: result,
		Output: output,
		Digest: container.Digest(raw),
		Size:   len(data),
	}, nil
}
