// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/lintcage/lintcage/internal/override"
	"github.com/lintcage/lintcage/internal/resolve"
	"github.com/lintcage/lintcage/internal/scan"
	"github.com/lintcage/lintcage/pkg/container"
)

// entryReferrer is the placeholder file name entry references are resolved
// against. Only its directory matters.
const entryReferrer = "[entry]"

var (
	// ErrNativeExtension is returned when a reference resolves to a compiled
	// .node extension.
	ErrNativeExtension = errors.New("native extensions cannot be bundled")
	// ErrUnsupportedSuffix is returned when a reference resolves to a file
	// that is neither .js nor .json.
	ErrUnsupportedSuffix = errors.New("unsupported module suffix")
	// ErrNoUnits is returned when no entry reference produced a unit.
	ErrNoUnits = errors.New("no units discovered")
)

type (
	// HostResolver maps a reference to a canonical identity. A built-in
	// module resolves to the reference itself.
	HostResolver interface {
		Resolve(reference, referrer string) (string, error)
	}

	// Options configures a Bundler.
	Options struct {
		// FS is the filesystem units are read from. Defaults to the OS filesystem.
		FS afero.Fs
		// Resolver performs host resolution. Defaults to a resolve.Resolver over FS.
		Resolver HostResolver
		// Overrides is consulted for every resolved identity. May be nil.
		Overrides *override.Table
		// ManifestName is the base name of package manifests whose private
		// keys are stripped. Defaults to resolve.ManifestName.
		ManifestName string
		// RootSuffix is removed from the first unit's identity to derive the
		// common root. Empty selects the longest common directory.
		RootSuffix string
		// MaxConcurrentReads bounds the reads of one level. Zero is unbounded.
		MaxConcurrentReads int
		// Logger receives traversal diagnostics.
		Logger *log.Logger
	}

	// Bundler walks the reference graph of a CommonJS program.
	// A Bundler is not safe for concurrent use.
	Bundler struct {
		opts      Options
		overrides *override.Table
		units     map[string]*unit
		order     []string
		pending   []string
	}

	// Result is the outcome of a completed traversal.
	Result struct {
		// Root is the common prefix removed from every identity.
		Root string
		// Units are the discovered units in first-discovery order.
		Units []container.Unit
		// UnusedOverrides lists override identities never consulted.
		UnusedOverrides []string
		// Reads counts the files read during traversal.
		Reads int
	}

	unit struct {
		identity   string
		additional []string
		content    string
		deps       []container.Dependency
		seen       map[string]bool
	}
)

// New creates a Bundler.
func New(opts Options) *Bundler {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Resolver == nil {
		opts.Resolver = resolve.New(opts.FS)
	}
	if opts.ManifestName == "" {
		opts.ManifestName = resolve.ManifestName
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "bundle"})
	}
	overrides := opts.Overrides
	if overrides == nil {
		overrides = override.NewTable()
	}
	return &Bundler{
		opts:      opts,
		overrides: overrides,
		units:     make(map[string]*unit),
	}
}

// Resolve maps reference, as written in referrer, to a unit identity and
// registers that unit for reading if it is new. An empty identity means
// the reference is absent from the container: a built-in module or an
// ignored override.
func (b *Bundler) Resolve(reference, referrer string) (string, error) {
	identity, err := b.opts.Resolver.Resolve(reference, referrer)
	if err != nil {
		return "", err
	}
	if identity == reference {
		return "", nil
	}

	entry, overridden := b.overrides.Lookup(identity)
	if overridden && entry.Ignore {
		b.opts.Logger.Debug("ignoring unit", "identity", identity)
		return "", nil
	}

	switch ext := filepath.Ext(identity); ext {
	case ".js", ".json":
	case ".node":
		return "", fmt.Errorf("%w: %s", ErrNativeExtension, identity)
	default:
		return "", fmt.Errorf("%w %q: %s", ErrUnsupportedSuffix, ext, identity)
	}

	if _, ok := b.units[identity]; ok {
		return identity, nil
	}

	b.units[identity] = &unit{
		identity:   identity,
		additional: entry.AdditionalReferences,
		seen:       make(map[string]bool),
	}
	b.order = append(b.order, identity)
	b.pending = append(b.pending, identity)
	return identity, nil
}

// Wait reads and processes registered units until none are pending.
func (b *Bundler) Wait(ctx context.Context) (reads int, err error) {
	for len(b.pending) > 0 {
		level := b.pending
		b.pending = nil

		contents := make([][]byte, len(level))
		g, gctx := errgroup.WithContext(ctx)
		if b.opts.MaxConcurrentReads > 0 {
			g.SetLimit(b.opts.MaxConcurrentReads)
		}
		for i, identity := range level {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				data, err := afero.ReadFile(b.opts.FS, identity)
				if err != nil {
					return fmt.Errorf("reading %s: %w", identity, err)
				}
				contents[i] = data
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return reads, err
		}
		reads += len(level)

		for i, identity := range level {
			if err := b.process(b.units[identity], string(contents[i])); err != nil {
				return reads, err
			}
		}
	}
	return reads, nil
}

func (b *Bundler) process(u *unit, content string) error {
	if filepath.Ext(u.identity) == ".json" {
		if filepath.Base(u.identity) == b.opts.ManifestName {
			stripped, err := StripPrivateKeys(content)
			if err != nil {
				return fmt.Errorf("%s: %w", u.identity, err)
			}
			content = stripped
		}
		u.content = content
		return nil
	}

	u.content = content
	references := append(scan.References(content), u.additional...)
	for _, reference := range references {
		if u.seen[reference] {
			continue
		}
		target, err := b.Resolve(reference, u.identity)
		if err != nil {
			return fmt.Errorf("resolving %q from %s: %w", reference, u.identity, err)
		}
		if target == "" {
			continue
		}
		u.seen[reference] = true
		u.deps = append(u.deps, container.Dependency{Reference: reference, Target: target})
	}
	return nil
}

// Bundle resolves entries relative to baseDir, walks the reference graph
// to completion and returns the units with names relative to the common
// root.
func (b *Bundler) Bundle(ctx context.Context, baseDir string, entries []string) (*Result, error) {
	referrer := filepath.Join(baseDir, entryReferrer)
	for _, entry := range entries {
		if _, err := b.Resolve(entry, referrer); err != nil {
			return nil, fmt.Errorf("resolving entry %q: %w", entry, err)
		}
	}

	reads, err := b.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if len(b.order) == 0 {
		return nil, ErrNoUnits
	}

	unused := b.overrides.Unused()
	for _, identity := range unused {
		b.opts.Logger.Warn("override was never used", "identity", identity)
	}

	root, err := commonRoot(b.order, b.opts.RootSuffix)
	if err != nil {
		return nil, err
	}

	units := make([]container.Unit, 0, len(b.order))
	for _, identity := range b.order {
		u := b.units[identity]
		name, err := relativeName(root, identity)
		if err != nil {
			return nil, err
		}
		var deps []container.Dependency
		for _, dep := range u.deps {
			target, err := relativeName(root, dep.Target)
			if err != nil {
				return nil, err
			}
			deps = append(deps, container.Dependency{Reference: dep.Reference, Target: target})
		}
		units = append(units, container.Unit{Name: name, Dependencies: deps, Content: u.content})
	}

	b.opts.Logger.Debug("bundle complete", "units", len(units), "reads", reads, "root", root)
	return &Result{Root: root, Units: units, UnusedOverrides: unused, Reads: reads}, nil
}
