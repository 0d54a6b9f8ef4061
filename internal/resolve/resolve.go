// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
)

const (
	// ManifestName is the package manifest consulted for "main".
	ManifestName = "package.json"

	defaultCacheSize = 4096
)

// ErrNotFound is returned when no file satisfies a reference.
var ErrNotFound = errors.New("cannot find module")

// extensions are tried, in order, when a reference names a file without
// its suffix.
var extensions = []string{".js", ".json", ".node"}

type (
	// NotFoundError carries the reference that failed to resolve.
	NotFoundError struct {
		Reference string
		Referrer  string
	}

	// Resolver resolves references against a filesystem.
	Resolver struct {
		fs        afero.Fs
		realpath  func(string) (string, error)
		manifests *lru.Cache[string, manifest]
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	// manifest is the cached view of one package.json.
	manifest struct {
		main   string
		exists bool
	}
)

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cannot find module %q from %s", e.Reference, e.Referrer)
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// WithRealpath installs a hook applied to every resolved file, typically
// filepath.EvalSymlinks, so that symlinked packages share one identity.
func WithRealpath(fn func(string) (string, error)) Option {
	return func(r *Resolver) {
		r.realpath = fn
	}
}

// WithCacheSize sets the number of package manifests kept in memory.
func WithCacheSize(size int) Option {
	return func(r *Resolver) {
		if size > 0 {
			cache, err := lru.New[string, manifest](size)
			if err == nil {
				r.manifests = cache
			}
		}
	}
}

// New creates a Resolver reading from fs.
func New(fs afero.Fs, opts ...Option) *Resolver {
	cache, err := lru.New[string, manifest](defaultCacheSize)
	if err != nil {
		panic("resolve: manifest cache initialization failed: " + err.Error())
	}
	r := &Resolver{fs: fs, manifests: cache}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the canonical identity reference resolves to when
// required from the file referrer. Built-in modules resolve to the
// reference itself.
func (r *Resolver) Resolve(reference, referrer string) (string, error) {
	if IsBuiltin(reference) {
		return reference, nil
	}
	if reference == "" {
		return "", &NotFoundError{Reference: reference, Referrer: referrer}
	}

	dir := filepath.Dir(referrer)
	var (
		found string
		ok    bool
		err   error
	)
	if isPathReference(reference) {
		target := filepath.FromSlash(reference)
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		found, ok, err = r.loadPath(target, strings.HasSuffix(reference, "/"))
	} else {
		for _, modulesDir := range nodeModulesPaths(dir) {
			found, ok, err = r.loadPath(filepath.Join(modulesDir, filepath.FromSlash(reference)), false)
			if err != nil || ok {
				break
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("resolving %q from %s: %w", reference, referrer, err)
	}
	if !ok {
		return "", &NotFoundError{Reference: reference, Referrer: referrer}
	}

	if r.realpath != nil {
		canonical, err := r.realpath(found)
		if err != nil {
			return "", fmt.Errorf("realpath %s: %w", found, err)
		}
		found = canonical
	}
	return found, nil
}

// isPathReference reports whether reference is relative or absolute
// rather than a package name.
func isPathReference(reference string) bool {
	return reference == "." || reference == ".." ||
		strings.HasPrefix(reference, "./") || strings.HasPrefix(reference, "../") ||
		strings.HasPrefix(reference, "/") || filepath.IsAbs(reference)
}

// nodeModulesPaths lists candidate node_modules directories from dir up to
// the root, nearest first.
func nodeModulesPaths(dir string) []string {
	var paths []string
	for {
		if filepath.Base(dir) != "node_modules" {
			paths = append(paths, filepath.Join(dir, "node_modules"))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return paths
		}
		dir = parent
	}
}

func (r *Resolver) loadPath(target string, directoryOnly bool) (string, bool, error) {
	if !directoryOnly {
		if found, ok := r.loadAsFile(target); ok {
			return found, true, nil
		}
	}
	return r.loadAsDirectory(target)
}

func (r *Resolver) loadAsFile(target string) (string, bool) {
	if r.isFile(target) {
		return target, true
	}
	for _, ext := range extensions {
		if candidate := target + ext; r.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) loadIndex(dir string) (string, bool) {
	for _, ext := range extensions {
		if candidate := filepath.Join(dir, "index"+ext); r.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) loadAsDirectory(dir string) (string, bool, error) {
	m, err := r.readManifest(dir)
	if err != nil {
		return "", false, err
	}
	if m.exists && m.main != "" {
		mainPath := filepath.Join(dir, filepath.FromSlash(m.main))
		if found, ok := r.loadAsFile(mainPath); ok {
			return found, true, nil
		}
		if found, ok := r.loadIndex(mainPath); ok {
			return found, true, nil
		}
	}
	found, ok := r.loadIndex(dir)
	return found, ok, nil
}

func (r *Resolver) readManifest(dir string) (manifest, error) {
	if cached, ok := r.manifests.Get(dir); ok {
		return cached, nil
	}

	path := filepath.Join(dir, ManifestName)
	var m manifest
	if r.isFile(path) {
		data, err := afero.ReadFile(r.fs, path)
		if err != nil {
			return manifest{}, fmt.Errorf("reading %s: %w", path, err)
		}
		var parsed struct {
			Main string `json:"main"`
		}
		if err := json.Unmarshal(data, &parsed); err != nil {
			return manifest{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		m = manifest{main: parsed.Main, exists: true}
	}
	r.manifests.Add(dir, m)
	return m, nil
}

func (r *Resolver) isFile(path string) bool {
	info, err := r.fs.Stat(path)
	return err == nil && !info.IsDir()
}
