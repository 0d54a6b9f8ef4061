// SPDX-License-Identifier: MPL-2.0

// Package namespace rebuilds the module namespace of a bundled CommonJS
// program from decoded container units.
//
// Units are materialized lazily on first touch and exactly once. A code
// unit's exports are memoized before its body runs, so a unit re-entered
// through a reference cycle observes its partially built exports, the
// same eager semantics CommonJS hosts provide.
package namespace

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"github.com/lintcage/lintcage/pkg/container"
)

// DefaultRoot is the synthetic directory units are anchored at when no
// root is configured.
const DefaultRoot = "/lintcage/node_modules"

// ErrUnknownUnit is returned when an identity is not present in the container.
var ErrUnknownUnit = errors.New("unknown unit")

type (
	// Module is the execution context of one code unit.
	Module struct {
		// ID is the unit's identity relative to the container root.
		ID string
		// Filename is the synthetic absolute path of the unit.
		Filename string
		// Exports holds the module's exports value. The engine stores the
		// final value back here after execution.
		Exports any
		// Require resolves a reference as written in this unit and returns
		// the target's exports.
		Require func(reference string) (any, error)
		// Resolve maps a reference as written in this unit to a path.
		Resolve func(reference string) (string, error)
	}

	// Engine executes unit content.
	Engine interface {
		// NewExports returns a fresh, empty exports value.
		NewExports() any
		// ParseData parses the content of a structured-data unit.
		ParseData(filename, content string) (any, error)
		// Execute runs a code unit's content against m.
		Execute(m *Module, content string) error
		// Fallback loads a reference the container does not record,
		// normally a host built-in.
		Fallback(reference string) (any, error)
		// WrapLoader turns fn into an exports value callable by unit code.
		WrapLoader(fn func(id string) (any, error)) any
	}

	// Option configures a Namespace.
	Option func(*Namespace)

	// Namespace maps unit identities to live exports values.
	// A Namespace is not safe for concurrent use.
	Namespace struct {
		engine Engine
		root   string
		units  map[string]container.Unit
		deps   map[string]map[string]string
		memo   map[string]any
	}
)

// WithRoot sets the synthetic root units are anchored at.
func WithRoot(root string) Option {
	return func(n *Namespace) {
		n.root = root
	}
}

// New creates a Namespace over units.
func New(units []container.Unit, engine Engine, opts ...Option) *Namespace {
	n := &Namespace{
		engine: engine,
		root:   DefaultRoot,
		units:  make(map[string]container.Unit, len(units)),
		deps:   make(map[string]map[string]string, len(units)),
		memo:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(n)
	}
	for _, u := range units {
		n.units[u.Name] = u
		n.deps[u.Name] = u.DependencyMap()
	}
	return n
}

// Root returns the synthetic root.
func (n *Namespace) Root() string {
	return n.root
}

// Has reports whether id is a unit of the container.
func (n *Namespace) Has(id string) bool {
	_, ok := n.units[id]
	return ok
}

// SyntheticPath returns the fabricated absolute path of id.
func (n *Namespace) SyntheticPath(id string) string {
	return filepath.Join(n.root, filepath.FromSlash(id))
}

// Seed memoizes exports for id without executing anything.
func (n *Namespace) Seed(id string, exports any) {
	n.memo[id] = exports
}

// Get returns the exports of id, materializing the unit if needed.
func (n *Namespace) Get(id string) (any, error) {
	if exports, ok := n.memo[id]; ok {
		return exports, nil
	}
	u, ok := n.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, id)
	}
	filename := n.SyntheticPath(id)

	if path.Ext(id) == ".json" {
		data, err := n.engine.ParseData(filename, u.Content)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", id, err)
		}
		n.memo[id] = data
		return data, nil
	}

	m := &Module{
		ID:       id,
		Filename: filename,
		Exports:  n.engine.NewExports(),
	}
	deps := n.deps[id]
	m.Require = func(reference string) (any, error) {
		if target, ok := deps[reference]; ok {
			return n.Get(target)
		}
		return n.engine.Fallback(reference)
	}
	m.Resolve = func(reference string) (string, error) {
		if target, ok := deps[reference]; ok {
			return n.SyntheticPath(target), nil
		}
		return reference, nil
	}

	n.memo[id] = m.Exports
	if err := n.engine.Execute(m, u.Content); err != nil {
		return nil, fmt.Errorf("executing %s: %w", id, err)
	}
	n.memo[id] = m.Exports
	return m.Exports, nil
}

// InstallBridge seeds loaderID with a loader function. The loader returns
// the exports of targetID when asked for targetID's synthetic path and
// defers to the engine's fallback for every other identity.
func (n *Namespace) InstallBridge(loaderID, targetID string) error {
	if !n.Has(targetID) {
		return fmt.Errorf("bridge target %w: %s", ErrUnknownUnit, targetID)
	}
	targetPath := n.SyntheticPath(targetID)
	n.Seed(loaderID, n.engine.WrapLoader(func(id string) (any, error) {
		if id == targetPath {
			return n.Get(targetID)
		}
		return n.engine.Fallback(id)
	}))
	return nil
}
