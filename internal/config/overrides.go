// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/lintcage/lintcage/internal/override"
)

// OverrideTable builds the override table for bundling. Paths are joined
// to modulesRoot. Directory-derived references are relative to the
// overridden unit and drop the .js suffix, the way a require call names
// them.
func (b BundleConfig) OverrideTable(fs afero.Fs, modulesRoot string) (*override.Table, error) {
	table := override.NewTable()
	for _, o := range b.Overrides {
		identity := filepath.Join(modulesRoot, filepath.FromSlash(o.Path))
		additional := append([]string(nil), o.Additional...)

		if o.AdditionalFromDir != "" {
			refs, err := referencesFromDir(fs, filepath.Dir(identity), filepath.Join(modulesRoot, filepath.FromSlash(o.AdditionalFromDir)))
			if err != nil {
				return nil, fmt.Errorf("override %s: %w", o.Path, err)
			}
			additional = append(additional, refs...)
		}

		table.Set(identity, override.Entry{Ignore: o.Ignore, AdditionalReferences: additional})
	}
	return table, nil
}

// referencesFromDir lists the .js files of dir as references relative to from.
func referencesFromDir(fs afero.Fs, from, dir string) ([]string, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	rel, err := filepath.Rel(from, dir)
	if err != nil {
		return nil, err
	}
	prefix := filepath.ToSlash(rel)
	switch {
	case prefix == ".":
	case strings.HasPrefix(prefix, "../"), prefix == "..":
	default:
		prefix = "./" + prefix
	}

	var refs []string
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || filepath.Ext(name) != ".js" {
			continue
		}
		refs = append(refs, prefix+"/"+strings.TrimSuffix(name, ".js"))
	}
	sort.Strings(refs)
	return refs, nil
}
