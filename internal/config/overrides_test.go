// SPDX-License-Identifier: MPL-2.0

package config

import (
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

func TestOverrideTable(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	for _, name := range []string{"stylish.js", "json.js", "README.md", "checkstyle.js"} {
		if err := afero.WriteFile(fs, "/app/node_modules/eslint/lib/formatters/"+name, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := fs.MkdirAll("/app/node_modules/eslint/lib/formatters/nested.js", 0o755); err != nil {
		t.Fatal(err)
	}

	table, err := DefaultConfig().Bundle.OverrideTable(fs, "/app/node_modules")
	if err != nil {
		t.Fatalf("OverrideTable() error = %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}

	ignored, ok := table.Lookup("/app/node_modules/eslint/node_modules/js-yaml/index.js")
	if !ok || !ignored.Ignore {
		t.Errorf("js-yaml entry = %+v, %v", ignored, ok)
	}

	cli, ok := table.Lookup("/app/node_modules/eslint/lib/cli-engine.js")
	want := []string{"./formatters/checkstyle", "./formatters/json", "./formatters/stylish"}
	if !ok || !reflect.DeepEqual(cli.AdditionalReferences, want) {
		t.Errorf("cli-engine references = %v, want %v", cli.AdditionalReferences, want)
	}

	linter, ok := table.Lookup("/app/node_modules/eslint/lib/linter.js")
	if !ok || !reflect.DeepEqual(linter.AdditionalReferences, []string{"espree"}) {
		t.Errorf("linter references = %v", linter.AdditionalReferences)
	}
}

func TestOverrideTable_MissingDirectory(t *testing.T) {
	t.Parallel()

	if _, err := DefaultConfig().Bundle.OverrideTable(afero.NewMemMapFs(), "/app/node_modules"); err == nil {
		t.Error("OverrideTable() should fail when the formatter directory is missing")
	}
}

func TestReferencesFromDir(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	for _, p := range []string{"/m/a/x.js", "/m/b/y.js"} {
		if err := afero.WriteFile(fs, p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		from, dir string
		want      []string
	}{
		{from: "/m/a", dir: "/m/a", want: []string{"./x"}},
		{from: "/m/a", dir: "/m/b", want: []string{"../b/y"}},
		{from: "/m", dir: "/m/b", want: []string{"./b/y"}},
	}
	for _, tt := range tests {
		got, err := referencesFromDir(fs, tt.from, tt.dir)
		if err != nil {
			t.Fatalf("referencesFromDir(%s, %s) error = %v", tt.from, tt.dir, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("referencesFromDir(%s, %s) = %v, want %v", tt.from, tt.dir, got, tt.want)
		}
	}
}
