// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// MustWriteFile writes content to path on the host filesystem, creating
// parent directories as needed.
func MustWriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// WriteTree populates fs with files keyed by path. Use an in-memory
// filesystem when the test does not need real paths:
//
//	fs := testutil.WriteTree(t, afero.NewMemMapFs(), map[string]string{
//	    "/app/main.js": "require('./dep')",
//	    "/app/dep.js":  "",
//	})
func WriteTree(t testing.TB, fs afero.Fs, files map[string]string) afero.Fs {
	t.Helper()
	for path, content := range files {
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", path, err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return fs
}
