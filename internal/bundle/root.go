// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrRootSuffix is returned when the first unit does not end with the
	// configured root suffix.
	ErrRootSuffix = errors.New("first unit does not end with the root suffix")
	// ErrOutsideRoot is returned when a unit lies outside the common root.
	ErrOutsideRoot = errors.New("unit outside the common root")
)

// commonRoot derives the prefix shared by all identities. With a suffix,
// the root is the first identity minus that suffix. Without one, it is the
// longest common directory.
func commonRoot(identities []string, suffix string) (string, error) {
	if len(identities) == 0 {
		return "", nil
	}
	first := identities[0]

	if suffix != "" {
		s := filepath.FromSlash(suffix)
		if !strings.HasSuffix(first, s) {
			return "", fmt.Errorf("%w: %s does not end with %s", ErrRootSuffix, first, suffix)
		}
		return first[:len(first)-len(s)], nil
	}

	dir := filepath.Dir(first)
	for {
		prefix := withSeparator(dir)
		shared := true
		for _, id := range identities {
			if !strings.HasPrefix(id, prefix) {
				shared = false
				break
			}
		}
		if shared {
			return prefix, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return prefix, nil
		}
		dir = parent
	}
}

func withSeparator(dir string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}
	return dir + string(filepath.Separator)
}

// relativeName strips root from identity and returns a slash-separated name.
func relativeName(root, identity string) (string, error) {
	if !strings.HasPrefix(identity, root) {
		return "", fmt.Errorf("%w: %s is not under %s", ErrOutsideRoot, identity, root)
	}
	return filepath.ToSlash(identity[len(root):]), nil
}
