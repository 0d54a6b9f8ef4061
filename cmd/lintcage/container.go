// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/lintcage/lintcage/internal/config"
	"github.com/lintcage/lintcage/internal/issue"
	"github.com/lintcage/lintcage/pkg/container"
)

type (
	// rawContainer is a container file read fully into memory and
	// decompressed, but not yet decoded.
	rawContainer struct {
		Path       string
		Raw        []byte
		Compressed bool
	}

	// loadedContainer is a decoded container.
	loadedContainer struct {
		rawContainer
		Units []container.Unit
	}
)

// containerPath returns path, or the default container next to the
// executable when path is empty.
func (a *App) containerPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	dir, err := a.executableDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.DefaultContainerName), nil
}

// executableDir returns the directory of the running binary with symlinks
// resolved.
func (a *App) executableDir() (string, error) {
	exe, err := a.executablePath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func (a *App) executablePath() (string, error) {
	exe, err := a.executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if _, ok := a.fs.(*afero.OsFs); ok {
		if canonical, err := filepath.EvalSymlinks(exe); err == nil {
			exe = canonical
		}
	}
	return exe, nil
}

// readContainer reads and decodes the container at path.
func (a *App) readContainer(path string) (*loadedContainer, error) {
	raw, err := a.readRawContainer(path)
	if err != nil {
		return nil, err
	}
	return raw.decode()
}

// readRawContainer reads the container at path and undoes compression.
func (a *App) readRawContainer(path string) (*rawContainer, error) {
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return nil, newServiceError(fmt.Errorf("reading container %s: %w", path, err), issue.ContainerNotFoundId)
	}

	raw, err := container.Decompress(data)
	if err != nil {
		return nil, newServiceError(fmt.Errorf("container %s: %w", path, err), issue.ContainerMalformedId)
	}

	return &rawContainer{
		Path:       path,
		Raw:        raw,
		Compressed: container.IsCompressed(data),
	}, nil
}

// decode parses the units of rc.
func (rc *rawContainer) decode() (*loadedContainer, error) {
	units, err := container.Decode(rc.Raw)
	if err != nil {
		return nil, newServiceError(fmt.Errorf("container %s: %w", rc.Path, err), issue.ContainerMalformedId)
	}
	return &loadedContainer{rawContainer: *rc, Units: units}, nil
}
