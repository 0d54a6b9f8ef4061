// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

// Confinement type constants.
const (
	// ConfinementNone indicates no outer confinement was detected.
	ConfinementNone ConfinementType = ""
	// ConfinementFlatpak indicates a Flatpak sandbox.
	ConfinementFlatpak ConfinementType = "flatpak"
	// ConfinementSnap indicates a Snap sandbox.
	ConfinementSnap ConfinementType = "snap"
	// ConfinementContainer indicates a Docker or Podman container.
	ConfinementContainer ConfinementType = "container"
)

// ConfinementType identifies the outer sandbox the process runs in, if any.
type ConfinementType string

// detectOnce caches the detection result for the lifetime of the process.
//
// INVARIANT: detectFrom MUST NOT panic. sync.OnceValue propagates a panic
// on every call.
var detectOnce = sync.OnceValue(func() ConfinementType {
	return detectFrom(os.Getenv, statFile)
})

// DetectConfinement returns the outer confinement of the current process.
// The result is cached after the first call.
//
// Detection methods:
//   - Flatpak: /.flatpak-info exists
//   - Snap: SNAP_NAME is set
//   - Container: /.dockerenv or /run/.containerenv exists
func DetectConfinement() ConfinementType {
	return detectOnce()
}

// SeccompHint explains how ct can interfere with installing a seccomp
// filter. It returns an empty string when there is nothing to add.
func SeccompHint(ct ConfinementType) string {
	switch ct {
	case ConfinementNone:
		return ""
	case ConfinementFlatpak:
		return "running inside Flatpak; its own seccomp profile may refuse nested filters"
	case ConfinementSnap:
		return "running inside a Snap; strict confinement may deny the seccomp syscall"
	case ConfinementContainer:
		return "running inside a container; the runtime's seccomp profile may deny the seccomp syscall"
	default:
		return ""
	}
}

// detectFrom performs detection using the provided lookup functions so
// tests can inject behavior without mutating process-wide state.
func detectFrom(lookupEnv func(string) string, statFile func(string) error) ConfinementType {
	// Flatpak takes precedence: /.flatpak-info is always present inside it.
	if err := statFile("/.flatpak-info"); err == nil {
		return ConfinementFlatpak
	}

	if lookupEnv("SNAP_NAME") != "" {
		return ConfinementSnap
	}

	for _, marker := range []string{"/.dockerenv", "/run/.containerenv"} {
		if err := statFile(marker); err == nil {
			return ConfinementContainer
		}
	}

	return ConfinementNone
}

// statFile is the production adapter for detectFrom's statFile parameter.
func statFile(path string) error {
	_, err := os.Stat(path)
	return err
}
