// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package sandbox

// Enter implements Capability. Seccomp exists only on Linux.
func (s *Seccomp) Enter() bool {
	s.logger.Error("cannot install filter", "error", ErrUnsupportedPlatform)
	return false
}
