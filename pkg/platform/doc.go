// SPDX-License-Identifier: MPL-2.0

// Package platform maps the host to the platform and architecture names
// CommonJS programs expect, and detects outer confinement (Flatpak, Snap,
// OCI containers) that can keep the seccomp sandbox from being installed.
package platform
