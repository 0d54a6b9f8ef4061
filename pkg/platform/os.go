// SPDX-License-Identifier: MPL-2.0

package platform

import "runtime"

// OS name constants for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// NodePlatform returns the process.platform value for goos.
func NodePlatform(goos string) string {
	if goos == Windows {
		return "win32"
	}
	return goos
}

// NodeArch returns the process.arch value for goarch.
func NodeArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "386":
		return "ia32"
	default:
		return goarch
	}
}

// Current returns the Node platform and architecture names of the host.
func Current() (platform, arch string) {
	return NodePlatform(runtime.GOOS), NodeArch(runtime.GOARCH)
}
