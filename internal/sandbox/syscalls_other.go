// SPDX-License-Identifier: MPL-2.0

//go:build !(linux && (amd64 || arm64))

package sandbox

// auditArch is unused where no syscall table exists.
const auditArch uint32 = 0

// allowedSyscalls is empty, so the capability reports failure.
var allowedSyscalls []uint32
