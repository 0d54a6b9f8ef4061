// SPDX-License-Identifier: MPL-2.0

//go:build linux

package sandbox

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	seccompSetModeFilter   = 1
	seccompFilterFlagTsync = 1
)

// Enter implements Capability. The filter applies to every thread of the
// process.
func (s *Seccomp) Enter() bool {
	if len(allowedSyscalls) == 0 {
		s.logger.Error("cannot install filter", "error", ErrUnsupportedPlatform)
		return false
	}

	raw, err := buildFilter(auditArch, allowedSyscalls, uint32(unix.ENOSYS))
	if err != nil {
		s.logger.Error("cannot assemble filter", "error", err)
		return false
	}
	filter := make([]unix.SockFilter, len(raw))
	for i, ins := range raw {
		filter[i] = unix.SockFilter{Code: ins.Op, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}
	prog := unix.SockFprog{Len: uint16(len(filter)), Filter: &filter[0]}

	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		s.logger.Error("cannot set no_new_privs", "error", err)
		return false
	}
	r1, _, errno := unix.Syscall(unix.SYS_SECCOMP, seccompSetModeFilter, seccompFilterFlagTsync, uintptr(unsafe.Pointer(&prog)))
	if errno != 0 {
		s.logger.Error("seccomp failed", "error", errno)
		return false
	}
	if r1 != 0 {
		s.logger.Error("seccomp could not synchronize thread", "tid", r1)
		return false
	}
	return true
}
