// SPDX-License-Identifier: MPL-2.0

package sandbox

import "golang.org/x/sys/unix"

// auditArch is AUDIT_ARCH_X86_64.
const auditArch uint32 = 0xC000003E

// allowedSyscalls is what the Go runtime and the engine need once bundled
// code runs. File opens and path-based stats are absent.
var allowedSyscalls = []uint32{
	unix.SYS_READ,
	unix.SYS_WRITE,
	unix.SYS_READV,
	unix.SYS_WRITEV,
	unix.SYS_PREAD64,
	unix.SYS_PWRITE64,
	unix.SYS_CLOSE,
	unix.SYS_FSTAT,
	unix.SYS_LSEEK,
	unix.SYS_IOCTL,
	unix.SYS_FCNTL,
	unix.SYS_MMAP,
	unix.SYS_MPROTECT,
	unix.SYS_MUNMAP,
	unix.SYS_MREMAP,
	unix.SYS_MADVISE,
	unix.SYS_MINCORE,
	unix.SYS_BRK,
	unix.SYS_RT_SIGACTION,
	unix.SYS_RT_SIGPROCMASK,
	unix.SYS_RT_SIGRETURN,
	unix.SYS_SIGALTSTACK,
	unix.SYS_ARCH_PRCTL,
	unix.SYS_CLONE,
	unix.SYS_CLONE3,
	unix.SYS_FUTEX,
	unix.SYS_SET_ROBUST_LIST,
	unix.SYS_RSEQ,
	unix.SYS_SCHED_YIELD,
	unix.SYS_SCHED_GETAFFINITY,
	unix.SYS_NANOSLEEP,
	unix.SYS_CLOCK_GETTIME,
	unix.SYS_CLOCK_NANOSLEEP,
	unix.SYS_RESTART_SYSCALL,
	unix.SYS_EPOLL_CREATE1,
	unix.SYS_EPOLL_CTL,
	unix.SYS_EPOLL_WAIT,
	unix.SYS_EPOLL_PWAIT,
	unix.SYS_EVENTFD2,
	unix.SYS_PIPE2,
	unix.SYS_GETPID,
	unix.SYS_GETTID,
	unix.SYS_TGKILL,
	unix.SYS_UNAME,
	unix.SYS_GETRLIMIT,
	unix.SYS_PRLIMIT64,
	unix.SYS_GETRANDOM,
	unix.SYS_EXIT,
	unix.SYS_EXIT_GROUP,
}
