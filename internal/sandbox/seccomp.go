// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/net/bpf"
)

// Filter return values and seccomp_data offsets.
const (
	retKillProcess uint32 = 0x80000000
	retErrno       uint32 = 0x00050000
	retAllow       uint32 = 0x7fff0000

	offsetNr   = 0
	offsetArch = 4

	// maxAllowed keeps every allow-list jump within an 8-bit skip.
	maxAllowed = 255
)

// ErrUnsupportedPlatform is returned when no syscall table exists for the
// running platform.
var ErrUnsupportedPlatform = errors.New("seccomp is not supported on this platform")

// errTooManySyscalls is returned when an allow-list cannot be encoded.
var errTooManySyscalls = errors.New("syscall allow-list too long")

// Seccomp is the Capability that installs the syscall filter for the
// running platform. Denied syscalls fail with ENOSYS.
type Seccomp struct {
	logger *log.Logger
}

// NewSeccomp creates the seccomp capability.
func NewSeccomp(logger *log.Logger) *Seccomp {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "sandbox"})
	}
	return &Seccomp{logger: logger}
}

// buildFilter assembles a program that kills the process on an
// architecture mismatch, allows the listed syscalls and fails every other
// syscall with errno.
func buildFilter(arch uint32, allowed []uint32, errno uint32) ([]bpf.RawInstruction, error) {
	n := len(allowed)
	if n > maxAllowed {
		return nil, errTooManySyscalls
	}

	prog := []bpf.Instruction{
		bpf.LoadAbsolute{Off: offsetArch, Size: 4},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: arch, SkipTrue: 1},
		bpf.RetConstant{Val: retKillProcess},
		bpf.LoadAbsolute{Off: offsetNr, Size: 4},
	}
	for i, nr := range allowed {
		prog = append(prog, bpf.JumpIf{Cond: bpf.JumpEqual, Val: nr, SkipTrue: uint8(n - i)})
	}
	prog = append(prog,
		bpf.RetConstant{Val: retErrno | errno},
		bpf.RetConstant{Val: retAllow},
	)
	return bpf.Assemble(prog)
}
