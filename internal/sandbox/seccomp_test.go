// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"encoding/binary"
	"errors"
	"testing"

	"golang.org/x/net/bpf"
)

const (
	testArch  uint32 = 0xC000003E
	testErrno uint32 = 38
)

// seccompData lays out nr and arch the way the filter loads them.
func seccompData(nr, arch uint32) []byte {
	data := make([]byte, 64)
	binary.BigEndian.PutUint32(data[offsetNr:], nr)
	binary.BigEndian.PutUint32(data[offsetArch:], arch)
	return data
}

func TestBuildFilter(t *testing.T) {
	t.Parallel()

	allowed := []uint32{0, 1, 60, 231}
	raw, err := buildFilter(testArch, allowed, testErrno)
	if err != nil {
		t.Fatalf("buildFilter() error = %v", err)
	}
	prog, ok := bpf.Disassemble(raw)
	if !ok {
		t.Fatal("filter does not disassemble")
	}
	vm, err := bpf.NewVM(prog)
	if err != nil {
		t.Fatalf("NewVM() error = %v", err)
	}

	tests := []struct {
		name string
		nr   uint32
		arch uint32
		want uint32
	}{
		{name: "first allowed", nr: 0, arch: testArch, want: retAllow},
		{name: "last allowed", nr: 231, arch: testArch, want: retAllow},
		{name: "middle allowed", nr: 60, arch: testArch, want: retAllow},
		{name: "denied", nr: 257, arch: testArch, want: retErrno | testErrno},
		{name: "wrong arch", nr: 0, arch: 0xC00000B7, want: retKillProcess},
	}
	for _, tt := range tests {
		got, err := vm.Run(seccompData(tt.nr, tt.arch))
		if err != nil {
			t.Fatalf("%s: Run() error = %v", tt.name, err)
		}
		if uint32(got) != tt.want {
			t.Errorf("%s: verdict = %#x, want %#x", tt.name, uint32(got), tt.want)
		}
	}
}

func TestBuildFilter_TooManySyscalls(t *testing.T) {
	t.Parallel()

	if _, err := buildFilter(testArch, make([]uint32, maxAllowed+1), testErrno); !errors.Is(err, errTooManySyscalls) {
		t.Errorf("buildFilter() error = %v, want errTooManySyscalls", err)
	}
}

func TestAllowList(t *testing.T) {
	t.Parallel()

	if len(allowedSyscalls) > maxAllowed {
		t.Fatalf("allow-list has %d entries", len(allowedSyscalls))
	}
	seen := make(map[uint32]bool)
	for _, nr := range allowedSyscalls {
		if seen[nr] {
			t.Errorf("syscall %d listed twice", nr)
		}
		seen[nr] = true
	}
}
