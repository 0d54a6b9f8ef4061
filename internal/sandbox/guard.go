// SPDX-License-Identifier: MPL-2.0

// Package sandbox moves the process into a restricted execution mode and
// verifies that the restriction is actually in force before any bundled
// code runs.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/log"
)

const (
	// StateUnverified indicates the guard has not been entered yet.
	StateUnverified State = iota
	// StateVerified indicates the restriction is active (terminal state).
	StateVerified
	// StateAborted indicates the restriction could not be confirmed (terminal state).
	StateAborted
)

var (
	// ErrCapabilityFailed is returned when the capability refuses to enter
	// the restricted mode.
	ErrCapabilityFailed = errors.New("sandbox capability failed")
	// ErrSandboxInactive is returned when the canary operation succeeds,
	// meaning the restriction is not in force.
	ErrSandboxInactive = errors.New("sandbox is not active: canary operation succeeded")
	// ErrUnexpectedCanary is returned when the canary fails with anything
	// other than ENOSYS.
	ErrUnexpectedCanary = errors.New("canary operation failed unexpectedly")
)

type (
	// State represents the lifecycle state of a Guard.
	State int32

	// Capability enters the restricted mode. It reports success.
	Capability interface {
		Enter() bool
	}

	// CapabilityFunc adapts a function to Capability.
	CapabilityFunc func() bool

	// Canary performs an operation that must be refused once the
	// restriction is active.
	Canary func() error

	// Guard runs the capability and the canary exactly once and records
	// the outcome.
	Guard struct {
		capability Capability
		canary     Canary
		logger     *log.Logger

		once  sync.Once
		state atomic.Int32
		err   error
	}
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateUnverified:
		return "unverified"
	case StateVerified:
		return "verified"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Enter implements Capability.
func (f CapabilityFunc) Enter() bool {
	return f()
}

// StatCanary returns a Canary that stats path. Resolve path before the
// restriction is entered.
func StatCanary(path string) Canary {
	return func() error {
		_, err := os.Stat(path)
		return err
	}
}

// NewGuard creates a Guard. A nil logger discards diagnostics.
func NewGuard(capability Capability, canary Canary, logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "sandbox"})
	}
	return &Guard{capability: capability, canary: canary, logger: logger}
}

// State returns the current state.
func (g *Guard) State() State {
	return State(g.state.Load())
}

// Enter moves the process into the restricted mode and verifies it. Later
// calls return the recorded outcome without running anything again.
func (g *Guard) Enter() error {
	g.once.Do(func() {
		g.err = g.enter()
		if g.err != nil {
			g.state.Store(int32(StateAborted))
			g.logger.Error("sandbox aborted", "error", g.err)
			return
		}
		g.state.Store(int32(StateVerified))
		g.logger.Debug("sandbox verified")
	})
	return g.err
}

func (g *Guard) enter() error {
	if !g.capability.Enter() {
		return ErrCapabilityFailed
	}
	err := g.canary()
	switch {
	case err == nil:
		return ErrSandboxInactive
	case errors.Is(err, syscall.ENOSYS):
		return nil
	default:
		return fmt.Errorf("%w: %w", ErrUnexpectedCanary, err)
	}
}
