// SPDX-License-Identifier: MIT

// Package arm abstracts the 6-joint follower arm behind a small driver
// interface. The mock driver is authoritative for tests; the serial driver
// frames targets onto a device file when hardware is attached.
package arm

import "github.com/lepetpal/lepetpal/internal/types"

// Driver is the contract the command worker programs against. Any call may
// fail with a hardware error; the worker treats a single failure as fatal
// for the active request.
type Driver interface {
	// Connect is idempotent and reports whether subsequent operations will
	// be accepted.
	Connect() bool

	// SendTargets advances the commanded pose by one control chunk. It may
	// block up to roughly one control period.
	SendTargets(chunk types.ControlChunk) error

	// Home blocks until the arm reaches the canonical home pose or a
	// bounded timeout elapses.
	Home() error

	// Stop releases the underlying device, best-effort.
	Stop() error

	// ThrowMacro executes the open-loop handoff waypoint sequence and
	// blocks until done.
	ThrowMacro() error

	// JointAngles returns the last commanded pose. Hardware feedback is not
	// assumed.
	JointAngles() types.JointAngles
}

// HomePose is the canonical neutral joint configuration.
var HomePose = types.JointAngles{}
