// SPDX-License-Identifier: MIT

// Package policy produces the lazy control-chunk streams the command worker
// consumes. The scripted runner is deterministic and authoritative for
// tests; model-backed runners expose the same pull interface.
package policy

import (
	"fmt"

	"github.com/lepetpal/lepetpal/internal/types"
)

// Stream is a finite, non-restartable lazy sequence of control chunks.
// Next returns the next chunk and true, or a zero chunk and false once the
// policy has nothing more to say. Close releases any resources the producer
// holds; it must be safe to call between any two Next steps (cooperative
// cancellation) and after exhaustion.
type Stream interface {
	Next() (types.ControlChunk, bool)
	Close()
}

// Runner yields a fresh stream per prompt. Runners keep no mutable state
// between prompts.
type Runner interface {
	Infer(prompt string) Stream
}

// ModeScripted selects the deterministic phase-table runner.
const ModeScripted = "scripted"

// New builds a runner for the given MODEL_MODE. modelPath is handed to
// model-backed runners opaquely and ignored by the scripted one.
func New(mode, modelPath string) (Runner, error) {
	switch mode {
	case "", ModeScripted:
		return Scripted{}, nil
	default:
		return nil, fmt.Errorf("policy: unknown model mode %q", mode)
	}
}
