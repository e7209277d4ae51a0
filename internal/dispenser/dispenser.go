// SPDX-License-Identifier: MIT

// Package dispenser actuates the one-shot treat dispenser servo.
package dispenser

import (
	"context"
	"time"

	"github.com/lepetpal/lepetpal/internal/log"
)

// Dispenser triggers a single treat release held open for the given
// duration. Negative durations are treated as zero.
type Dispenser interface {
	Dispense(ctx context.Context, d time.Duration) error
}

// Servo is the SG90-style dispenser. Without a GPIO backend it models the
// actuation as a bounded blocking window, matching the published contract:
// the call returns once the dispense window has elapsed.
type Servo struct{}

// NewServo returns a ready dispenser.
func NewServo() *Servo {
	return &Servo{}
}

// Dispense blocks for max(0, d) and then returns. Cancelling ctx aborts the
// wait early with the context error.
func (s *Servo) Dispense(ctx context.Context, d time.Duration) error {
	if d < 0 {
		d = 0
	}
	logger := log.WithComponent("dispenser")
	logger.Info().
		Str("event", "treat.dispense").
		Dur("duration", d).
		Msg("dispensing treat")
	if d == 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
