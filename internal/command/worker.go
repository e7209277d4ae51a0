// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/lepetpal/lepetpal/internal/metrics"
	"github.com/lepetpal/lepetpal/internal/types"
)

// runCommand is the worker for a non-go-home prompt. It is a linear reducer
// from control chunks to one terminal status: every exit path below writes
// exactly one terminal patch, and the deferred release frees the slot.
func (m *Manager) runCommand(id, prompt string, _ Options) {
	defer m.wg.Done()
	defer m.release()

	t0 := time.Now()
	finish := func(state types.State, message string) {
		elapsed := time.Since(t0)
		m.store.Update(id, types.Patch{
			State:      types.Ptr(state),
			Message:    types.Ptr(message),
			DurationMS: types.Ptr(elapsed.Milliseconds()),
		})
		metrics.ObserveCommandCompleted(prompt, string(state), elapsed)
		m.logger.Info().
			Str("event", "command.finished").
			Str("request_id", id).
			Str("prompt", prompt).
			Str("state", string(state)).
			Dur("duration", elapsed).
			Msg(message)
	}

	m.store.Update(id, types.Patch{
		State:   types.Ptr(types.StateExecuting),
		Phase:   types.Ptr("detect"),
		Message: types.Ptr("Detecting"),
	})

	stream := m.model.Infer(prompt)
	defer stream.Close()

	// The limiter paces the loop at rateHz; neither the slot mutex nor the
	// store lock is ever held while waiting on it.
	limiter := rate.NewLimiter(rate.Limit(m.rateHz), 1)

	for {
		chunk, ok := stream.Next()
		if !ok {
			break
		}

		// Cancellation is observed between producer steps only.
		if m.cancel.Load() {
			if err := m.arm.Home(); err != nil {
				finish(types.StateFailed, err.Error())
				return
			}
			finish(types.StateAborted, "Interrupted by Go Home")
			return
		}

		// Safety validation is ordered strictly before the driver call.
		if !m.gate.ValidateTargets(chunk) {
			finish(types.StateFailed, "safety check failed")
			return
		}

		if err := m.arm.SendTargets(chunk); err != nil {
			finish(types.StateFailed, err.Error())
			return
		}
		metrics.ChunksSent.Inc()

		message := chunk.Phase
		if message == "" {
			message = "executing"
		}
		m.store.Update(id, types.Patch{
			Phase:      types.Ptr(chunk.Phase),
			Confidence: types.Ptr(chunk.Confidence),
			Message:    types.Ptr(message),
		})

		_ = limiter.Wait(context.Background())
	}

	// Handoff guard: only the fetch prompt throws, and only from the
	// canonical pre-throw posture with a clear workspace.
	if prompt == PromptPickUpBall && m.gate.ReadyToThrow(m.arm.JointAngles()) && m.gate.WorkspaceClear() {
		m.store.Update(id, types.Patch{
			State:   types.Ptr(types.StateHandoffMacro),
			Message: types.Ptr("throwing"),
		})
		if err := m.arm.ThrowMacro(); err != nil {
			finish(types.StateFailed, err.Error())
			return
		}
	}

	finish(types.StateSucceeded, "Completed")
}

// runHome is the preemption worker: home the arm, report, release.
func (m *Manager) runHome(id string) {
	defer m.wg.Done()
	defer m.release()

	t0 := time.Now()
	if err := m.arm.Home(); err != nil {
		m.store.Update(id, types.Patch{
			State:      types.Ptr(types.StateFailed),
			Message:    types.Ptr("home error: " + err.Error()),
			DurationMS: types.Ptr(time.Since(t0).Milliseconds()),
		})
		metrics.ObserveCommandCompleted(PromptGoHome, string(types.StateFailed), time.Since(t0))
		return
	}
	m.store.Update(id, types.Patch{
		State:      types.Ptr(types.StateSucceeded),
		Message:    types.Ptr("At home pose"),
		DurationMS: types.Ptr(time.Since(t0).Milliseconds()),
	})
	metrics.ObserveCommandCompleted(PromptGoHome, string(types.StateSucceeded), time.Since(t0))
	m.logger.Info().
		Str("event", "command.homed").
		Str("request_id", id).
		Msg("arm at home pose")
}
