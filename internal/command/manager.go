// SPDX-License-Identifier: MIT

// Package command orchestrates the single-active command lifecycle: it
// admits prompts, runs one worker at a time against the arm, and lets the
// distinguished go-home prompt preempt whatever is running.
package command

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lepetpal/lepetpal/internal/arm"
	"github.com/lepetpal/lepetpal/internal/log"
	"github.com/lepetpal/lepetpal/internal/metrics"
	"github.com/lepetpal/lepetpal/internal/policy"
	"github.com/lepetpal/lepetpal/internal/safety"
	"github.com/lepetpal/lepetpal/internal/store"
	"github.com/lepetpal/lepetpal/internal/types"
)

// ErrBusy is returned when admission is refused under the single-active
// rule. Clients retry after observing a terminal status.
var ErrBusy = errors.New("another command is in progress")

// Options carries free-form client options through to the worker. The core
// currently interprets none of them.
type Options map[string]any

// Manager owns the active slot, the cancel signal, and the worker
// goroutines. The arm is touched only from workers.
type Manager struct {
	store  *store.Store
	arm    arm.Driver
	gate   *safety.Gate
	model  policy.Runner
	rateHz int
	logger zerolog.Logger

	mu       sync.Mutex // guards activeID; never held across I/O
	activeID string
	cancel   atomic.Bool

	wg sync.WaitGroup
}

// New wires a manager over its collaborators. rateHz is the worker pacing
// rate; values below 1 are raised to 1.
func New(st *store.Store, driver arm.Driver, gate *safety.Gate, model policy.Runner, rateHz int) *Manager {
	if rateHz < 1 {
		rateHz = 1
	}
	return &Manager{
		store:  st,
		arm:    driver,
		gate:   gate,
		model:  model,
		rateHz: rateHz,
		logger: log.WithComponent("command"),
	}
}

// Start admits a non-go-home prompt under the single-active rule. On
// success it returns the freshly minted request id and launches the worker;
// otherwise it returns ErrBusy.
func (m *Manager) Start(prompt string, opts Options) (string, error) {
	m.mu.Lock()
	if m.activeID != "" {
		m.mu.Unlock()
		metrics.CommandsRejectedBusy.Inc()
		return "", ErrBusy
	}
	id := uuid.NewString()
	m.activeID = id
	m.cancel.Store(false)
	m.mu.Unlock()

	m.store.Create(id, types.Status{
		State:   types.StatePlanning,
		Message: "Accepted: " + prompt,
	})
	metrics.IncCommandStarted(prompt)
	m.logger.Info().
		Str("event", "command.accepted").
		Str("request_id", id).
		Str("prompt", prompt).
		Msg("command admitted")

	m.wg.Add(1)
	go m.runCommand(id, prompt, opts)
	return id, nil
}

// InterruptAndHome is always admitted. It signals any active worker to
// abort at its next step and runs a short homing task under a new request
// id.
func (m *Manager) InterruptAndHome() string {
	m.mu.Lock()
	preempted := m.activeID
	m.mu.Unlock()

	m.cancel.Store(true)
	if preempted != "" {
		metrics.Preemptions.Inc()
	}

	id := uuid.NewString()
	m.store.Create(id, types.Status{
		State:   types.StateExecuting,
		Message: "Go home",
	})
	metrics.IncCommandStarted(PromptGoHome)
	m.logger.Info().
		Str("event", "command.preempted").
		Str("request_id", id).
		Str("preempted_id", preempted).
		Msg("go home admitted")

	m.wg.Add(1)
	go m.runHome(id)
	return id
}

// Active returns the request id occupying the active slot, or "".
func (m *Manager) Active() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// Wait blocks until every launched worker has exited. Used by shutdown and
// tests.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// release clears the active slot and the cancel flag. Both workers call it
// on exit; the newest state always wins, matching the bounded preemption
// window the contract allows.
func (m *Manager) release() {
	m.mu.Lock()
	m.activeID = ""
	m.mu.Unlock()
	m.cancel.Store(false)
}
