// SPDX-License-Identifier: MIT

package arm

import (
	"sync"
	"time"

	"github.com/lepetpal/lepetpal/internal/log"
	"github.com/lepetpal/lepetpal/internal/types"
)

// Mock is an in-memory driver that tracks the last commanded pose. It is
// the default when USE_HARDWARE is false and the fixture for all tests.
//
// The delay fields default to zero so tests run fast; the daemon leaves
// them at zero too since there is no physical settling to wait for.
type Mock struct {
	mu        sync.Mutex
	joints    types.JointAngles
	connected bool
	sent      []types.ControlChunk
	homeCalls int

	// Error injection for failure-path tests.
	SendErr  error
	HomeErr  error
	ThrowErr error

	HomeDelay  time.Duration
	ThrowDelay time.Duration
}

// NewMock returns a disconnected mock driver at the home pose.
func NewMock() *Mock {
	return &Mock{}
}

// Connect always succeeds in mock mode.
func (m *Mock) Connect() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		logger := log.WithComponent("arm")
		logger.Info().Str("event", "arm.mock_mode").Msg("arm driver running in mock mode")
	}
	m.connected = true
	return true
}

// SendTargets records the chunk and advances the commanded pose.
func (m *Mock) SendTargets(chunk types.ControlChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.joints = chunk.Targets
	m.sent = append(m.sent, chunk)
	return nil
}

// Home moves the commanded pose to the canonical home pose.
func (m *Mock) Home() error {
	m.mu.Lock()
	err := m.HomeErr
	delay := m.HomeDelay
	if err == nil {
		m.joints = HomePose
		m.homeCalls++
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return nil
}

// Stop marks the driver disconnected.
func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// ThrowMacro replays the two handoff waypoints: dip the shoulder, then
// extend the elbow.
func (m *Mock) ThrowMacro() error {
	m.mu.Lock()
	if m.ThrowErr != nil {
		m.mu.Unlock()
		return m.ThrowErr
	}
	m.joints[1] -= 0.5
	m.joints[2] += 1.0
	delay := m.ThrowDelay
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return nil
}

// JointAngles returns the last commanded pose.
func (m *Mock) JointAngles() types.JointAngles {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.joints
}

// Sent returns a copy of every chunk passed to SendTargets, in order.
func (m *Mock) Sent() []types.ControlChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.ControlChunk, len(m.sent))
	copy(out, m.sent)
	return out
}

// HomeCalls reports how many times Home completed.
func (m *Mock) HomeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.homeCalls
}
