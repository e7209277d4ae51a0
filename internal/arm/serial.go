// SPDX-License-Identifier: MIT

package arm

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lepetpal/lepetpal/internal/log"
	"github.com/lepetpal/lepetpal/internal/types"
)

// Serial drives the follower arm over a serial device file. Joint targets
// are framed as ASCII lines; the firmware interpolates between frames at
// its own control rate, so each send is bounded by the write itself.
type Serial struct {
	mu     sync.Mutex
	path   string
	dev    *os.File
	joints types.JointAngles
}

// settle gives the motors time to reach a blocking pose before returning.
const settle = 1500 * time.Millisecond

// NewSerial returns a driver bound to the given device path. The device is
// opened on Connect.
func NewSerial(path string) *Serial {
	return &Serial{path: path}
}

// Connect opens the serial device. It is idempotent and returns false when
// the device cannot be opened; callers may retry.
func (s *Serial) Connect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev != nil {
		return true
	}
	dev, err := os.OpenFile(s.path, os.O_RDWR, 0) // #nosec G304 -- operator-supplied device path
	if err != nil {
		logger := log.WithComponent("arm")
		logger.Error().
			Err(err).
			Str("event", "arm.connect_failed").
			Str("port", s.path).
			Msg("failed to open arm serial device")
		return false
	}
	s.dev = dev
	logger := log.WithComponent("arm")
	logger.Info().
		Str("event", "arm.connected").
		Str("port", s.path).
		Msg("arm serial device opened")
	return true
}

// SendTargets frames one pose onto the wire and records it as the last
// commanded pose.
func (s *Serial) SendTargets(chunk types.ControlChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeFrame('T', chunk.Targets); err != nil {
		return err
	}
	s.joints = chunk.Targets
	return nil
}

// Home commands the canonical home pose and blocks for the settle window.
func (s *Serial) Home() error {
	s.mu.Lock()
	if err := s.writeFrame('T', HomePose); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("home: %w", err)
	}
	s.joints = HomePose
	s.mu.Unlock()
	time.Sleep(settle)
	return nil
}

// Stop closes the device, best-effort.
func (s *Serial) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	err := s.dev.Close()
	s.dev = nil
	return err
}

// ThrowMacro streams the open-loop handoff waypoints: dip the shoulder from
// the ready pose, then extend the elbow to release.
func (s *Serial) ThrowMacro() error {
	s.mu.Lock()
	first := s.joints
	first[1] -= 0.5
	second := first
	second[2] += 1.0

	if err := s.writeFrame('T', first); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("throw macro: %w", err)
	}
	time.Sleep(200 * time.Millisecond)
	if err := s.writeFrame('T', second); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("throw macro: %w", err)
	}
	s.joints = second
	s.mu.Unlock()
	time.Sleep(500 * time.Millisecond)
	return nil
}

// JointAngles returns the last commanded pose.
func (s *Serial) JointAngles() types.JointAngles {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joints
}

// writeFrame emits one ASCII frame: a command letter followed by six joint
// values in radians. Callers hold the mutex.
func (s *Serial) writeFrame(cmd byte, j types.JointAngles) error {
	if s.dev == nil {
		return fmt.Errorf("arm hardware error: device %s not connected", s.path)
	}
	line := fmt.Sprintf("%c %.4f %.4f %.4f %.4f %.4f %.4f\n", cmd, j[0], j[1], j[2], j[3], j[4], j[5])
	if _, err := s.dev.WriteString(line); err != nil {
		return fmt.Errorf("arm hardware error: %w", err)
	}
	return nil
}
