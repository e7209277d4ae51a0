// SPDX-License-Identifier: MIT

// Package safety validates control chunks against joint limits and answers
// workspace and handoff-readiness queries.
package safety

import (
	"math"
	"sync"

	"github.com/lepetpal/lepetpal/internal/config"
	"github.com/lepetpal/lepetpal/internal/log"
	"github.com/lepetpal/lepetpal/internal/metrics"
	"github.com/lepetpal/lepetpal/internal/types"
)

// readyToThrowElbowTolerance is the canonical pre-throw posture check: the
// elbow joint must be near zero.
const readyToThrowElbowTolerance = 0.25

// Gate holds the active joint limits. Limits may be swapped atomically by
// the calibration watcher; each validation uses the snapshot taken at call
// time.
type Gate struct {
	mu             sync.RWMutex
	jointMin       types.JointAngles
	jointMax       types.JointAngles
	workspaceClear bool
}

// NewGate builds a gate from a calibration. workspaceClear is the
// configured constant answered by WorkspaceClear until an external ROI
// consumer exists.
func NewGate(cal config.Calibration, workspaceClear bool) *Gate {
	return &Gate{
		jointMin:       cal.JointMin,
		jointMax:       cal.JointMax,
		workspaceClear: workspaceClear,
	}
}

// ValidateTargets reports whether every target of the chunk lies within the
// active joint limits. A false return fails the active request.
func (g *Gate) ValidateTargets(chunk types.ControlChunk) bool {
	g.mu.RLock()
	jmin, jmax := g.jointMin, g.jointMax
	g.mu.RUnlock()

	for i, v := range chunk.Targets {
		if math.IsNaN(v) || v < jmin[i] || v > jmax[i] {
			metrics.SafetyRejections.Inc()
			logger := log.WithComponent("safety")
			logger.Warn().
				Str("event", "safety.rejected").
				Int("joint", i).
				Float64("target", v).
				Float64("min", jmin[i]).
				Float64("max", jmax[i]).
				Str("phase", chunk.Phase).
				Msg("chunk target outside joint limits")
			return false
		}
	}
	return true
}

// ReadyToThrow reports whether the pose is the canonical pre-throw posture.
// It is consulted only after the phase stream declares readiness.
func (g *Gate) ReadyToThrow(joints types.JointAngles) bool {
	return math.Abs(joints[2]) < readyToThrowElbowTolerance
}

// WorkspaceClear answers the configured constant. A real deployment may
// back this with an external ROI check.
func (g *Gate) WorkspaceClear() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.workspaceClear
}

// SetLimits atomically swaps the joint limits.
func (g *Gate) SetLimits(cal config.Calibration) {
	g.mu.Lock()
	g.jointMin = cal.JointMin
	g.jointMax = cal.JointMax
	g.mu.Unlock()
	logger := log.WithComponent("safety")
	logger.Info().
		Str("event", "safety.limits_updated").
		Floats64("joint_min", cal.JointMin[:]).
		Floats64("joint_max", cal.JointMax[:]).
		Msg("joint limits updated")
}

// Limits returns the active joint limits.
func (g *Gate) Limits() (types.JointAngles, types.JointAngles) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.jointMin, g.jointMax
}
