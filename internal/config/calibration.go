// SPDX-License-Identifier: MIT

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lepetpal/lepetpal/internal/types"
)

// Conservative joint limits applied when no calibration file is supplied.
const (
	defaultJointMin = -2.5
	defaultJointMax = 2.5
)

// Calibration carries the per-joint limits (radians) and an optional region
// of interest blob that downstream consumers may interpret.
type Calibration struct {
	JointMin types.JointAngles
	JointMax types.JointAngles
	ROI      json.RawMessage
}

// calibrationFile is the on-disk JSON shape. Slices are used so malformed
// lengths can be rejected explicitly rather than silently truncated.
type calibrationFile struct {
	JointMin []float64       `json:"joint_min"`
	JointMax []float64       `json:"joint_max"`
	ROI      json.RawMessage `json:"roi,omitempty"`
}

// DefaultCalibration returns the conservative built-in limits.
func DefaultCalibration() Calibration {
	var cal Calibration
	for i := range cal.JointMin {
		cal.JointMin[i] = defaultJointMin
		cal.JointMax[i] = defaultJointMax
	}
	return cal
}

// LoadCalibration reads and validates a calibration JSON file. Missing
// fields fall back to the conservative defaults; malformed fields are an
// error.
func LoadCalibration(path string) (Calibration, error) {
	cal := DefaultCalibration()

	raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied calibration path
	if err != nil {
		return cal, fmt.Errorf("read calibration: %w", err)
	}
	var cf calibrationFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return cal, fmt.Errorf("parse calibration: %w", err)
	}

	if cf.JointMin != nil {
		if len(cf.JointMin) != types.NumJoints {
			return cal, fmt.Errorf("calibration joint_min has %d entries, want %d", len(cf.JointMin), types.NumJoints)
		}
		copy(cal.JointMin[:], cf.JointMin)
	}
	if cf.JointMax != nil {
		if len(cf.JointMax) != types.NumJoints {
			return cal, fmt.Errorf("calibration joint_max has %d entries, want %d", len(cf.JointMax), types.NumJoints)
		}
		copy(cal.JointMax[:], cf.JointMax)
	}
	for i := range cal.JointMin {
		if cal.JointMin[i] > cal.JointMax[i] {
			return DefaultCalibration(), fmt.Errorf("calibration joint %d: min %.3f exceeds max %.3f", i, cal.JointMin[i], cal.JointMax[i])
		}
	}
	cal.ROI = cf.ROI
	return cal, nil
}
