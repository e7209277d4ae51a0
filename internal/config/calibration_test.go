// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCalibration(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calibration.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultCalibration(t *testing.T) {
	cal := DefaultCalibration()
	for i := range cal.JointMin {
		assert.Equal(t, -2.5, cal.JointMin[i])
		assert.Equal(t, 2.5, cal.JointMax[i])
	}
}

func TestLoadCalibration(t *testing.T) {
	path := writeCalibration(t, `{
		"joint_min": [-1, -1, -1, -1, -1, -1],
		"joint_max": [1, 1, 1, 1, 1, 1],
		"roi": {"x": 0, "y": 0, "w": 640, "h": 480}
	}`)

	cal, err := LoadCalibration(path)
	require.NoError(t, err)
	assert.Equal(t, -1.0, cal.JointMin[0])
	assert.Equal(t, 1.0, cal.JointMax[5])
	assert.NotEmpty(t, cal.ROI)
}

func TestLoadCalibrationMissingFieldsKeepDefaults(t *testing.T) {
	path := writeCalibration(t, `{"joint_max": [2, 2, 2, 2, 2, 2]}`)

	cal, err := LoadCalibration(path)
	require.NoError(t, err)
	assert.Equal(t, -2.5, cal.JointMin[0])
	assert.Equal(t, 2.0, cal.JointMax[0])
}

func TestLoadCalibrationRejectsWrongLength(t *testing.T) {
	path := writeCalibration(t, `{"joint_min": [-1, -1]}`)

	cal, err := LoadCalibration(path)
	assert.Error(t, err)
	// error still hands back usable conservative limits
	assert.Equal(t, -2.5, cal.JointMin[0])
}

func TestLoadCalibrationRejectsInvertedLimits(t *testing.T) {
	path := writeCalibration(t, `{
		"joint_min": [1, 0, 0, 0, 0, 0],
		"joint_max": [-1, 1, 1, 1, 1, 1]
	}`)

	_, err := LoadCalibration(path)
	assert.Error(t, err)
}

func TestLoadCalibrationMissingFile(t *testing.T) {
	cal, err := LoadCalibration(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	assert.Equal(t, -2.5, cal.JointMin[0])
}
