// SPDX-License-Identifier: MIT

package safety

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepetpal/lepetpal/internal/config"
	"github.com/lepetpal/lepetpal/internal/types"
)

func defaultGate() *Gate {
	return NewGate(config.DefaultCalibration(), true)
}

func TestValidateTargetsWithinLimits(t *testing.T) {
	g := defaultGate()
	chunk := types.ControlChunk{Targets: types.JointAngles{0.1, 0.2, 0, 0.1, 0, 0}}
	assert.True(t, g.ValidateTargets(chunk))
}

func TestValidateTargetsRejectsOutOfRange(t *testing.T) {
	g := defaultGate()
	chunk := types.ControlChunk{Targets: types.JointAngles{10.0, 0, 0, 0, 0, 0}}
	assert.False(t, g.ValidateTargets(chunk))

	chunk = types.ControlChunk{Targets: types.JointAngles{0, 0, 0, 0, 0, -2.6}}
	assert.False(t, g.ValidateTargets(chunk))
}

func TestValidateTargetsRejectsNaN(t *testing.T) {
	g := defaultGate()
	chunk := types.ControlChunk{Targets: types.JointAngles{math.NaN(), 0, 0, 0, 0, 0}}
	assert.False(t, g.ValidateTargets(chunk))
}

func TestValidateTargetsBoundaryInclusive(t *testing.T) {
	g := defaultGate()
	chunk := types.ControlChunk{Targets: types.JointAngles{2.5, -2.5, 2.5, -2.5, 2.5, -2.5}}
	assert.True(t, g.ValidateTargets(chunk))
}

func TestReadyToThrow(t *testing.T) {
	g := defaultGate()
	assert.True(t, g.ReadyToThrow(types.JointAngles{0.2, 0.2, 0.2, 0.1, 0, 0}))
	assert.False(t, g.ReadyToThrow(types.JointAngles{0.2, 0.2, 0.3, 0.1, 0, 0}))
}

func TestWorkspaceClearConstant(t *testing.T) {
	assert.True(t, NewGate(config.DefaultCalibration(), true).WorkspaceClear())
	assert.False(t, NewGate(config.DefaultCalibration(), false).WorkspaceClear())
}

func TestSetLimitsSwapsAtomically(t *testing.T) {
	g := defaultGate()
	var cal config.Calibration
	for i := range cal.JointMin {
		cal.JointMin[i] = -0.5
		cal.JointMax[i] = 0.5
	}
	g.SetLimits(cal)

	assert.False(t, g.ValidateTargets(types.ControlChunk{Targets: types.JointAngles{1, 0, 0, 0, 0, 0}}))
	assert.True(t, g.ValidateTargets(types.ControlChunk{Targets: types.JointAngles{0.4, 0, 0, 0, 0, 0}}))
}

func TestWatchReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calibration.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"joint_min":[-2.5,-2.5,-2.5,-2.5,-2.5,-2.5],"joint_max":[2.5,2.5,2.5,2.5,2.5,2.5]}`), 0o600))

	g := defaultGate()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- g.Watch(ctx, path) }()

	// let the watcher attach before rewriting the file
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"joint_min":[-1,-1,-1,-1,-1,-1],"joint_max":[1,1,1,1,1,1]}`), 0o600))

	require.Eventually(t, func() bool {
		jmin, jmax := g.Limits()
		return jmin[0] == -1 && jmax[0] == 1
	}, 3*time.Second, 20*time.Millisecond, "limits never reloaded")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
