// SPDX-License-Identifier: MIT

package command

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lepetpal/lepetpal/internal/arm"
	"github.com/lepetpal/lepetpal/internal/config"
	"github.com/lepetpal/lepetpal/internal/policy"
	"github.com/lepetpal/lepetpal/internal/safety"
	"github.com/lepetpal/lepetpal/internal/store"
	"github.com/lepetpal/lepetpal/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// chanRunner feeds workers from a test-controlled channel so tests decide
// exactly when the next chunk becomes available.
type chanRunner struct {
	ch chan types.ControlChunk
}

func newChanRunner() *chanRunner {
	return &chanRunner{ch: make(chan types.ControlChunk, 16)}
}

func (r *chanRunner) Infer(string) policy.Stream { return &chanStream{ch: r.ch} }

func (r *chanRunner) feed(chunk types.ControlChunk) { r.ch <- chunk }

func (r *chanRunner) finish() { close(r.ch) }

type chanStream struct {
	ch chan types.ControlChunk
}

func (s *chanStream) Next() (types.ControlChunk, bool) {
	chunk, ok := <-s.ch
	return chunk, ok
}

func (s *chanStream) Close() {}

// fixedRunner replays a fixed slice, letting tests inject arbitrary chunks.
type fixedRunner struct {
	chunks []types.ControlChunk
}

func (r fixedRunner) Infer(string) policy.Stream {
	cp := make([]types.ControlChunk, len(r.chunks))
	copy(cp, r.chunks)
	return &sliceStream{chunks: cp}
}

type sliceStream struct {
	chunks []types.ControlChunk
	pos    int
}

func (s *sliceStream) Next() (types.ControlChunk, bool) {
	if s.pos >= len(s.chunks) {
		return types.ControlChunk{}, false
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, true
}

func (s *sliceStream) Close() { s.pos = len(s.chunks) }

func newManager(t *testing.T, driver arm.Driver, model policy.Runner) (*Manager, *store.Store) {
	t.Helper()
	st := store.New()
	gate := safety.NewGate(config.DefaultCalibration(), true)
	m := New(st, driver, gate, model, 1000)
	t.Cleanup(m.Wait)
	return m, st
}

func waitTerminal(t *testing.T, st *store.Store, id string) types.Status {
	t.Helper()
	var snap types.Status
	require.Eventually(t, func() bool {
		s, ok := st.Get(id)
		if !ok {
			return false
		}
		snap = s
		return s.State.Terminal()
	}, 5*time.Second, 2*time.Millisecond, "request %s never reached a terminal state", id)
	return snap
}

func TestFetchHappyPathRunsHandoffMacro(t *testing.T) {
	driver := arm.NewMock()
	driver.Connect()
	m, st := newManager(t, driver, policy.Scripted{})

	id, err := m.Start(PromptPickUpBall, nil)
	require.NoError(t, err)

	snap := waitTerminal(t, st, id)
	m.Wait()

	assert.Equal(t, types.StateSucceeded, snap.State)
	assert.Equal(t, "Completed", snap.Message)
	require.NotNil(t, snap.DurationMS)
	assert.Greater(t, *snap.DurationMS, int64(0))

	// all five scripted chunks went to the arm, gated in order
	require.Len(t, driver.Sent(), 5)
	assert.Equal(t, "ready_to_throw", driver.Sent()[4].Phase)

	// the throw macro ran: shoulder dipped, elbow extended from the ready pose
	joints := driver.JointAngles()
	assert.InDelta(t, -0.3, joints[1], 1e-9)
	assert.InDelta(t, 1.2, joints[2], 1e-9)

	// slot released for the next command
	assert.Empty(t, m.Active())
}

func TestTreatPromptDoesNotThrow(t *testing.T) {
	driver := arm.NewMock()
	driver.Connect()
	m, st := newManager(t, driver, policy.Scripted{})

	id, err := m.Start(PromptGetTreat, nil)
	require.NoError(t, err)

	snap := waitTerminal(t, st, id)
	m.Wait()

	assert.Equal(t, types.StateSucceeded, snap.State)
	// pose is exactly the last scripted chunk; no throw waypoints applied
	last := driver.Sent()[len(driver.Sent())-1]
	assert.Equal(t, last.Targets, driver.JointAngles())
}

func TestStateTransitionsAreOrdered(t *testing.T) {
	driver := arm.NewMock()
	runner := newChanRunner()
	m, st := newManager(t, driver, runner)

	id, err := m.Start(PromptGetTreat, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, ok := st.Get(id)
		return ok && s.State == types.StateExecuting
	}, time.Second, time.Millisecond)

	runner.feed(types.ControlChunk{Phase: "approach", Targets: types.JointAngles{0.1, 0, 0, 0, 0, 0}, Confidence: 0.75})
	require.Eventually(t, func() bool {
		s, _ := st.Get(id)
		return s.Phase != nil && *s.Phase == "approach"
	}, time.Second, time.Millisecond)

	s, _ := st.Get(id)
	require.NotNil(t, s.Confidence)
	assert.Equal(t, 0.75, *s.Confidence)
	assert.Equal(t, "approach", s.Message)

	runner.finish()
	snap := waitTerminal(t, st, id)
	assert.Equal(t, types.StateSucceeded, snap.State)
}

func TestBusyRejection(t *testing.T) {
	driver := arm.NewMock()
	runner := newChanRunner()
	m, st := newManager(t, driver, runner)

	id1, err := m.Start(PromptPickUpBall, nil)
	require.NoError(t, err)

	_, err = m.Start(PromptGetTreat, nil)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, st.Len(), "rejected command must not create a status")

	runner.finish()
	waitTerminal(t, st, id1)
	m.Wait()

	// slot is free again
	id2, err := m.Start(PromptGetTreat, Options{"speed": "slow"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	waitTerminal(t, st, id2)
}

func TestPreemptionAbortsActiveCommand(t *testing.T) {
	driver := arm.NewMock()
	driver.HomeDelay = 200 * time.Millisecond
	runner := newChanRunner()
	m, st := newManager(t, driver, runner)

	id1, err := m.Start(PromptPickUpBall, nil)
	require.NoError(t, err)
	runner.feed(types.ControlChunk{Phase: "approach", Targets: types.JointAngles{0.1, 0, 0, 0, 0, 0}, Confidence: 0.7})
	require.Eventually(t, func() bool {
		return len(driver.Sent()) == 1
	}, time.Second, time.Millisecond)

	id2 := m.InterruptAndHome()
	assert.NotEqual(t, id1, id2)
	// wake the worker; it must observe the cancel signal, not this chunk
	runner.feed(types.ControlChunk{Phase: "grasp", Targets: types.JointAngles{0.2, 0, 0, 0, 0, 0}, Confidence: 0.8})

	first := waitTerminal(t, st, id1)
	second := waitTerminal(t, st, id2)
	m.Wait()

	assert.Equal(t, types.StateAborted, first.State)
	assert.Equal(t, "Interrupted by Go Home", first.Message)
	assert.Equal(t, types.StateSucceeded, second.State)
	assert.Equal(t, "At home pose", second.Message)

	// the grasp chunk was never forwarded
	require.Len(t, driver.Sent(), 1)
	assert.Equal(t, arm.HomePose, driver.JointAngles())

	runner.finish()
}

func TestSafetyTripFailsWithoutDriverCall(t *testing.T) {
	driver := arm.NewMock()
	runner := fixedRunner{chunks: []types.ControlChunk{
		{Phase: "detect", Targets: types.JointAngles{10.0, 0, 0, 0, 0, 0}, Confidence: 0.9},
	}}
	m, st := newManager(t, driver, runner)

	id, err := m.Start(PromptGetTreat, nil)
	require.NoError(t, err)

	snap := waitTerminal(t, st, id)
	m.Wait()

	assert.Equal(t, types.StateFailed, snap.State)
	assert.Equal(t, "safety check failed", snap.Message)
	assert.Empty(t, driver.Sent(), "rejected chunk must never reach the arm")
}

func TestZeroChunkStreamStillSucceeds(t *testing.T) {
	driver := arm.NewMock()
	m, st := newManager(t, driver, fixedRunner{})

	id, err := m.Start(PromptPickUpBall, nil)
	require.NoError(t, err)

	snap := waitTerminal(t, st, id)
	m.Wait()

	assert.Equal(t, types.StateSucceeded, snap.State)
	assert.Empty(t, driver.Sent())
}

func TestDriverFailureFailsRequest(t *testing.T) {
	driver := arm.NewMock()
	driver.SendErr = errors.New("servo fault on joint 3")
	m, st := newManager(t, driver, policy.Scripted{})

	id, err := m.Start(PromptGetTreat, nil)
	require.NoError(t, err)

	snap := waitTerminal(t, st, id)
	m.Wait()

	assert.Equal(t, types.StateFailed, snap.State)
	assert.Equal(t, "servo fault on joint 3", snap.Message)
}

func TestHomingFailureReported(t *testing.T) {
	driver := arm.NewMock()
	driver.HomeErr = errors.New("motor stalled")
	m, st := newManager(t, driver, policy.Scripted{})

	id := m.InterruptAndHome()
	snap := waitTerminal(t, st, id)
	m.Wait()

	assert.Equal(t, types.StateFailed, snap.State)
	assert.Equal(t, "home error: motor stalled", snap.Message)
}

func TestDoubleInterruptIsIdempotent(t *testing.T) {
	driver := arm.NewMock()
	m, st := newManager(t, driver, policy.Scripted{})

	id1 := m.InterruptAndHome()
	id2 := m.InterruptAndHome()
	assert.NotEqual(t, id1, id2)

	first := waitTerminal(t, st, id1)
	second := waitTerminal(t, st, id2)
	m.Wait()

	assert.Equal(t, types.StateSucceeded, first.State)
	assert.Equal(t, types.StateSucceeded, second.State)
	assert.Equal(t, arm.HomePose, driver.JointAngles())
	assert.Empty(t, m.Active())
}

func TestTerminalStatusIsImmutable(t *testing.T) {
	driver := arm.NewMock()
	m, st := newManager(t, driver, policy.Scripted{})

	id, err := m.Start(PromptGetTreat, nil)
	require.NoError(t, err)
	snap := waitTerminal(t, st, id)
	m.Wait()

	applied := st.Update(id, types.Patch{State: types.Ptr(types.StateExecuting)})
	assert.False(t, applied)
	after, _ := st.Get(id)
	assert.Equal(t, snap.State, after.State)
}
