// SPDX-License-Identifier: MIT

// Package types holds the core domain types shared across the control plane:
// command lifecycle states, status records, and policy control chunks.
package types

// NumJoints is the joint count of the follower arm.
const NumJoints = 6

// JointAngles is one commanded pose, in radians, one entry per joint.
type JointAngles [NumJoints]float64

// ControlChunk is a single step of policy output: the current phase label,
// the joint targets to command, and the model's confidence in [0,1].
// Chunks are consumed by the command worker and never persisted.
type ControlChunk struct {
	Phase      string      `json:"phase"`
	Targets    JointAngles `json:"targets"`
	Confidence float64     `json:"confidence"`
}

// State is the lifecycle state of a command request.
type State string

const (
	StateQueued       State = "queued"
	StatePlanning     State = "planning"
	StateExecuting    State = "executing"
	StateHandoffMacro State = "handoff_macro"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
	StateAborted      State = "aborted"
)

// Terminal reports whether the state is absorbing. Once a status reaches a
// terminal state no further field may change.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateAborted:
		return true
	}
	return false
}

// Status is the mutable record tracked per request id. Nullable fields are
// pointers so that snapshots marshal the contract's explicit nulls.
type Status struct {
	State      State    `json:"state"`
	Phase      *string  `json:"phase"`
	Confidence *float64 `json:"confidence"`
	Message    string   `json:"message"`
	DurationMS *int64   `json:"duration_ms"`
}

// Patch is a field-wise update applied to a Status. Nil fields are left
// untouched.
type Patch struct {
	State      *State
	Phase      *string
	Confidence *float64
	Message    *string
	DurationMS *int64
}

// Apply merges p into s. It refuses the merge and returns false when s is
// already terminal, enforcing the monotonicity invariant at the type level.
func (s *Status) Apply(p Patch) bool {
	if s.State.Terminal() {
		return false
	}
	if p.State != nil {
		s.State = *p.State
	}
	if p.Phase != nil {
		s.Phase = p.Phase
	}
	if p.Confidence != nil {
		s.Confidence = p.Confidence
	}
	if p.Message != nil {
		s.Message = *p.Message
	}
	if p.DurationMS != nil {
		s.DurationMS = p.DurationMS
	}
	return true
}

// Clone returns a deep copy of s; mutating the copy never affects s.
func (s Status) Clone() Status {
	out := s
	if s.Phase != nil {
		v := *s.Phase
		out.Phase = &v
	}
	if s.Confidence != nil {
		v := *s.Confidence
		out.Confidence = &v
	}
	if s.DurationMS != nil {
		v := *s.DurationMS
		out.DurationMS = &v
	}
	return out
}

// Ptr returns a pointer to v; a convenience for building patches.
func Ptr[T any](v T) *T { return &v }
