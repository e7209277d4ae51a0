// SPDX-License-Identifier: MIT

package policy

import "github.com/lepetpal/lepetpal/internal/types"

// Scripted replays a fixed phase table per prompt. It never self-sleeps;
// the consumer paces the stream.
type Scripted struct{}

var treatScript = []types.ControlChunk{
	{Phase: "detect", Targets: types.JointAngles{0.1, 0.1, 0.0, 0.0, 0.0, 0.0}, Confidence: 0.7},
	{Phase: "approach", Targets: types.JointAngles{0.2, 0.1, 0.0, 0.1, 0.0, 0.0}, Confidence: 0.75},
	{Phase: "grasp", Targets: types.JointAngles{0.3, 0.1, 0.0, 0.1, 0.0, 0.0}, Confidence: 0.8},
	{Phase: "lift", Targets: types.JointAngles{0.2, 0.2, 0.0, 0.1, 0.0, 0.0}, Confidence: 0.82},
	{Phase: "drop", Targets: types.JointAngles{0.1, 0.2, 0.0, 0.1, 0.0, 0.0}, Confidence: 0.84},
}

var fetchScript = []types.ControlChunk{
	{Phase: "detect", Targets: types.JointAngles{0.0, 0.1, 0.0, 0.0, 0.0, 0.0}, Confidence: 0.7},
	{Phase: "approach", Targets: types.JointAngles{0.1, 0.2, 0.0, 0.0, 0.0, 0.0}, Confidence: 0.75},
	{Phase: "grasp", Targets: types.JointAngles{0.2, 0.3, 0.0, 0.1, 0.0, 0.0}, Confidence: 0.8},
	{Phase: "lift", Targets: types.JointAngles{0.2, 0.2, 0.1, 0.1, 0.0, 0.0}, Confidence: 0.82},
	{Phase: "ready_to_throw", Targets: types.JointAngles{0.2, 0.2, 0.2, 0.1, 0.0, 0.0}, Confidence: 0.85},
}

// Infer returns the phase table for the prompt. "get the treat" has its own
// script ending in a drop; everything else runs the fetch script ending in
// the ready-to-throw posture.
func (Scripted) Infer(prompt string) Stream {
	script := fetchScript
	if prompt == "get the treat" {
		script = treatScript
	}
	return &scriptedStream{script: script}
}

type scriptedStream struct {
	script []types.ControlChunk
	pos    int
}

func (s *scriptedStream) Next() (types.ControlChunk, bool) {
	if s.pos >= len(s.script) {
		return types.ControlChunk{}, false
	}
	chunk := s.script[s.pos]
	s.pos++
	return chunk, true
}

// Close exhausts the stream; the scripted producer holds no resources.
func (s *scriptedStream) Close() {
	s.pos = len(s.script)
}
