// SPDX-License-Identifier: MIT

package speaker

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/lepetpal/lepetpal/internal/log"
)

// CommandBackend shells out to a local TTS program (espeak, say, ...) with
// the utterance as its sole argument.
type CommandBackend struct {
	Program string
}

// NewCommandBackend returns a backend invoking the given program.
func NewCommandBackend(program string) *CommandBackend {
	return &CommandBackend{Program: program}
}

// Synthesize runs the TTS program and waits for it to exit.
func (b *CommandBackend) Synthesize(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, b.Program, text) // #nosec G204 -- program name comes from operator config
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tts command %q: %w (output: %s)", b.Program, err, out)
	}
	return nil
}

// LogBackend is the mock-mode backend: it records the utterance in the log
// instead of producing audio.
type LogBackend struct{}

// Synthesize logs the utterance.
func (LogBackend) Synthesize(_ context.Context, text string) error {
	logger := log.WithComponent("speaker")
	logger.Info().
		Str("event", "speaker.mock_utterance").
		Str("text", text).
		Msg("mock speaker utterance")
	return nil
}
