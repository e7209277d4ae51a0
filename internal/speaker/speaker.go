// SPDX-License-Identifier: MIT

// Package speaker queues short utterances and hands them to a synthesis
// backend. Speak returns once the text is handed off; it never waits for
// audio playback to finish.
package speaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lepetpal/lepetpal/internal/log"
	"github.com/lepetpal/lepetpal/internal/metrics"
)

// MaxTextLen bounds utterance length at the boundary.
const MaxTextLen = 500

var (
	// ErrEmptyText rejects blank utterances.
	ErrEmptyText = errors.New("speaker: empty text")
	// ErrTextTooLong rejects utterances over MaxTextLen characters.
	ErrTextTooLong = fmt.Errorf("speaker: text exceeds %d characters", MaxTextLen)
	// ErrQueueFull signals synthesis backpressure.
	ErrQueueFull = errors.New("speaker: utterance queue full")
	// ErrClosed signals the speaker has shut down.
	ErrClosed = errors.New("speaker: closed")
)

// Backend renders one utterance. Implementations may block for the length
// of the audio; the speaker serializes calls on its own goroutine.
type Backend interface {
	Synthesize(ctx context.Context, text string) error
}

// Speaker owns the utterance queue and the synthesis goroutine.
type Speaker struct {
	backend Backend
	queue   chan string
	logger  zerolog.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// New starts a speaker with the given backend and queue depth.
func New(backend Backend, queueSize int) *Speaker {
	if queueSize < 1 {
		queueSize = 1
	}
	s := &Speaker{
		backend: backend,
		queue:   make(chan string, queueSize),
		logger:  log.WithComponent("speaker"),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s
}

// Speak validates text and enqueues it. It returns ErrQueueFull when the
// synthesis backend cannot keep up.
func (s *Speaker) Speak(text string) error {
	if text == "" {
		return ErrEmptyText
	}
	if len(text) > MaxTextLen {
		return ErrTextTooLong
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- text:
		metrics.IncUtterance("queued")
		return nil
	default:
		metrics.IncUtterance("rejected")
		return ErrQueueFull
	}
}

// Close stops accepting utterances, drains the queue, and waits for the
// synthesis goroutine to exit.
func (s *Speaker) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

func (s *Speaker) loop() {
	defer close(s.done)
	for text := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := s.backend.Synthesize(ctx, text)
		cancel()
		if err != nil {
			// Errors after handoff are logged, not surfaced: Speak already
			// returned success when the text entered the queue.
			s.logger.Error().
				Err(err).
				Str("event", "speaker.synthesis_failed").
				Int("text_len", len(text)).
				Msg("synthesis backend failed")
			metrics.IncUtterance("failed")
			continue
		}
		metrics.IncUtterance("spoken")
	}
}
