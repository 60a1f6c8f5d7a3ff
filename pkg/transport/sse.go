package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// LineStream is the streaming surface the demo services write to. Each
// line becomes one SSE event; exactly one terminal event ends the stream.
type LineStream interface {
	// WriteLine emits {"line":...,"done":false} and paces the stream.
	WriteLine(ctx context.Context, line string) error
	// WriteEvent emits a named SSE event with an arbitrary JSON payload.
	WriteEvent(ctx context.Context, event string, payload any) error
	// WriteDone emits the terminal event. The payload fields are merged
	// with "done":true.
	WriteDone(ctx context.Context, payload map[string]any) error
	// Fail emits a terminal event carrying an error message.
	Fail(ctx context.Context, message string) error
}

// writerState tracks the state of an SSE stream.
type writerState int

const (
	writerIdle      writerState = iota // Initial state, no writes yet
	writerStreaming                    // At least one event written
	writerCompleted                    // Terminal event sent
)

// Stream writes paced SSE events to an http.ResponseWriter. The format is
//
//	data: {"line":"...","done":false}\n\n
//
// for progress lines, optionally
//
//	event: {name}\ndata: {json}\n\n
//
// for named events, and a single terminal
//
//	data: {...,"done":true}\n\n
//
// per stream. Writes after the terminal event fail.
type Stream struct {
	w     http.ResponseWriter
	rc    *http.ResponseController
	delay time.Duration

	mu    sync.Mutex
	state writerState
}

var _ LineStream = (*Stream)(nil)

// NewStream creates a Stream pacing line events with the given delay.
// A zero delay disables pacing (used by tests and non-demo streams).
func NewStream(w http.ResponseWriter, delay time.Duration) *Stream {
	return &Stream{
		w:     w,
		rc:    http.NewResponseController(w),
		delay: delay,
	}
}

// WriteLine emits a progress line and then sleeps for the configured
// delay, returning early if the context is cancelled.
func (s *Stream) WriteLine(ctx context.Context, line string) error {
	payload := map[string]any{"line": line, "done": false}
	if err := s.write(ctx, "", payload, false); err != nil {
		return err
	}
	return s.pace(ctx)
}

// WriteEvent emits a named event without pacing.
func (s *Stream) WriteEvent(ctx context.Context, event string, payload any) error {
	return s.write(ctx, event, payload, false)
}

// WriteDone emits the terminal event and completes the stream.
func (s *Stream) WriteDone(ctx context.Context, payload map[string]any) error {
	merged := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		merged[k] = v
	}
	merged["done"] = true
	return s.write(ctx, "", merged, true)
}

// Fail emits a terminal event carrying an error message.
func (s *Stream) Fail(ctx context.Context, message string) error {
	return s.write(ctx, "", map[string]any{"done": true, "error": message}, true)
}

func (s *Stream) write(ctx context.Context, event string, payload any, terminal bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerCompleted {
		return errors.New("cannot write event: stream is completed")
	}

	// First event: set SSE headers.
	if s.state == writerIdle {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.state = writerStreaming
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if event != "" {
		_, err = fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data)
	} else {
		_, err = fmt.Fprintf(s.w, "data: %s\n\n", data)
	}
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	if terminal {
		s.state = writerCompleted
	}

	return nil
}

// pace sleeps for the configured inter-line delay, aborting on cancel.
func (s *Stream) pace(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Completed reports whether the terminal event has been written.
func (s *Stream) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == writerCompleted
}
