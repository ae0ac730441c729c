package orchestrator

import (
	"fmt"

	"github.com/dusk-indust/deckenrich/internal/dispatch"
	"go.uber.org/zap"
)

// ProgressFunc receives coarse milestones: the five run phases, plus the
// dispatcher's start, per-unit and completion events. Phase events come from
// the calling goroutine; per-unit events are called synchronously from each
// dispatch goroutine, so the callback must be safe for concurrent use.
type ProgressFunc = dispatch.ProgressFunc

// ProgressEvent is one progress callback invocation.
type ProgressEvent struct {
	Message string
	Current int
	Total   int
}

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
	}
}

// Func adapts the reporter to a ProgressFunc.
func (pr *ProgressReporter) Func() ProgressFunc {
	return func(message string, current, total int) {
		pr.Emit(ProgressEvent{Message: message, Current: current, Total: total})
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel. Emit must not be called after
// Close.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch {
	case event.Total <= 0:
		return fmt.Sprintf("  ● %s", event.Message)
	case event.Current >= event.Total:
		return fmt.Sprintf("  ✓ %s [%d/%d]", event.Message, event.Current, event.Total)
	default:
		return fmt.Sprintf("  ● %s [%d/%d]", event.Message, event.Current, event.Total)
	}
}

// guard wraps fn so a nil callback is a no-op and a panicking one is logged
// instead of aborting the run.
func guard(logger *zap.Logger, fn ProgressFunc) ProgressFunc {
	return func(message string, current, total int) {
		if fn == nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				logger.Warn("progress callback panicked", zap.Any("panic", r), zap.String("message", message))
			}
		}()
		fn(message, current, total)
	}
}
