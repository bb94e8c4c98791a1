// Package task runs session uploads as cancellable background units of work
// whose lifecycle is independent of whatever screen or command started them.
package task

import (
	"context"
	"sync"

	"github.com/google/uuid"

	syncpkg "github.com/nextserve/oralvis-sync/pkg/sync"
)

// Phase is the task lifecycle state: Queued → Running → {Succeeded | Failed}.
type Phase int

const (
	PhaseQueued Phase = iota
	PhaseRunning
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseQueued:
		return "queued"
	case PhaseRunning:
		return "running"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Machine-usable failure reasons.
const (
	ReasonNotAuthenticated  = "not_authenticated"
	ReasonSessionNotFound   = "session_not_found"
	ReasonNoImages          = "no_images"
	ReasonUploadFailed      = "upload_failed"
	ReasonLocalUpdateFailed = "local_update_failed"
	ReasonCancelled         = "cancelled"
)

// Status is a point-in-time snapshot of a task.
type Status struct {
	Phase   Phase
	Percent int
	Message string

	// Reason is set only when Phase is PhaseFailed.
	Reason string
}

// Task is one background upload of one session.
type Task struct {
	// ID uniquely identifies this enqueue; re-enqueueing the same session
	// produces a new task.
	ID        string
	SessionID string

	mu      sync.Mutex
	phase   Phase
	percent int
	message string
	reason  string

	cancel context.CancelFunc
	done   chan struct{}
}

func newTask(sessionID string) *Task {
	return &Task{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		phase:     PhaseQueued,
		message:   "Queued",
		done:      make(chan struct{}),
	}
}

// Snapshot returns the task's current state.
func (t *Task) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		Phase:   t.phase,
		Percent: t.percent,
		Message: t.message,
		Reason:  t.reason,
	}
}

// Cancel requests cancellation. The upload stops at the next blob operation
// boundary; a cancelled task never marks its session as uploaded.
func (t *Task) Cancel() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done returns a channel closed when the task reaches a terminal phase.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx expires, returning the final
// (or latest, on ctx expiry) snapshot.
func (t *Task) Wait(ctx context.Context) Status {
	select {
	case <-t.done:
	case <-ctx.Done():
	}
	return t.Snapshot()
}

func (t *Task) setRunning(cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = PhaseRunning
	t.message = "Starting upload..."
	t.cancel = cancel
}

func (t *Task) setProgress(ev syncpkg.ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != PhaseRunning {
		return
	}
	t.percent = ev.Percent
	t.message = ev.Message
}

func (t *Task) finishSucceeded() {
	t.mu.Lock()
	t.phase = PhaseSucceeded
	t.percent = 100
	t.message = "Upload completed"
	t.mu.Unlock()
	close(t.done)
}

func (t *Task) finishFailed(reason, message string) {
	t.mu.Lock()
	t.phase = PhaseFailed
	t.reason = reason
	t.message = message
	t.mu.Unlock()
	close(t.done)
}
