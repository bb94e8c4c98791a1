package task

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/nextserve/oralvis-sync/pkg/identity"
	"github.com/nextserve/oralvis-sync/pkg/logger"
	"github.com/nextserve/oralvis-sync/pkg/models"
	syncpkg "github.com/nextserve/oralvis-sync/pkg/sync"
)

// Uploader is the slice of the sync engine the runner needs.
type Uploader interface {
	Upload(ctx context.Context, user identity.Identity, rec models.SessionRecord, imagePaths []string, progress chan<- syncpkg.ProgressEvent) error
}

// SessionStore is the slice of the local record store the runner needs.
type SessionStore interface {
	GetByID(sessionID string) (*models.SessionRecord, error)
	Update(rec models.SessionRecord) error
}

// ImageSource lists a session's local image files.
type ImageSource interface {
	ListImages(sessionID string) ([]string, error)
}

// DefaultWorkers is the size of the shared upload worker pool. Uploads are
// I/O bound, so a small pool is enough; different sessions may still
// interleave freely across workers.
const DefaultWorkers = 2

// dispatchRate caps how fast queued uploads are handed to workers, so a
// burst of re-enqueues can't hammer the remote store.
var dispatchRate = rate.Limit(4)

type queuedTask struct {
	task *Task
	user identity.Identity
}

// Runner owns the background upload worker pool.
//
// The runner does not serialize uploads per session id: callers are expected
// to keep at most one task in flight per session. Two concurrent tasks for
// the same session would race on blob writes.
type Runner struct {
	uploader Uploader
	store    SessionStore
	images   ImageSource

	queue   chan queuedTask
	limiter *rate.Limiter
}

// NewRunner creates a runner over the given collaborators.
func NewRunner(uploader Uploader, store SessionStore, images ImageSource) *Runner {
	return &Runner{
		uploader: uploader,
		store:    store,
		images:   images,
		queue:    make(chan queuedTask, 64),
		limiter:  rate.NewLimiter(dispatchRate, 1),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled.
func (r *Runner) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	for i := 0; i < workers; i++ {
		go r.worker(ctx)
	}
}

// Enqueue schedules a background upload for the session and returns the
// task handle. There is no automatic retry: a failed task is retried by
// enqueueing again.
func (r *Runner) Enqueue(user identity.Identity, sessionID string) (*Task, error) {
	t := newTask(sessionID)
	select {
	case r.queue <- queuedTask{task: t, user: user}:
		logger.Info("Upload task queued: task=%s session=%s", t.ID, sessionID)
		return t, nil
	default:
		return nil, fmt.Errorf("upload queue is full")
	}
}

func (r *Runner) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case q := <-r.queue:
			if err := r.limiter.Wait(ctx); err != nil {
				q.task.finishFailed(ReasonCancelled, "Runner shutting down")
				continue
			}
			r.run(ctx, q.task, q.user)
		}
	}
}

func (r *Runner) run(ctx context.Context, t *Task, user identity.Identity) {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.setRunning(cancel)

	if !user.Valid() {
		logger.Error("Upload task failed: task=%s reason=%s", t.ID, ReasonNotAuthenticated)
		t.finishFailed(ReasonNotAuthenticated, "Not signed in")
		return
	}

	rec, err := r.store.GetByID(t.SessionID)
	if err != nil || rec == nil {
		logger.Error("Upload task failed: task=%s session=%s reason=%s err=%v", t.ID, t.SessionID, ReasonSessionNotFound, err)
		t.finishFailed(ReasonSessionNotFound, "Session not found")
		return
	}

	images, err := r.images.ListImages(t.SessionID)
	if err != nil || len(images) == 0 {
		logger.Error("Upload task failed: task=%s session=%s reason=%s err=%v", t.ID, t.SessionID, ReasonNoImages, err)
		t.finishFailed(ReasonNoImages, "No images found for session")
		return
	}

	// Republish the engine's progress stream as task state.
	progress := make(chan syncpkg.ProgressEvent, 16)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for ev := range progress {
			t.setProgress(ev)
		}
	}()

	uploadErr := r.uploader.Upload(taskCtx, user, *rec, images, progress)
	close(progress)
	<-progressDone

	if uploadErr != nil {
		reason := ReasonUploadFailed
		if errors.Is(uploadErr, context.Canceled) {
			reason = ReasonCancelled
		} else if errors.Is(uploadErr, syncpkg.ErrNotAuthenticated) {
			reason = ReasonNotAuthenticated
		}
		logger.Error("Upload task failed: task=%s session=%s reason=%s err=%v", t.ID, t.SessionID, reason, uploadErr)
		t.finishFailed(reason, "Upload failed")
		return
	}

	// Success is only reported once the uploaded flag has been persisted.
	rec.Uploaded = true
	if err := r.store.Update(*rec); err != nil {
		logger.Error("Upload task failed: task=%s session=%s reason=%s err=%v", t.ID, t.SessionID, ReasonLocalUpdateFailed, err)
		t.finishFailed(ReasonLocalUpdateFailed, "Uploaded, but failed to update local record")
		return
	}

	logger.Info("Upload task succeeded: task=%s session=%s images=%d", t.ID, t.SessionID, len(images))
	t.finishSucceeded()
}
