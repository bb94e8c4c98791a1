package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nextserve/oralvis-sync/pkg/identity"
	"github.com/nextserve/oralvis-sync/pkg/models"
	syncpkg "github.com/nextserve/oralvis-sync/pkg/sync"
)

var testUser = identity.Identity{UserID: "user-1", Token: "tok-1"}

type fakeUploader struct {
	mu     sync.Mutex
	err    error
	events []syncpkg.ProgressEvent

	// blockUntilCancel makes Upload wait for ctx cancellation, then return
	// the ctx error, mimicking a cancellation mid-transfer.
	blockUntilCancel bool

	calls int
}

func (f *fakeUploader) Upload(ctx context.Context, user identity.Identity, rec models.SessionRecord, imagePaths []string, progress chan<- syncpkg.ProgressEvent) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.blockUntilCancel {
		<-ctx.Done()
		return ctx.Err()
	}

	for _, ev := range f.events {
		if progress != nil {
			progress <- ev
		}
	}
	return f.err
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]models.SessionRecord
	getErr  error
	updErr  error
	updated []models.SessionRecord
}

func newFakeStore(recs ...models.SessionRecord) *fakeStore {
	s := &fakeStore{records: make(map[string]models.SessionRecord)}
	for _, r := range recs {
		s.records[r.SessionID] = r
	}
	return s
}

func (s *fakeStore) GetByID(sessionID string) (*models.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	rec, ok := s.records[sessionID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *fakeStore) Update(rec models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updErr != nil {
		return s.updErr
	}
	s.records[rec.SessionID] = rec
	s.updated = append(s.updated, rec)
	return nil
}

type fakeImages struct {
	images map[string][]string
}

func (f *fakeImages) ListImages(sessionID string) ([]string, error) {
	return f.images[sessionID], nil
}

func testRecord() models.SessionRecord {
	return models.SessionRecord{SessionID: "OVH-1-0001", Name: "Jane", Age: "34", CreatedAt: 1}
}

func startRunner(t *testing.T, up Uploader, store SessionStore, images ImageSource) *Runner {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r := NewRunner(up, store, images)
	r.Start(ctx, 2)
	return r
}

func waitDone(t *testing.T, task *Task) Status {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st := task.Wait(ctx)
	if st.Phase != PhaseSucceeded && st.Phase != PhaseFailed {
		t.Fatalf("task did not reach a terminal phase: %+v", st)
	}
	return st
}

func TestTaskSucceedsAndPersistsUploadedFlag(t *testing.T) {
	up := &fakeUploader{events: []syncpkg.ProgressEvent{
		{Percent: 5, Message: "Preparing upload..."},
		{Percent: 10, Message: "Metadata uploaded"},
		{Percent: 90, Message: "Uploaded 2/2 images"},
		{Percent: 100, Message: "Upload complete"},
	}}
	store := newFakeStore(testRecord())
	images := &fakeImages{images: map[string][]string{"OVH-1-0001": {"/img/a.jpg", "/img/b.jpg"}}}
	r := startRunner(t, up, store, images)

	task, err := r.Enqueue(testUser, "OVH-1-0001")
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	st := waitDone(t, task)
	if st.Phase != PhaseSucceeded {
		t.Fatalf("phase = %v (%s), want succeeded", st.Phase, st.Reason)
	}
	if st.Percent != 100 {
		t.Errorf("final percent = %d, want 100", st.Percent)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.updated) != 1 || !store.updated[0].Uploaded {
		t.Errorf("uploaded flag not persisted: %+v", store.updated)
	}
}

func TestTaskFailureReasons(t *testing.T) {
	tests := []struct {
		name   string
		user   identity.Identity
		store  *fakeStore
		images map[string][]string
		upErr  error
		want   string
	}{
		{
			name:   "missing identity",
			user:   identity.Identity{},
			store:  newFakeStore(testRecord()),
			images: map[string][]string{"OVH-1-0001": {"/img/a.jpg"}},
			want:   ReasonNotAuthenticated,
		},
		{
			name:   "unknown session",
			user:   testUser,
			store:  newFakeStore(),
			images: map[string][]string{"OVH-1-0001": {"/img/a.jpg"}},
			want:   ReasonSessionNotFound,
		},
		{
			name:   "no local images",
			user:   testUser,
			store:  newFakeStore(testRecord()),
			images: map[string][]string{},
			want:   ReasonNoImages,
		},
		{
			name:   "engine failure",
			user:   testUser,
			store:  newFakeStore(testRecord()),
			images: map[string][]string{"OVH-1-0001": {"/img/a.jpg"}},
			upErr:  errors.New("blob write failed"),
			want:   ReasonUploadFailed,
		},
		{
			name:   "engine reports missing auth",
			user:   testUser,
			store:  newFakeStore(testRecord()),
			images: map[string][]string{"OVH-1-0001": {"/img/a.jpg"}},
			upErr:  syncpkg.ErrNotAuthenticated,
			want:   ReasonNotAuthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUploader{err: tt.upErr}
			r := startRunner(t, up, tt.store, &fakeImages{images: tt.images})

			task, err := r.Enqueue(tt.user, "OVH-1-0001")
			if err != nil {
				t.Fatalf("enqueue failed: %v", err)
			}

			st := waitDone(t, task)
			if st.Phase != PhaseFailed {
				t.Fatalf("phase = %v, want failed", st.Phase)
			}
			if st.Reason != tt.want {
				t.Errorf("reason = %q, want %q", st.Reason, tt.want)
			}

			tt.store.mu.Lock()
			updated := len(tt.store.updated)
			tt.store.mu.Unlock()
			if updated != 0 {
				t.Error("failed task must not flip the uploaded flag")
			}
		})
	}
}

func TestTaskLocalUpdateFailure(t *testing.T) {
	up := &fakeUploader{}
	store := newFakeStore(testRecord())
	store.updErr = errors.New("disk full")
	r := startRunner(t, up, store, &fakeImages{images: map[string][]string{"OVH-1-0001": {"/img/a.jpg"}}})

	task, _ := r.Enqueue(testUser, "OVH-1-0001")
	st := waitDone(t, task)
	if st.Phase != PhaseFailed || st.Reason != ReasonLocalUpdateFailed {
		t.Errorf("got %+v, want failed/%s", st, ReasonLocalUpdateFailed)
	}
}

func TestTaskCancellation(t *testing.T) {
	up := &fakeUploader{blockUntilCancel: true}
	store := newFakeStore(testRecord())
	r := startRunner(t, up, store, &fakeImages{images: map[string][]string{"OVH-1-0001": {"/img/a.jpg"}}})

	task, _ := r.Enqueue(testUser, "OVH-1-0001")

	// Wait for the task to leave the queue before cancelling.
	deadline := time.Now().Add(5 * time.Second)
	for task.Snapshot().Phase == PhaseQueued {
		if time.Now().After(deadline) {
			t.Fatal("task never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	task.Cancel()

	st := waitDone(t, task)
	if st.Phase != PhaseFailed || st.Reason != ReasonCancelled {
		t.Fatalf("got %+v, want failed/%s", st, ReasonCancelled)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.updated) != 0 {
		t.Error("cancelled task must not flip the uploaded flag")
	}
}

func TestTaskProgressRepublished(t *testing.T) {
	up := &fakeUploader{events: []syncpkg.ProgressEvent{
		{Percent: 5, Message: "Preparing upload..."},
		{Percent: 50, Message: "Uploading image 1/2"},
		{Percent: 100, Message: "Upload complete"},
	}}
	store := newFakeStore(testRecord())
	r := startRunner(t, up, store, &fakeImages{images: map[string][]string{"OVH-1-0001": {"/img/a.jpg"}}})

	task, _ := r.Enqueue(testUser, "OVH-1-0001")
	st := waitDone(t, task)
	if st.Phase != PhaseSucceeded {
		t.Fatalf("phase = %v, want succeeded", st.Phase)
	}
	// The final republished state reflects the end of the stream.
	if st.Percent != 100 {
		t.Errorf("final percent = %d, want 100", st.Percent)
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseQueued, "queued"},
		{PhaseRunning, "running"},
		{PhaseSucceeded, "succeeded"},
		{PhaseFailed, "failed"},
		{Phase(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
