package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nextserve/oralvis-sync/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndGetByID(t *testing.T) {
	s := openTestStore(t)

	rec := models.SessionRecord{
		SessionID: "OVH-1700000000000-4231",
		Name:      "Jane Doe",
		Age:       "34",
		CreatedAt: 1700000000000,
	}
	if err := s.Upsert(rec); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := s.GetByID(rec.SessionID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if *got != rec {
		t.Errorf("got %+v, want %+v", *got, rec)
	}

	// Upsert with the same id replaces, not duplicates
	rec.Name = "Jane D."
	if err := s.Upsert(rec); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	count, err := s.Count()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row after replace, got %d", count)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetByID("OVH-0-0000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing session, got %+v", got)
	}
}

func TestGetAllNewestFirst(t *testing.T) {
	s := openTestStore(t)

	for i, id := range []string{"OVH-100-0001", "OVH-300-0003", "OVH-200-0002"} {
		rec := models.SessionRecord{
			SessionID: id,
			Name:      "Patient",
			Age:       "40",
			CreatedAt: int64(100 * (i*i + 1)), // 100, 200, 500
		}
		if err := s.Upsert(rec); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	all, err := s.GetAll()
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].CreatedAt < all[i].CreatedAt {
			t.Errorf("sessions not newest-first: %+v", all)
		}
	}
}

func TestSearchMatchesIDAndName(t *testing.T) {
	s := openTestStore(t)

	records := []models.SessionRecord{
		{SessionID: "OVH-1-0001", Name: "Jane Doe", Age: "34", CreatedAt: 1},
		{SessionID: "OVH-2-0002", Name: "John Roe", Age: "41", CreatedAt: 2},
		{SessionID: "XYZ-3-0003", Name: "Janet Poe", Age: "29", CreatedAt: 3},
	}
	for _, rec := range records {
		if err := s.Upsert(rec); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	tests := []struct {
		query string
		want  int
	}{
		{"Jane", 2},  // Jane Doe + Janet Poe
		{"OVH", 2},   // matches by id
		{"Roe", 1},   // matches by name
		{"nope", 0},
	}

	for _, tt := range tests {
		got, err := s.Search(tt.query)
		if err != nil {
			t.Fatalf("search %q failed: %v", tt.query, err)
		}
		if len(got) != tt.want {
			t.Errorf("search %q returned %d records, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestUpdateFlipsUploaded(t *testing.T) {
	s := openTestStore(t)

	rec := models.SessionRecord{SessionID: "OVH-1-0001", Name: "Jane", Age: "34", CreatedAt: 1}
	if err := s.Upsert(rec); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	rec.Uploaded = true
	if err := s.Update(rec); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := s.GetByID(rec.SessionID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.Uploaded {
		t.Error("uploaded flag not persisted")
	}
}

func TestUpdateMissingSessionFails(t *testing.T) {
	s := openTestStore(t)

	err := s.Update(models.SessionRecord{SessionID: "OVH-0-0000", Name: "X", Age: "1"})
	if err == nil {
		t.Error("expected error updating a missing session")
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	rec := models.SessionRecord{SessionID: "OVH-1-0001", Name: "Jane", Age: "34", CreatedAt: 1}
	if err := s.Upsert(rec); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := s.Delete(rec.SessionID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, err := s.GetByID(rec.SessionID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Error("session still present after delete")
	}
}

func TestWatchSignalsOnMutation(t *testing.T) {
	s := openTestStore(t)
	ch := s.Watch()

	rec := models.SessionRecord{SessionID: "OVH-1-0001", Name: "Jane", Age: "34", CreatedAt: 1}
	if err := s.Upsert(rec); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after upsert")
	}

	// Multiple rapid mutations coalesce into at least one pending signal
	rec.Uploaded = true
	if err := s.Update(rec); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := s.Delete(rec.SessionID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after update/delete")
	}
}
