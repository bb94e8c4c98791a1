package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nextserve/oralvis-sync/pkg/models"
)

func TestExportExtract(t *testing.T) {
	srcDir := t.TempDir()
	var images []string
	for _, name := range []string{"OVH-1-0001_img1.jpg", "OVH-1-0001_img2.jpg"} {
		path := filepath.Join(srcDir, name)
		if err := os.WriteFile(path, []byte("content of "+name), 0644); err != nil {
			t.Fatalf("failed to write image: %v", err)
		}
		images = append(images, path)
	}

	rec := models.SessionRecord{SessionID: "OVH-1-0001", Name: "Jane Doe", Age: "34", CreatedAt: 1700000000000, Uploaded: true}

	var buf bytes.Buffer
	if err := Export(&buf, rec, images); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	destDir := filepath.Join(t.TempDir(), "restored")
	got, err := Extract(&buf, destDir)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if got != rec {
		t.Errorf("record = %+v, want %+v", got, rec)
	}

	for _, name := range []string{"OVH-1-0001_img1.jpg", "OVH-1-0001_img2.jpg"} {
		data, err := os.ReadFile(filepath.Join(destDir, name))
		if err != nil {
			t.Fatalf("restored image missing: %v", err)
		}
		if string(data) != "content of "+name {
			t.Errorf("image %s content mismatch: %q", name, data)
		}
	}
}

func TestExtractRejectsBadInput(t *testing.T) {
	srcDir := t.TempDir()
	img := filepath.Join(srcDir, "a.jpg")
	if err := os.WriteFile(img, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	var buf bytes.Buffer
	rec := models.SessionRecord{SessionID: "OVH-1-0001", Name: "A", Age: "1"}
	if err := Export(&buf, rec, []string{img}); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	// Truncated stream must fail cleanly rather than return a partial record.
	half := buf.Bytes()[:buf.Len()/2]
	if _, err := Extract(bytes.NewReader(half), t.TempDir()); err == nil {
		t.Error("expected error for truncated archive")
	}

	if _, err := Extract(bytes.NewReader(nil), t.TempDir()); err == nil {
		t.Error("expected error for empty input")
	}
}
