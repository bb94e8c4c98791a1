package cmd

import (
	"strings"
	"testing"

	"github.com/nextserve/oralvis-sync/pkg/models"
)

func TestFormatSession(t *testing.T) {
	rec := models.SessionRecord{
		SessionID: "OVH-1700000000000-4231",
		Name:      "Jane Doe",
		Age:       "34",
		CreatedAt: 1700000000000,
		Uploaded:  false,
	}

	line := formatSession(rec)
	for _, want := range []string{"OVH-1700000000000-4231", "Jane Doe", "age 34", "local"} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected line to contain %q, got: %s", want, line)
		}
	}

	rec.Uploaded = true
	line = formatSession(rec)
	if !strings.Contains(line, "uploaded") {
		t.Errorf("Expected uploaded marker, got: %s", line)
	}
}

func TestValueOrUnset(t *testing.T) {
	if got := valueOrUnset(""); got != "(not set)" {
		t.Errorf("Expected (not set), got %q", got)
	}
	if got := valueOrUnset("bucket"); got != "bucket" {
		t.Errorf("Expected bucket, got %q", got)
	}
}
