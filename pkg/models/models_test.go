package models

import (
	"regexp"
	"testing"
)

func TestNewSessionIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^OVH-\d{13}-\d{4}$`)

	for i := 0; i < 20; i++ {
		id := NewSessionID("OVH")
		if !pattern.MatchString(id) {
			t.Errorf("session ID %q does not match PREFIX-<epoch-ms>-<4 digits>", id)
		}
	}
}

func TestUnmarshalMetadata(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    SessionRecord
		wantErr bool
	}{
		{
			name: "all fields",
			data: `{"sessionId":"OVH-1700000000000-4231","name":"Jane Doe","age":"34","createdAt":1700000000000,"uploaded":true}`,
			want: SessionRecord{SessionID: "OVH-1700000000000-4231", Name: "Jane Doe", Age: "34", CreatedAt: 1700000000000, Uploaded: true},
		},
		{
			name: "missing uploaded defaults to false",
			data: `{"sessionId":"OVH-1-0001","name":"A","age":"9","createdAt":1}`,
			want: SessionRecord{SessionID: "OVH-1-0001", Name: "A", Age: "9", CreatedAt: 1},
		},
		{
			name: "unknown fields ignored",
			data: `{"sessionId":"OVH-1-0001","name":"A","age":"9","createdAt":1,"clinic":"main","extra":{"x":1}}`,
			want: SessionRecord{SessionID: "OVH-1-0001", Name: "A", Age: "9", CreatedAt: 1},
		},
		{
			name:    "missing sessionId rejected",
			data:    `{"name":"A"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `}{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalMetadata([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	rec := SessionRecord{SessionID: "OVH-1700000000000-4231", Name: "Jane Doe", Age: "34", CreatedAt: 1700000000000}

	data, err := MarshalMetadata(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	got, err := UnmarshalMetadata(data)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got != rec {
		t.Errorf("round trip changed record: got %+v, want %+v", got, rec)
	}
}
