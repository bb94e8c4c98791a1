package models

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// SessionRecord is one patient photo-documentation session as stored in the
// local database and serialized to the remote metadata blob.
//
// SessionID is caller-generated, globally unique and immutable. It doubles as
// the local directory name and the remote folder name, so all three stay in
// lock-step.
type SessionRecord struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Age       string `json:"age"`
	CreatedAt int64  `json:"createdAt"`
	Uploaded  bool   `json:"uploaded"`
}

// RemoteSessionSummary is a read-only view of a session that exists in the
// cloud, built from its metadata blob during listing. It is never persisted.
type RemoteSessionSummary struct {
	SessionID       string
	Name            string
	Age             string
	CreatedAt       int64
	RemoteFolderKey string
}

// NewSessionID generates a session ID of the form PREFIX-<epoch-ms>-<4 digits>.
func NewSessionID(prefix string) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, time.Now().UnixMilli(), rand.Intn(10000))
}

// MarshalMetadata serializes a record to the metadata.json wire format.
func MarshalMetadata(rec SessionRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session metadata: %w", err)
	}
	return data, nil
}

// UnmarshalMetadata parses a metadata.json blob. Unknown fields are ignored
// and a missing "uploaded" field is tolerated (defaults to false), so old and
// extended metadata shapes both decode.
func UnmarshalMetadata(data []byte) (SessionRecord, error) {
	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return SessionRecord{}, fmt.Errorf("failed to parse session metadata: %w", err)
	}
	if rec.SessionID == "" {
		return SessionRecord{}, fmt.Errorf("session metadata missing sessionId")
	}
	return rec, nil
}
