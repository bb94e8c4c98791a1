// Package store is the local session record store, a single SQLite database
// owned by the device. It is the only writer of SessionRecord rows; the sync
// engine reads and updates records through it.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/nextserve/oralvis-sync/pkg/models"
)

const dbFileName = "sessions.db"

// Store wraps the SQLite database connection and fans out change
// notifications to watchers.
type Store struct {
	conn *sql.DB
	path string

	mu       sync.Mutex
	watchers []chan struct{}
}

// Open opens or creates the session database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		conn: conn,
		path: path,
	}

	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

// OpenAt opens the session database under the given data root.
func OpenAt(dataRoot string) (*Store, error) {
	return Open(filepath.Join(dataRoot, dbFileName))
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// initSchema creates tables if they don't exist
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		age TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		uploaded INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
	`

	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// GetAll returns all sessions, newest first.
func (s *Store) GetAll() ([]models.SessionRecord, error) {
	return s.query(`
		SELECT session_id, name, age, created_at, uploaded
		FROM sessions
		ORDER BY created_at DESC
	`)
}

// Search returns sessions whose id or patient name contains the given
// substring, newest first.
func (s *Store) Search(substr string) ([]models.SessionRecord, error) {
	pattern := "%" + substr + "%"
	return s.query(`
		SELECT session_id, name, age, created_at, uploaded
		FROM sessions
		WHERE session_id LIKE ? OR name LIKE ?
		ORDER BY created_at DESC
	`, pattern, pattern)
}

// GetByID returns the session with the given id, or nil if absent.
func (s *Store) GetByID(sessionID string) (*models.SessionRecord, error) {
	row := s.conn.QueryRow(`
		SELECT session_id, name, age, created_at, uploaded
		FROM sessions
		WHERE session_id = ?
	`, sessionID)

	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return &rec, nil
}

// Upsert inserts or replaces a session record.
func (s *Store) Upsert(rec models.SessionRecord) error {
	_, err := s.conn.Exec(`
		INSERT OR REPLACE INTO sessions (session_id, name, age, created_at, uploaded)
		VALUES (?, ?, ?, ?, ?)
	`, rec.SessionID, rec.Name, rec.Age, rec.CreatedAt, boolToInt(rec.Uploaded))
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	s.notify()
	return nil
}

// Update rewrites an existing session record. Used to flip uploaded=true
// after a confirmed upload.
func (s *Store) Update(rec models.SessionRecord) error {
	res, err := s.conn.Exec(`
		UPDATE sessions
		SET name = ?, age = ?, created_at = ?, uploaded = ?
		WHERE session_id = ?
	`, rec.Name, rec.Age, rec.CreatedAt, boolToInt(rec.Uploaded), rec.SessionID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("session %s not found", rec.SessionID)
	}

	s.notify()
	return nil
}

// Delete removes a session row. It does not touch the session's image files.
func (s *Store) Delete(sessionID string) error {
	_, err := s.conn.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.notify()
	return nil
}

// Count returns the total number of sessions
func (s *Store) Count() (int, error) {
	var count int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}

// Watch returns a channel that receives a signal after every mutation.
// Signals are coalesced: a slow consumer sees at least one pending signal,
// not one per change.
func (s *Store) Watch() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) query(q string, args ...interface{}) ([]models.SessionRecord, error) {
	rows, err := s.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.SessionRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

func scanRecord(scan func(dest ...interface{}) error) (models.SessionRecord, error) {
	var rec models.SessionRecord
	var uploaded int
	if err := scan(&rec.SessionID, &rec.Name, &rec.Age, &rec.CreatedAt, &uploaded); err != nil {
		return models.SessionRecord{}, err
	}
	rec.Uploaded = uploaded != 0
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
