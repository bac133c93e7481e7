// Package store persists recorded sessions in sqlite for replay and
// offline verification. The recorder itself stays storage-agnostic;
// the store is the reference implementation of its sink.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"proctord/internal/session"
)

// Schema for the proctord session store.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id          TEXT PRIMARY KEY,
    user        TEXT NOT NULL,
    hostname    TEXT NOT NULL,
    started_at  INTEGER NOT NULL,
    ended_at    INTEGER
);

CREATE TABLE IF NOT EXISTS events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id  TEXT NOT NULL REFERENCES sessions(id),
    ts          INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    payload     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, ts);
`

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("store: session not found")

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession registers a session row.
func (s *Store) CreateSession(sess *session.Session) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, user, hostname, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.User, sess.Hostname, sess.StartedAt)
	if err != nil {
		return fmt.Errorf("store: create session: %w", err)
	}
	return nil
}

// AppendEvents stores a flushed batch for a session.
func (s *Store) AppendEvents(sessionID string, batch []session.Event) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO events (session_id, ts, kind, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()
	for _, ev := range batch {
		payload, err := json.Marshal(ev)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("store: encode event: %w", err)
		}
		if _, err := stmt.Exec(sessionID, ev.Timestamp, string(ev.Kind), string(payload)); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: insert event: %w", err)
		}
	}
	return tx.Commit()
}

// FinishSession stamps the session end time.
func (s *Store) FinishSession(sessionID string, endedAt int64) error {
	_, err := s.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, endedAt, sessionID)
	if err != nil {
		return fmt.Errorf("store: finish session: %w", err)
	}
	return nil
}

// LoadSession reads a session and its full event stream.
func (s *Store) LoadSession(sessionID string) (*session.Session, error) {
	sess := &session.Session{}
	var endedAt sql.NullInt64
	err := s.db.QueryRow(
		`SELECT id, user, hostname, started_at, ended_at FROM sessions WHERE id = ?`,
		sessionID).Scan(&sess.ID, &sess.User, &sess.Hostname, &sess.StartedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load session: %w", err)
	}
	if endedAt.Valid {
		sess.EndedAt = endedAt.Int64
	}

	rows, err := s.db.Query(
		`SELECT payload FROM events WHERE session_id = ? ORDER BY ts, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: load events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		var ev session.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("store: decode event: %w", err)
		}
		sess.Events = append(sess.Events, ev)
	}
	return sess, rows.Err()
}

// ListSessions returns session metadata, newest first.
func (s *Store) ListSessions() ([]*session.Session, error) {
	rows, err := s.db.Query(
		`SELECT id, user, hostname, started_at, ended_at FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	defer rows.Close()
	var out []*session.Session
	for rows.Next() {
		sess := &session.Session{}
		var endedAt sql.NullInt64
		if err := rows.Scan(&sess.ID, &sess.User, &sess.Hostname, &sess.StartedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("store: scan session: %w", err)
		}
		if endedAt.Valid {
			sess.EndedAt = endedAt.Int64
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
