package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/trackview/internal/timeline"
)

// SaveSession caches the payload under key, replacing any earlier copy.
func (s *Store) SaveSession(key string, sess *timeline.Session, fetchedAt time.Time) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", key, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (session_key, session_id, payload, block_count, flagged, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_key) DO UPDATE SET
			session_id = excluded.session_id,
			payload = excluded.payload,
			block_count = excluded.block_count,
			flagged = excluded.flagged,
			fetched_at = excluded.fetched_at`,
		key, sess.ID, string(payload), len(sess.TimeBlocks), sess.HasDisputedBlocks(),
		fetchedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", key, err)
	}
	return nil
}

// LoadSession returns the cached payload and when it was fetched.
func (s *Store) LoadSession(key string) (*timeline.Session, time.Time, error) {
	var payload, fetchedAt string
	err := s.db.QueryRow(
		`SELECT payload, fetched_at FROM sessions WHERE session_key = ?`, key,
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, fmt.Errorf("load session %s: %w", key, ErrNotCached)
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load session %s: %w", key, err)
	}

	var sess timeline.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode cached session %s: %w", key, err)
	}
	t, _ := time.Parse(time.RFC3339, fetchedAt)
	return &sess, t, nil
}

// ListCached returns cached sessions, most recently fetched first.
func (s *Store) ListCached() ([]CachedSession, error) {
	rows, err := s.db.Query(
		`SELECT session_key, session_id, block_count, flagged, fetched_at
		 FROM sessions ORDER BY fetched_at DESC, session_key`,
	)
	if err != nil {
		return nil, fmt.Errorf("list cached sessions: %w", err)
	}
	defer rows.Close()

	var out []CachedSession
	for rows.Next() {
		var c CachedSession
		var fetchedAt string
		if err := rows.Scan(&c.Key, &c.SessionID, &c.BlockCount, &c.Flagged, &fetchedAt); err != nil {
			return nil, err
		}
		c.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSession(key string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE session_key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	return nil
}
