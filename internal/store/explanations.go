package store

import (
	"fmt"
	"time"
)

// RecordExplanation stores an explanation attempt. CreatedAt defaults to now.
func (s *Store) RecordExplanation(e Explanation) (*Explanation, error) {
	if e.Status == "" {
		e.Status = ExplanationSubmitted
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO explanations (session_key, block_id, text, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.SessionKey, e.BlockID, e.Text, string(e.Status), e.Error,
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("record explanation for block %d: %w", e.BlockID, err)
	}
	e.ID, _ = res.LastInsertId()
	e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Second)
	return &e, nil
}

// ListExplanations returns the history for a session, oldest first.
// A non-zero blockID narrows it to one block.
func (s *Store) ListExplanations(sessionKey string, blockID int64) ([]Explanation, error) {
	query := `SELECT id, session_key, block_id, text, status, error, created_at
		FROM explanations WHERE session_key = ?`
	args := []any{sessionKey}
	if blockID != 0 {
		query += ` AND block_id = ?`
		args = append(args, blockID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list explanations: %w", err)
	}
	defer rows.Close()

	var out []Explanation
	for rows.Next() {
		var e Explanation
		var status, createdAt string
		if err := rows.Scan(&e.ID, &e.SessionKey, &e.BlockID, &e.Text, &status, &e.Error, &createdAt); err != nil {
			return nil, err
		}
		e.Status = ExplanationStatus(status)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// LatestExplanations maps each block id to its most recent attempt.
func (s *Store) LatestExplanations(sessionKey string) (map[int64]Explanation, error) {
	all, err := s.ListExplanations(sessionKey, 0)
	if err != nil {
		return nil, err
	}
	latest := make(map[int64]Explanation, len(all))
	for _, e := range all {
		latest[e.BlockID] = e
	}
	return latest, nil
}
