package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveSessionSnapshot inserts or replaces a session snapshot.
func (db *DB) SaveSessionSnapshot(ctx context.Context, s *SessionSnapshot) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO review_sessions (id, current_step, step_count, complete, state)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET current_step = $2, step_count = $3, complete = $4, state = $5, updated_at = NOW()`,
		s.ID, s.CurrentStep, s.StepCount, s.Complete, []byte(s.State),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	return nil
}

// GetSessionSnapshot returns a stored snapshot, or nil if there is none.
func (db *DB) GetSessionSnapshot(ctx context.Context, id uuid.UUID) (*SessionSnapshot, error) {
	var s SessionSnapshot
	var state []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, current_step, step_count, complete, state, created_at, updated_at
		 FROM review_sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.CurrentStep, &s.StepCount, &s.Complete, &state, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	s.State = state
	return &s, nil
}

// DeleteSession removes a snapshot and its answers.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM review_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// SaveAnswers replaces the assembled answers of a session in one transaction.
func (db *DB) SaveAnswers(ctx context.Context, sessionID uuid.UUID, answers []StoredAnswer) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM session_answers WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear answers: %w", err)
	}

	batch := &pgx.Batch{}
	for _, a := range answers {
		batch.Queue(
			`INSERT INTO session_answers (session_id, position, field_id, field_text, answer)
			 VALUES ($1, $2, $3, $4, $5)`,
			sessionID, a.Position, a.FieldID, a.FieldText, a.Answer,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert answers: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit answers: %w", err)
	}
	return nil
}

// ListAnswers returns the stored answers of a session in position order.
func (db *DB) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]StoredAnswer, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT position, field_id, field_text, answer
		 FROM session_answers WHERE session_id = $1 ORDER BY position`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []StoredAnswer
	for rows.Next() {
		var a StoredAnswer
		if err := rows.Scan(&a.Position, &a.FieldID, &a.FieldText, &a.Answer); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
