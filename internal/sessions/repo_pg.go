package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PGRepo implements Store using Postgres. The record lives in a JSONB payload
// next to the columns used for lookups.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new session.
func (r *PGRepo) Create(ctx context.Context, s Session) error {
	const query = `
INSERT INTO interview_sessions (id, user_id, role, level, status, payload, started_at, updated_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		s.ID,
		nullString(s.UserID),
		s.Role,
		s.Level,
		s.Status,
		payload,
		s.StartedAt,
		s.UpdatedAt,
		nullTime(s),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Get loads a session by id.
func (r *PGRepo) Get(ctx context.Context, sessionID string) (Session, error) {
	const query = `
SELECT payload FROM interview_sessions WHERE id = $1`
	return scanSession(r.DB.QueryRowContext(ctx, query, sessionID))
}

// Mutate locks the row, applies fn and writes the whole record in one transaction.
func (r *PGRepo) Mutate(ctx context.Context, sessionID string, fn func(*Session) error) (Session, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	const selectQuery = `
SELECT payload FROM interview_sessions WHERE id = $1 FOR UPDATE`
	current, err := scanSession(tx.QueryRowContext(ctx, selectQuery, sessionID))
	if err != nil {
		return Session{}, err
	}

	next := current.clone()
	if err := fn(&next); err != nil {
		if errors.Is(err, errUnchanged) {
			return current, tx.Commit()
		}
		return Session{}, err
	}

	payload, err := json.Marshal(next)
	if err != nil {
		return Session{}, err
	}
	const updateQuery = `
UPDATE interview_sessions
SET status = $2, payload = $3, updated_at = $4, completed_at = $5
WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateQuery, sessionID, next.Status, payload, next.UpdatedAt, nullTime(next)); err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	return next, nil
}

// ListByUser returns every session of userID ordered by start time.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	const query = `
SELECT payload FROM interview_sessions WHERE user_id = $1 ORDER BY started_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a session.
func (r *PGRepo) Delete(ctx context.Context, sessionID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM interview_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(s Session) sql.NullTime {
	if s.CompletedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *s.CompletedAt, Valid: true}
}

var _ Store = (*PGRepo)(nil)
