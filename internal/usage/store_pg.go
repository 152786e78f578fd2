package usage

import (
	"context"
	"database/sql"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) Store {
	return &pgStore{DB: db}
}

func (s *pgStore) All(ctx context.Context) (map[string]int, error) {
	const query = `
SELECT question_id, usage_count FROM question_usage`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			id    string
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		out[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *pgStore) Increment(ctx context.Context, questionID string) (int, error) {
	const query = `
INSERT INTO question_usage (question_id, usage_count, updated_at)
VALUES ($1, 1, $2)
ON CONFLICT (question_id) DO UPDATE
SET usage_count = question_usage.usage_count + 1, updated_at = EXCLUDED.updated_at
RETURNING usage_count`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, questionID, time.Now().UTC()).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *pgStore) Reset(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM question_usage`)
	return err
}
