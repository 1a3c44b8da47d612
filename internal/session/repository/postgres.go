package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session slot repository backed by the
// session_slots table (one row per account).
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the slot value for the account, or empty if the account has no
// active session or no slot row.
func (r *PostgresRepository) Get(ctx context.Context, accountID string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT refresh_token FROM session_slots WHERE account_id = $1`, accountID).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// TrySet performs the compare-and-swap as a single conditional UPDATE; the
// row count tells us whether the expected value was still in place. Accounts
// that predate their slot row are handled by an insert when expected is empty.
func (r *PostgresRepository) TrySet(ctx context.Context, accountID, expected, next string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE session_slots SET refresh_token = $3, updated_at = $4
		 WHERE account_id = $1 AND refresh_token = $2`,
		accountID, expected, next, time.Now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if expected == "" {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO session_slots (account_id, refresh_token, updated_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (account_id) DO NOTHING`,
			accountID, next, time.Now().UTC())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 1 {
			return nil
		}
	}
	return ErrConflict
}

// Clear empties the slot. Succeeds whether or not a session was active.
func (r *PostgresRepository) Clear(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE session_slots SET refresh_token = '', updated_at = $2 WHERE account_id = $1`,
		accountID, time.Now().UTC())
	return err
}
