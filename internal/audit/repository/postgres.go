package repository

import (
	"context"
	"database/sql"

	"vidtube/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a security-event repository that uses the
// given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists one security event.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.SecurityEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO security_events (id, account_id, action, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, sql.NullString{String: e.AccountID, Valid: e.AccountID != ""},
		e.Action, e.IP, e.Metadata, e.CreatedAt)
	return err
}

// ListByAccount returns the most recent events for an account, newest first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string, limit int32) ([]*domain.SecurityEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, action, ip, metadata, created_at
		 FROM security_events WHERE account_id = $1
		 ORDER BY created_at DESC LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.SecurityEvent
	for rows.Next() {
		var e domain.SecurityEvent
		var acct sql.NullString
		if err := rows.Scan(&e.ID, &acct, &e.Action, &e.IP, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.AccountID = acct.String
		out = append(out, &e)
	}
	return out, rows.Err()
}
